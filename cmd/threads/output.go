package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"threadscli/pkg/config"
	"threadscli/pkg/models"
	"threadscli/pkg/paginate"
	"threadscli/pkg/threads"
)

const (
	defaultWidth = 100
	minWidth     = 40
	nameColumn   = 24
)

// printer renders records as JSON or text. Records go to out, warnings to errOut.
type printer struct {
	out    io.Writer
	errOut io.Writer
	json   bool
	raw    bool
	width  int
}

func newPrinter(out, errOut io.Writer, cfg config.OutputConfig) *printer {
	p := &printer{out: out, errOut: errOut, raw: cfg.Raw, width: defaultWidth}
	switch strings.ToLower(cfg.Format) {
	case "json":
		p.json = true
	case "text":
	default:
		p.json = !isTerminal(out)
	}
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w >= minWidth {
			p.width = w
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// listing is the JSON shape of a paginated result
type listing[T any] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"cursor,omitempty"`
}

func (p *printer) Warn(msg string) {
	fmt.Fprintf(p.errOut, "warning: %s\n", msg)
}

func (p *printer) JSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (p *printer) User(u *models.User) error {
	if !p.raw {
		u.StripRaw()
	}
	if p.json {
		return p.JSON(u)
	}
	p.userDetail(u)
	return nil
}

func (p *printer) Users(res paginate.Result[models.User]) error {
	if !p.raw {
		for i := range res.Items {
			res.Items[i].StripRaw()
		}
	}
	var err error
	if p.json {
		err = p.JSON(listing[models.User]{Items: res.Items, Cursor: res.Cursor})
	} else {
		for i := range res.Items {
			p.userLine(&res.Items[i])
		}
		p.more(res.Cursor)
	}
	p.partial(res.Warning)
	return err
}

func (p *printer) Post(post *models.Post) error {
	if !p.raw {
		post.StripRaw()
	}
	if p.json {
		return p.JSON(post)
	}
	p.post(post, "")
	return nil
}

func (p *printer) Posts(res paginate.Result[models.Post]) error {
	if !p.raw {
		for i := range res.Items {
			res.Items[i].StripRaw()
		}
	}
	var err error
	if p.json {
		err = p.JSON(listing[models.Post]{Items: res.Items, Cursor: res.Cursor})
	} else {
		for i := range res.Items {
			if i > 0 {
				fmt.Fprintln(p.out)
			}
			p.post(&res.Items[i], "")
		}
		p.more(res.Cursor)
	}
	p.partial(res.Warning)
	return err
}

func (p *printer) Thread(t *threads.ThreadResult) error {
	if !p.raw {
		t.Post.StripRaw()
		for i := range t.Replies {
			t.Replies[i].StripRaw()
		}
	}
	if p.json {
		return p.JSON(t)
	}
	p.post(&t.Post, "")
	if len(t.Replies) > 0 {
		fmt.Fprintf(p.out, "\nreplies (%d)\n", len(t.Replies))
	}
	for i := range t.Replies {
		fmt.Fprintln(p.out)
		p.post(&t.Replies[i], "    ")
	}
	return nil
}

func (p *printer) partial(warning string) {
	if warning != "" {
		p.Warn(warning)
	}
}

func (p *printer) more(cursor string) {
	if cursor != "" {
		fmt.Fprintln(p.errOut, "(more available, raise --max-pages to continue)")
	}
}

func (p *printer) userDetail(u *models.User) {
	fmt.Fprintln(p.out, p.fit(handle(u)+badges(u)))
	if u.DisplayName != "" {
		fmt.Fprintf(p.out, "  name:      %s\n", u.DisplayName)
	}
	fmt.Fprintf(p.out, "  id:        %s\n", u.ID)
	if u.Bio != "" {
		for i, line := range strings.Split(runewidth.Wrap(u.Bio, p.width-13), "\n") {
			label := "           "
			if i == 0 {
				label = "  bio:     "
			}
			fmt.Fprintf(p.out, "%s%s\n", label, line)
		}
	}
	for _, link := range u.Links {
		fmt.Fprintf(p.out, "  link:      %s\n", link)
	}
	fmt.Fprintf(p.out, "  followers: %s  following: %s  threads: %s\n",
		count(u.FollowerCount), count(u.FollowingCount), count(u.PostCount))
	if u.Username != "" {
		fmt.Fprintf(p.out, "  %s\n", threads.ProfileURL(u.Username))
	}
}

func (p *printer) userLine(u *models.User) {
	line := runewidth.FillRight(handle(u), nameColumn) + " " + u.DisplayName + badges(u)
	fmt.Fprintln(p.out, p.fit(line))
}

func (p *printer) post(post *models.Post, indent string) {
	author := "@?"
	if post.Author != nil {
		author = handle(post.Author)
	}
	header := author
	if post.CreatedAt != "" {
		header += "  " + post.CreatedAt
	}
	fmt.Fprintln(p.out, indent+p.fitIndent(header, indent))

	body := indent + "  "
	if post.Text != "" {
		wrapped := runewidth.Wrap(post.Text, p.width-runewidth.StringWidth(body))
		for _, line := range strings.Split(wrapped, "\n") {
			fmt.Fprintln(p.out, body+line)
		}
	}
	if len(post.Media) > 0 {
		fmt.Fprintf(p.out, "%s[%s]\n", body, mediaSummary(post.Media))
	}
	if q := post.QuotedPost; q != nil {
		quoted := "quoting "
		if q.Author != nil {
			quoted += handle(q.Author) + ": "
		}
		fmt.Fprintln(p.out, body+p.fitIndent(quoted+firstLine(q.Text), body))
	}
	fmt.Fprintf(p.out, "%slikes %s · replies %s · reposts %s · quotes %s\n", body,
		count(post.LikeCount), count(post.ReplyCount), count(post.RepostCount), count(post.QuoteCount))
	if post.Code != "" && post.Author != nil {
		fmt.Fprintln(p.out, body+threads.PostURL(post.Author.Username, post.Code))
	}
}

func (p *printer) fit(s string) string {
	return runewidth.Truncate(s, p.width, "…")
}

func (p *printer) fitIndent(s, indent string) string {
	return runewidth.Truncate(s, p.width-runewidth.StringWidth(indent), "…")
}

func handle(u *models.User) string {
	if u.Username == "" {
		return "@" + u.ID
	}
	return "@" + u.Username
}

func badges(u *models.User) string {
	var b string
	if u.Verified {
		b += " [verified]"
	}
	if u.Private {
		b += " [private]"
	}
	return b
}

func count(n *int64) string {
	if n == nil {
		return "-"
	}
	return strconv.FormatInt(*n, 10)
}

func mediaSummary(media []models.Media) string {
	var images, videos int
	for _, m := range media {
		if m.Type == models.MediaVideo {
			videos++
		} else {
			images++
		}
	}
	var parts []string
	if images > 0 {
		parts = append(parts, plural(images, "image"))
	}
	if videos > 0 {
		parts = append(parts, plural(videos, "video"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
