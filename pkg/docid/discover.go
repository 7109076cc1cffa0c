package docid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"threadscli/pkg/logger"
)

const (
	// DefaultMaxBundles bounds the script bundles fetched per discovery
	DefaultMaxBundles = 30
	// searchWindow is how far from an operation name an id may sit
	searchWindow = 300
	// maxBodyBytes caps a single landing page or bundle read
	maxBodyBytes = 16 << 20
)

var (
	lsdPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"LSD",\[\],\{"token":"([^"]+)"`),
		regexp.MustCompile(`"lsd":"([^"]+)"`),
	}
	quotedID = regexp.MustCompile(`["'](\d{10,22})["']`)
)

// Discoverer scrapes doc ids and the LSD token from the public web client
type Discoverer struct {
	HTTP        *http.Client
	BaseURL     string
	UserAgent   string
	StaticHosts []string
	MaxBundles  int
	Logger      logger.Logger
}

// Discover fetches the landing page and its script bundles. Fetch failures
// only shrink the result; discovery itself never fails.
func (d *Discoverer) Discover(ctx context.Context) (map[Query]string, string) {
	log := d.logger()
	found := make(map[Query]string)

	page, err := d.fetch(ctx, d.BaseURL)
	if err != nil {
		log.WarnWithFields("landing page fetch failed", map[string]interface{}{
			"url":   d.BaseURL,
			"error": err,
		})
		return found, ""
	}

	token := ExtractSessionToken(page)
	bundles := d.bundleURLs(page)
	log.DebugWithFields("landing page parsed", map[string]interface{}{
		"bundles":       len(bundles),
		"session_token": token != "",
	})

	for _, u := range bundles {
		if len(found) == len(operationNames) || ctx.Err() != nil {
			break
		}
		js, err := d.fetch(ctx, u)
		if err != nil {
			log.DebugWithFields("bundle fetch failed", map[string]interface{}{
				"url":   u,
				"error": err,
			})
			continue
		}
		for q, id := range FindIDs(js) {
			if _, ok := found[q]; !ok {
				found[q] = id
			}
		}
	}

	log.InfoWithFields("doc id discovery finished", map[string]interface{}{
		"found":   len(found),
		"bundles": len(bundles),
	})
	return found, token
}

// ExtractSessionToken returns the LSD token embedded in a page, if any
func ExtractSessionToken(page string) string {
	for _, re := range lsdPatterns {
		if m := re.FindStringSubmatch(page); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// FindIDs searches a bundle for the id next to each operation name. Text
// after the name is searched before text in front of it.
func FindIDs(js string) map[Query]string {
	out := make(map[Query]string)
	for q, name := range operationNames {
		if id := findNear(js, name); id != "" {
			out[q] = id
		}
	}
	return out
}

func findNear(js, name string) string {
	offset := 0
	for {
		i := strings.Index(js[offset:], name)
		if i < 0 {
			return ""
		}
		start := offset + i
		end := start + len(name)

		// Guard against a longer name containing this one
		if (end < len(js) && isIdentChar(js[end])) || (start > 0 && isIdentChar(js[start-1])) {
			offset = end
			continue
		}

		after := js[end:min(len(js), end+searchWindow)]
		if m := quotedID.FindStringSubmatch(after); m != nil {
			return m[1]
		}
		before := js[max(0, start-searchWindow):start]
		if all := quotedID.FindAllStringSubmatch(before, -1); len(all) > 0 {
			return all[len(all)-1][1]
		}
		offset = end
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// bundleURLs lists script sources served from the landing page's origin or a static host
func (d *Discoverer) bundleURLs(page string) []string {
	base, err := url.Parse(d.BaseURL)
	if err != nil {
		return nil
	}
	limit := d.MaxBundles
	if limit <= 0 {
		limit = DefaultMaxBundles
	}

	var out []string
	seen := make(map[string]bool)
	z := html.NewTokenizer(strings.NewReader(page))
	for len(out) < limit {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tok.Data != "script" && tok.Data != "link" {
			continue
		}
		src := scriptSource(tok)
		if src == "" {
			continue
		}
		ref, err := base.Parse(src)
		if err != nil || !d.allowedHost(base, ref) {
			continue
		}
		if s := ref.String(); !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// scriptSource returns the src of a script tag or the href of a script preload link
func scriptSource(tok html.Token) string {
	var src, href, as string
	for _, a := range tok.Attr {
		switch strings.ToLower(a.Key) {
		case "src":
			src = a.Val
		case "href":
			href = a.Val
		case "as":
			as = a.Val
		}
	}
	if tok.Data == "script" {
		return src
	}
	if as == "script" {
		return href
	}
	return ""
}

func (d *Discoverer) allowedHost(base, ref *url.URL) bool {
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return false
	}
	host := strings.ToLower(ref.Hostname())
	if host == strings.ToLower(base.Hostname()) {
		return true
	}
	for _, h := range d.StaticHosts {
		if host == strings.ToLower(h) {
			return true
		}
	}
	return false
}

func (d *Discoverer) fetch(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	client := d.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, u)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (d *Discoverer) logger() logger.Logger {
	if d.Logger == nil {
		return logger.NewNopLogger()
	}
	return d.Logger
}
