package normalize

import (
	"time"

	"threadscli/pkg/jsonv"
	"threadscli/pkg/models"
)

var postRoots = []extractor{
	path("post"),
	path("thread"),
	path("data", "post"),
	path("containing_thread", "thread_items", 0, "post"),
	path("thread_items", 0, "post"),
	self,
}

var authorRoots = []extractor{
	path("user"),
	path("owner"),
}

// Post extracts a post from any known post payload shape. Roots are tried in
// order and the first one carrying a non-empty id wins.
func Post(payload jsonv.Value) (*models.Post, bool) {
	return postAt(payload, time.Now)
}

func postAt(payload jsonv.Value, now func() time.Time) (*models.Post, bool) {
	for _, root := range postRoots {
		obj := root(payload)
		if p, ok := postFromObject(obj, now); ok {
			attachQuote(p, obj, now)
			return p, true
		}
	}
	return nil, false
}

func attachQuote(p *models.Post, obj jsonv.Value, now func() time.Time) {
	if q, ok := firstObject(obj, []extractor{path("text_post_app_info", "share_info", "quoted_post")}); ok {
		if quoted, ok := postFromObject(q, now); ok {
			p.QuotedPost = quoted
		}
	}
}

func postFromObject(obj jsonv.Value, now func() time.Time) (*models.Post, bool) {
	if !obj.IsObject() {
		return nil, false
	}
	id := text(obj, "pk", "id")
	if id == "" {
		return nil, false
	}

	p := &models.Post{
		ID:        id,
		Code:      str(obj, "code", "shortcode"),
		Text:      caption(obj),
		CreatedAt: Timestamp(firstPresent(obj, "taken_at", "takenAt"), now),
		LikeCount: count(obj, path("like_count"), path("likeCount")),
		ReplyCount: count(obj,
			path("text_post_app_info", "direct_reply_count"),
			path("reply_count"),
		),
		RepostCount: count(obj,
			path("text_post_app_info", "repost_count"),
			path("repost_count"),
		),
		QuoteCount: count(obj,
			path("text_post_app_info", "quote_count"),
			path("quote_count"),
		),
		Media: Media(obj),
		Raw:   rawRef(obj),
	}

	if author, ok := firstObject(obj, authorRoots); ok {
		if u, ok := userFromObject(author); ok {
			p.Author = u
		}
	}
	return p, true
}

func caption(obj jsonv.Value) string {
	if s, ok := obj.Path("caption", "text").Str(); ok {
		return s
	}
	if s, ok := obj.Get("text").Str(); ok {
		return s
	}
	if s, ok := obj.Get("caption").Str(); ok {
		return s
	}
	return ""
}

func firstPresent(obj jsonv.Value, keys ...string) jsonv.Value {
	for _, k := range keys {
		if v := obj.Get(k); !v.IsNull() {
			return v
		}
	}
	return jsonv.Value{}
}

// Timestamp normalizes a creation time. Numbers are Unix seconds and become
// RFC 3339 in UTC; strings pass through unchanged; anything else is now.
func Timestamp(v jsonv.Value, now func() time.Time) string {
	if secs, ok := v.Int(); ok {
		return time.Unix(secs, 0).UTC().Format(time.RFC3339)
	}
	if s, ok := v.Str(); ok {
		return s
	}
	return now().UTC().Format(time.RFC3339)
}
