package models

import "threadscli/pkg/jsonv"

// MediaType is the kind of a media attachment
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// User is a Threads account profile
type User struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	DisplayName    string   `json:"display_name,omitempty"`
	Bio            string   `json:"bio,omitempty"`
	Links          []string `json:"links,omitempty"`
	AvatarURL      string   `json:"avatar_url,omitempty"`
	FollowerCount  *int64   `json:"follower_count,omitempty"`
	FollowingCount *int64   `json:"following_count,omitempty"`
	PostCount      *int64   `json:"post_count,omitempty"`
	Verified       bool     `json:"verified"`
	Private        bool     `json:"private"`

	// Raw is the untransformed source object
	Raw *jsonv.Value `json:"raw,omitempty"`
}

// Post is a single thread item
type Post struct {
	// ID is the numeric media id used for follow-up calls
	ID string `json:"id"`
	// Code is the shareable short code used in post URLs
	Code   string `json:"code,omitempty"`
	Text   string `json:"text"`
	Author *User  `json:"author,omitempty"`
	// CreatedAt is an RFC 3339 timestamp, or the upstream string verbatim
	CreatedAt   string  `json:"created_at"`
	LikeCount   *int64  `json:"like_count,omitempty"`
	ReplyCount  *int64  `json:"reply_count,omitempty"`
	RepostCount *int64  `json:"repost_count,omitempty"`
	QuoteCount  *int64  `json:"quote_count,omitempty"`
	Media       []Media `json:"media,omitempty"`
	QuotedPost  *Post   `json:"quoted_post,omitempty"`

	Raw *jsonv.Value `json:"raw,omitempty"`
}

// Media is an image or video attached to a post
type Media struct {
	Type         MediaType `json:"type"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	VideoURL     string    `json:"video_url,omitempty"`
	Width        *int      `json:"width,omitempty"`
	Height       *int      `json:"height,omitempty"`
	// Index is the position within a carousel, 0 for single media
	Index int `json:"index"`
}

// Page is one page of a paginated listing. An empty Cursor means there are no more pages.
type Page[T any] struct {
	Items  []T    `json:"items"`
	Cursor string `json:"cursor,omitempty"`
}

// HasMore reports whether another page can be requested
func (p Page[T]) HasMore() bool {
	return p.Cursor != ""
}

// StripRaw removes the source payloads from a user
func (u *User) StripRaw() {
	if u != nil {
		u.Raw = nil
	}
}

// StripRaw removes the source payloads from a post and everything it embeds
func (p *Post) StripRaw() {
	if p == nil {
		return
	}
	p.Raw = nil
	p.Author.StripRaw()
	p.QuotedPost.StripRaw()
}
