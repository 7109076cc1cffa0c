package normalize

import (
	"threadscli/pkg/jsonv"
	"threadscli/pkg/models"
)

var (
	postContainers = []extractor{
		path("threads"),
		path("items"),
		path("edges"),
		path("thread_items"),
		path("data", "threads"),
		path("mediaData", "threads"),
		path("mediaData", "edges"),
		path("feedData", "edges"),
		path("searchResults", "edges"),
		path("data", "edges"),
	}

	userContainers = []extractor{
		path("threads"),
		path("users"),
		path("items"),
		path("edges"),
		path("data", "threads"),
		path("mediaData", "threads"),
		path("mediaData", "edges"),
		path("feedData", "edges"),
		path("searchResults", "edges"),
		path("data", "edges"),
	}

	// A bare post carries its author under "user", so post elements are
	// never unwrapped through it.
	postWrappers = []extractor{path("node"), path("post"), path("thread")}
	userWrappers = []extractor{path("node"), path("post"), path("thread"), path("user")}

	cursorScopes = []extractor{
		self,
		path("mediaData"),
		path("feedData"),
		path("searchResults"),
		path("data"),
	}
)

// Posts extracts a page of posts from a list payload
func Posts(payload jsonv.Value) models.Page[models.Post] {
	items, _ := firstArray(payload, postContainers)
	return models.Page[models.Post]{
		Items:  PostsIn(items),
		Cursor: Cursor(payload),
	}
}

// PostsIn normalizes list elements, dropping any without an id
func PostsIn(items []jsonv.Value) []models.Post {
	out := make([]models.Post, 0, len(items))
	for _, item := range items {
		if p, ok := unwrapUntil(item, postWrappers, Post); ok {
			out = append(out, *p)
		}
	}
	return out
}

// Users extracts a page of users from a list payload
func Users(payload jsonv.Value) models.Page[models.User] {
	items, _ := firstArray(payload, userContainers)
	return models.Page[models.User]{
		Items:  UsersIn(items),
		Cursor: Cursor(payload),
	}
}

// UsersIn normalizes list elements, dropping any without an id or username
func UsersIn(items []jsonv.Value) []models.User {
	out := make([]models.User, 0, len(items))
	for _, item := range items {
		if u, ok := unwrapUntil(item, userWrappers, userFromObject); ok {
			out = append(out, *u)
		}
	}
	return out
}

// maxWrapDepth bounds how many wrapper objects an element may nest in
const maxWrapDepth = 3

// unwrapUntil tries extract on the element and then on each wrapped level
// below it, returning the first entity found
func unwrapUntil[T any](item jsonv.Value, wrappers []extractor, extract func(jsonv.Value) (*T, bool)) (*T, bool) {
	for depth := 0; depth <= maxWrapDepth && item.IsObject(); depth++ {
		if v, ok := extract(item); ok {
			return v, true
		}
		inner, wrapped := firstObject(item, wrappers)
		if !wrapped {
			break
		}
		item = inner
	}
	return nil, false
}

// Cursor returns the next-page token of a list payload, or "" when there
// are no further pages
func Cursor(payload jsonv.Value) string {
	for _, scope := range cursorScopes {
		s := scope(payload)
		if !s.IsObject() {
			continue
		}
		if c, done := cursorIn(s); done {
			return c
		}
	}
	return ""
}

// cursorIn reports the cursor of a single object. done is true when the
// object settles the question, including an explicit end of list.
func cursorIn(v jsonv.Value) (string, bool) {
	if pi := v.Get("page_info"); pi.IsObject() {
		if more, ok := pi.Get("has_next_page").Bool(); ok && !more {
			return "", true
		}
		if c := str(pi, "end_cursor"); c != "" {
			return c, true
		}
	}
	if c := text(v, "next_cursor", "next_max_id"); c != "" {
		return c, true
	}
	if c := str(v.Get("paging_tokens"), "downward"); c != "" {
		return c, true
	}
	return "", false
}
