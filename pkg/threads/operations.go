package threads

import (
	"context"
	"fmt"

	"threadscli/pkg/docid"
	errs "threadscli/pkg/errors"
	"threadscli/pkg/jsonv"
	"threadscli/pkg/models"
	"threadscli/pkg/normalize"
	"threadscli/pkg/paginate"
)

// Tab selects one of the profile listings
type Tab string

const (
	TabThreads Tab = "threads"
	TabReplies Tab = "replies"
	TabReposts Tab = "reposts"
)

// ParseTab validates a tab name; empty means TabThreads
func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case "", TabThreads:
		return TabThreads, nil
	case TabReplies, TabReposts:
		return Tab(s), nil
	default:
		return "", errs.NewConfig(fmt.Sprintf("unknown tab %q (want threads, replies or reposts)", s))
	}
}

func (t Tab) query() docid.Query {
	switch t {
	case TabReplies:
		return docid.UserReplies
	case TabReposts:
		return docid.UserReposts
	default:
		return docid.UserThreads
	}
}

const loggedInProvider = "__relay_internal__pv__BarcelonaIsLoggedInrelayprovider"

// ThreadResult is a post together with the replies shown under it
type ThreadResult struct {
	Post    models.Post   `json:"post"`
	Replies []models.Post `json:"replies"`
}

// UserByUsername looks up a profile by handle
func (c *Client) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	username = SanitizeUsername(username)
	if !IsValidUsername(username) {
		return nil, errs.NewConfig(fmt.Sprintf("invalid username %q", username))
	}

	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"username": username,
	})
	data, err := c.GraphQL(ctx, docid.UserByUsername, map[string]any{
		"username":       username,
		loggedInProvider: true,
	})
	if err != nil {
		return nil, err
	}

	u, ok := normalize.User(data)
	if !ok {
		return nil, errs.NewNotFound("user " + username)
	}
	return u, nil
}

// ResolveUserID returns the numeric id for a handle, profile URL or id
func (c *Client) ResolveUserID(ctx context.Context, ref string) (string, error) {
	ref = SanitizeUsername(ref)
	if isDigits(ref) {
		return ref, nil
	}
	u, err := c.UserByUsername(ctx, ref)
	if err != nil {
		return "", err
	}
	if u.ID == "" {
		return "", errs.NewNotFound("id of user " + ref)
	}
	return u.ID, nil
}

// UserPostsPage fetches one page of a profile tab
func (c *Client) UserPostsPage(ctx context.Context, userID string, tab Tab, cursor string) (models.Page[models.Post], error) {
	data, err := c.GraphQL(ctx, tab.query(), c.pageVars(cursor, map[string]any{
		"userID":         userID,
		loggedInProvider: true,
	}))
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return normalize.Posts(data), nil
}

// UserPosts walks up to maxPages of a profile tab. user may be a handle or an id.
func (c *Client) UserPosts(ctx context.Context, user string, tab Tab, maxPages int) (paginate.Result[models.Post], error) {
	id, err := c.ResolveUserID(ctx, user)
	if err != nil {
		return paginate.Result[models.Post]{}, err
	}
	return paginate.Walk(ctx, func(ctx context.Context, cursor string) (models.Page[models.Post], error) {
		return c.UserPostsPage(ctx, id, tab, cursor)
	}, maxPages)
}

// Thread fetches a post and its visible replies. ref is an id, short code or URL.
func (c *Client) Thread(ctx context.Context, ref string) (*ThreadResult, error) {
	pr, err := ParsePostRef(ref)
	if err != nil {
		return nil, err
	}

	data, err := c.GraphQL(ctx, docid.ThreadDetail, map[string]any{
		"postID":         pr.ID,
		"sort_order":     "TOP",
		loggedInProvider: true,
	})
	if err != nil {
		return nil, err
	}

	posts := normalize.Posts(data).Items
	res := &ThreadResult{Replies: []models.Post{}}
	main := -1
	for i, p := range posts {
		if p.ID == pr.ID || (pr.Code != "" && p.Code == pr.Code) {
			main = i
			break
		}
	}
	switch {
	case main >= 0:
		res.Post = posts[main]
		res.Replies = append(res.Replies, posts[:main]...)
		res.Replies = append(res.Replies, posts[main+1:]...)
	case len(posts) > 0:
		res.Post = posts[0]
		res.Replies = append(res.Replies, posts[1:]...)
	default:
		p, ok := normalize.Post(data)
		if !ok {
			return nil, errs.NewNotFound("post " + ref)
		}
		res.Post = *p
	}
	return res, nil
}

// HomeTimelinePage fetches one page of the logged-in user's feed
func (c *Client) HomeTimelinePage(ctx context.Context, cursor string) (models.Page[models.Post], error) {
	data, err := c.GraphQL(ctx, docid.HomeTimeline, c.pageVars(cursor, map[string]any{
		"pagination_source": "text_post_feed_threads",
		loggedInProvider:    true,
	}))
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return normalize.Posts(data), nil
}

// HomeTimeline walks up to maxPages of the feed
func (c *Client) HomeTimeline(ctx context.Context, maxPages int) (paginate.Result[models.Post], error) {
	return paginate.Walk(ctx, c.HomeTimelinePage, maxPages)
}

// SearchPage fetches one page of post search results. recent sorts by time instead of relevance.
func (c *Client) SearchPage(ctx context.Context, query string, recent bool, cursor string) (models.Page[models.Post], error) {
	if query == "" {
		return models.Page[models.Post]{}, errs.NewConfig("empty search query")
	}
	recentFlag := 0
	if recent {
		recentFlag = 1
	}
	data, err := c.GraphQL(ctx, docid.Search, c.pageVars(cursor, map[string]any{
		"query":          query,
		"recent":         recentFlag,
		"search_surface": "default",
		loggedInProvider: true,
	}))
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return normalize.Posts(data), nil
}

// Search walks up to maxPages of search results
func (c *Client) Search(ctx context.Context, query string, recent bool, maxPages int) (paginate.Result[models.Post], error) {
	return paginate.Walk(ctx, func(ctx context.Context, cursor string) (models.Page[models.Post], error) {
		return c.SearchPage(ctx, query, recent, cursor)
	}, maxPages)
}

// Followers walks up to maxPages of a user's followers
func (c *Client) Followers(ctx context.Context, user string, maxPages int) (paginate.Result[models.User], error) {
	return c.friendships(ctx, docid.Followers, "followers", user, maxPages)
}

// Following walks up to maxPages of the accounts a user follows
func (c *Client) Following(ctx context.Context, user string, maxPages int) (paginate.Result[models.User], error) {
	return c.friendships(ctx, docid.Following, "following", user, maxPages)
}

func (c *Client) friendships(ctx context.Context, q docid.Query, key, user string, maxPages int) (paginate.Result[models.User], error) {
	id, err := c.ResolveUserID(ctx, user)
	if err != nil {
		return paginate.Result[models.User]{}, err
	}
	return c.walkUsers(ctx, q, maxPages, map[string]any{"userID": id}, "fetch__XDTUserDict", key)
}

// PostLikers walks up to maxPages of the accounts that liked a post
func (c *Client) PostLikers(ctx context.Context, ref string, maxPages int) (paginate.Result[models.User], error) {
	pr, err := ParsePostRef(ref)
	if err != nil {
		return paginate.Result[models.User]{}, err
	}
	return c.walkUsers(ctx, docid.PostLikers, maxPages, map[string]any{"mediaID": pr.ID}, "likers")
}

// PostReposters walks up to maxPages of the accounts that reposted a post
func (c *Client) PostReposters(ctx context.Context, ref string, maxPages int) (paginate.Result[models.User], error) {
	pr, err := ParsePostRef(ref)
	if err != nil {
		return paginate.Result[models.User]{}, err
	}
	return c.walkUsers(ctx, docid.PostReposters, maxPages, map[string]any{"mediaID": pr.ID}, "reposters")
}

func (c *Client) walkUsers(ctx context.Context, q docid.Query, maxPages int, vars map[string]any, scope ...string) (paginate.Result[models.User], error) {
	return paginate.Walk(ctx, func(ctx context.Context, cursor string) (models.Page[models.User], error) {
		data, err := c.GraphQL(ctx, q, c.pageVars(cursor, vars))
		if err != nil {
			return models.Page[models.User]{}, err
		}
		return normalize.Users(within(data, scope...)), nil
	}, maxPages)
}

// CurrentUser returns the logged-in account. The web endpoint is tried first;
// unless it rejected the session, the Android API is tried next.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	data, webErr := c.Get(ctx, CurrentUserEndpoint)
	if webErr == nil {
		if u, ok := normalize.User(data); ok {
			c.rememberUser(u)
			return u, nil
		}
	} else if errs.Is(webErr, errs.KindAuth) {
		return nil, webErr
	}

	c.logger.DebugWithFields("falling back to mobile API for current user", map[string]interface{}{
		"web_error": fmt.Sprint(webErr),
	})
	data, err := c.getMobile(ctx, CurrentUserEndpoint)
	if err != nil {
		return nil, err
	}
	u, ok := normalize.User(data)
	if !ok {
		return nil, errs.NewNotFound("current user")
	}
	c.rememberUser(u)
	return u, nil
}

// CurrentUserID returns the logged-in account id, asking the API only when
// the session did not carry one
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	if c.userID != "" {
		return c.userID, nil
	}
	u, err := c.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if u.ID == "" {
		return "", errs.NewNotFound("current user id")
	}
	return u.ID, nil
}

func (c *Client) rememberUser(u *models.User) {
	if u.ID != "" {
		c.userID = u.ID
	}
}

// pageVars copies vars and adds the page size and cursor
func (c *Client) pageVars(cursor string, vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars)+2)
	for k, v := range vars {
		out[k] = v
	}
	out["first"] = c.pageSize
	if cursor != "" {
		out["after"] = cursor
	}
	return out
}

// within descends through the keys that are present as objects
func within(v jsonv.Value, keys ...string) jsonv.Value {
	for _, k := range keys {
		if inner := v.Get(k); inner.IsObject() {
			v = inner
		}
	}
	return v
}
