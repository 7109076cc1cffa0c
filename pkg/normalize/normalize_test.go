package normalize

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"threadscli/pkg/jsonv"
	"threadscli/pkg/models"
)

const samplePost = `{
	"pk": "3258412698746541234",
	"id": "3258412698746541234_63055343223",
	"code": "C0ZmNnTxyz1",
	"caption": {"text": "hello threads"},
	"taken_at": 1700000000,
	"like_count": 42,
	"text_post_app_info": {"direct_reply_count": 3, "repost_count": 1, "quote_count": "7"},
	"user": {"pk": 63055343223, "username": "zuck", "is_verified": true},
	"image_versions2": {"candidates": [
		{"url": "https://cdn.example/big.jpg", "width": 1080, "height": 1350},
		{"url": "https://cdn.example/small.jpg", "width": 320, "height": 400}
	]}
}`

func TestPostRootShapesAreEquivalent(t *testing.T) {
	shapes := map[string]string{
		"post":              `{"post": %s}`,
		"thread":            `{"thread": %s}`,
		"data.post":         `{"data": {"post": %s}}`,
		"containing_thread": `{"containing_thread": {"thread_items": [{"post": %s}]}}`,
		"thread_items":      `{"thread_items": [{"post": %s}]}`,
		"payload":           `%s`,
	}

	want, ok := Post(jsonv.MustParse(samplePost))
	require.True(t, ok)

	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			got, ok := Post(jsonv.MustParse(fmt.Sprintf(shape, samplePost)))
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestPostFields(t *testing.T) {
	p, ok := Post(jsonv.MustParse(samplePost))
	require.True(t, ok)

	assert.Equal(t, "3258412698746541234", p.ID, "pk wins over id")
	assert.Equal(t, "C0ZmNnTxyz1", p.Code)
	assert.Equal(t, "hello threads", p.Text)
	assert.Equal(t, "2023-11-14T22:13:20Z", p.CreatedAt)
	require.NotNil(t, p.LikeCount)
	assert.Equal(t, int64(42), *p.LikeCount)
	require.NotNil(t, p.ReplyCount)
	assert.Equal(t, int64(3), *p.ReplyCount)
	require.NotNil(t, p.RepostCount)
	assert.Equal(t, int64(1), *p.RepostCount)
	assert.Nil(t, p.QuoteCount, "string counts are ignored")

	require.NotNil(t, p.Author)
	assert.Equal(t, "63055343223", p.Author.ID)
	assert.Equal(t, "zuck", p.Author.Username)
	assert.True(t, p.Author.Verified)

	require.Len(t, p.Media, 1)
	assert.Equal(t, models.MediaImage, p.Media[0].Type)
	assert.Equal(t, "https://cdn.example/big.jpg", p.Media[0].URL)
	assert.Equal(t, "https://cdn.example/small.jpg", p.Media[0].ThumbnailURL)
	require.NotNil(t, p.Media[0].Width)
	assert.Equal(t, 1080, *p.Media[0].Width)
	require.NotNil(t, p.Raw)
}

func TestPostRequiresID(t *testing.T) {
	for _, in := range []string{
		`{}`,
		`{"post": {"code": "abc", "caption": {"text": "no id"}}}`,
		`{"pk": ""}`,
		`[]`,
		`"string"`,
	} {
		_, ok := Post(jsonv.MustParse(in))
		assert.False(t, ok, in)
	}
}

func TestPostFallbacks(t *testing.T) {
	p, ok := Post(jsonv.MustParse(`{"id": "9", "text": "top-level text", "owner": {"username": "owner_only"}}`))
	require.True(t, ok)
	assert.Equal(t, "9", p.ID)
	assert.Equal(t, "top-level text", p.Text)
	require.NotNil(t, p.Author)
	assert.Equal(t, "owner_only", p.Author.Username)
	assert.Nil(t, p.Media)

	p, ok = Post(jsonv.MustParse(`{"pk": 10, "caption": "plain caption", "user": {}}`))
	require.True(t, ok)
	assert.Equal(t, "10", p.ID)
	assert.Equal(t, "plain caption", p.Text)
	assert.Nil(t, p.Author, "unidentifiable author is dropped")
}

func TestTimestamp(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return fixed }

	assert.Equal(t, "2023-11-14T22:13:20Z", Timestamp(jsonv.MustParse(`1700000000`), now))
	assert.Equal(t, "2024-05-01T10:00:00+02:00", Timestamp(jsonv.MustParse(`"2024-05-01T10:00:00+02:00"`), now))
	assert.Equal(t, "2025-03-01T12:00:00Z", Timestamp(jsonv.Value{}, now))
	assert.Equal(t, "2025-03-01T12:00:00Z", Timestamp(jsonv.MustParse(`{"seconds": 1}`), now))

	p, ok := postAt(jsonv.MustParse(`{"pk": "1", "takenAt": 1700000000}`), now)
	require.True(t, ok)
	assert.Equal(t, "2023-11-14T22:13:20Z", p.CreatedAt)

	p, ok = postAt(jsonv.MustParse(`{"pk": "1"}`), now)
	require.True(t, ok)
	assert.Equal(t, "2025-03-01T12:00:00Z", p.CreatedAt)
}

func TestQuotedPost(t *testing.T) {
	p, ok := Post(jsonv.MustParse(`{
		"pk": "1",
		"text_post_app_info": {"share_info": {"quoted_post": {
			"pk": "2", "caption": {"text": "original"}, "taken_at": 1700000000,
			"text_post_app_info": {"share_info": {"quoted_post": {"pk": "3"}}}
		}}}
	}`))
	require.True(t, ok)
	require.NotNil(t, p.QuotedPost)
	assert.Equal(t, "2", p.QuotedPost.ID)
	assert.Equal(t, "original", p.QuotedPost.Text)
	assert.Nil(t, p.QuotedPost.QuotedPost, "quotes are normalized one level deep")
}

func TestCarouselMedia(t *testing.T) {
	p, ok := Post(jsonv.MustParse(`{
		"pk": "1",
		"image_versions2": {"candidates": [{"url": "https://cdn.example/cover.jpg"}]},
		"carousel_media": [
			{"media_type": 1, "image_versions2": {"candidates": [{"url": "https://cdn.example/1.jpg"}]}},
			{"media_type": 2,
			 "image_versions2": {"candidates": [{"url": "https://cdn.example/2.jpg"}]},
			 "video_versions": [{"url": "https://cdn.example/2.mp4"}]},
			{"media_type": 1, "image_versions2": {"candidates": []}},
			{"media_type": 8, "image_versions2": {"candidates": [{"url": "https://cdn.example/4.jpg"}]}}
		]
	}`))
	require.True(t, ok)
	require.Len(t, p.Media, 3)

	assert.Equal(t, models.Media{Type: models.MediaImage, URL: "https://cdn.example/1.jpg", Index: 0}, p.Media[0])
	assert.Equal(t, models.Media{
		Type:     models.MediaVideo,
		URL:      "https://cdn.example/2.jpg",
		VideoURL: "https://cdn.example/2.mp4",
		Index:    1,
	}, p.Media[1])
	assert.Equal(t, models.MediaImage, p.Media[2].Type)
	assert.Equal(t, 3, p.Media[2].Index)
}

func TestSingleVideoMedia(t *testing.T) {
	media := Media(jsonv.MustParse(`{
		"media_type": 2,
		"image_versions2": {"candidates": [{"url": "https://cdn.example/still.jpg"}]},
		"video_versions": [{"url": "https://cdn.example/clip.mp4"}]
	}`))
	require.Len(t, media, 1)
	assert.Equal(t, models.MediaVideo, media[0].Type)
	assert.Equal(t, "https://cdn.example/clip.mp4", media[0].VideoURL)

	assert.Nil(t, Media(jsonv.MustParse(`{"video_versions": [{"url": "https://cdn.example/clip.mp4"}]}`)))
}

func TestUserRoots(t *testing.T) {
	const u = `{"pk": "314216", "username": "zuck", "full_name": "Mark", "follower_count": 100}`
	for _, shape := range []string{`{"user": %s}`, `{"data": {"user": %s}}`, `{"userData": {"user": %s}}`, `%s`} {
		got, ok := User(jsonv.MustParse(fmt.Sprintf(shape, u)))
		require.True(t, ok, shape)
		assert.Equal(t, "314216", got.ID)
		assert.Equal(t, "Mark", got.DisplayName)
	}
}

func TestUserFieldAliases(t *testing.T) {
	got, ok := User(jsonv.MustParse(`{
		"id": "1", "username": "snake", "fullName": "Camel", "bio": "camel bio",
		"profilePicUrl": "https://cdn.example/a.jpg",
		"followerCount": 5, "followingCount": "6", "mediaCount": 7,
		"isVerified": true, "isPrivate": true,
		"bioLinks": [{"url": "https://a.example"}, {"title": "no url"}]
	}`))
	require.True(t, ok)
	assert.Equal(t, "Camel", got.DisplayName)
	assert.Equal(t, "camel bio", got.Bio)
	assert.Equal(t, "https://cdn.example/a.jpg", got.AvatarURL)
	require.NotNil(t, got.FollowerCount)
	assert.Equal(t, int64(5), *got.FollowerCount)
	assert.Nil(t, got.FollowingCount)
	require.NotNil(t, got.PostCount)
	assert.Equal(t, int64(7), *got.PostCount)
	assert.True(t, got.Verified)
	assert.True(t, got.Private)
	assert.Equal(t, []string{"https://a.example"}, got.Links)

	got, ok = User(jsonv.MustParse(`{"full_name": "Snake", "fullName": "Camel", "username": "u"}`))
	require.True(t, ok)
	assert.Equal(t, "Snake", got.DisplayName, "snake_case wins")
}

func TestUserIdentification(t *testing.T) {
	_, ok := User(jsonv.MustParse(`{"full_name": "Nobody"}`))
	assert.False(t, ok)

	got, ok := User(jsonv.MustParse(`{"username": "only_name"}`))
	require.True(t, ok)
	assert.Empty(t, got.ID)
}

func TestPostsContainers(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"threads", `{"threads": [{"thread_items": [{"post": {"pk": "1"}}]}, {"post": {"pk": "2"}}]}`},
		{"items", `{"items": [{"pk": "1"}, {"pk": "2"}]}`},
		{"edges", `{"edges": [{"node": {"thread_items": [{"post": {"pk": "1"}}]}}, {"node": {"post": {"pk": "2"}}}]}`},
		{"thread_items", `{"thread_items": [{"post": {"pk": "1"}}, {"post": {"pk": "2"}}]}`},
		{"data.threads", `{"data": {"threads": [{"thread": {"pk": "1"}}, {"thread": {"pk": "2"}}]}}`},
		{"mediaData.threads", `{"mediaData": {"threads": [{"post": {"pk": "1"}}, {"post": {"pk": "2"}}]}}`},
		{"mediaData.edges", `{"mediaData": {"edges": [{"node": {"thread_items": [{"post": {"pk": "1"}}]}}, {"node": {"thread_items": [{"post": {"pk": "2"}}]}}]}}`},
		{"feedData.edges", `{"feedData": {"edges": [{"node": {"post": {"pk": "1"}}}, {"node": {"post": {"pk": "2"}}}]}}`},
		{"searchResults.edges", `{"searchResults": {"edges": [{"node": {"thread": {"thread_items": [{"post": {"pk": "1"}}]}}}, {"node": {"pk": "2"}}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Posts(jsonv.MustParse(tt.payload))
			require.Len(t, page.Items, 2)
			assert.Equal(t, "1", page.Items[0].ID)
			assert.Equal(t, "2", page.Items[1].ID)
		})
	}
}

func TestPostsKeepsAuthorOfBarePosts(t *testing.T) {
	page := Posts(jsonv.MustParse(`{"items": [{"pk": "1", "user": {"pk": "99", "username": "author"}}]}`))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "1", page.Items[0].ID)
	assert.Equal(t, "author", page.Items[0].Author.Username)
}

func TestPostsDropsUnidentifiable(t *testing.T) {
	page := Posts(jsonv.MustParse(`{"threads": [{"post": {"pk": "1"}}, {"post": {"caption": "x"}}, 7, null, {"post": {"pk": "3"}}]}`))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "3", page.Items[1].ID)

	assert.Empty(t, Posts(jsonv.MustParse(`{"status": "ok"}`)).Items)
}

func TestUsersContainers(t *testing.T) {
	for _, payload := range []string{
		`{"users": [{"pk": "1", "username": "a"}, {"username": "b"}]}`,
		`{"edges": [{"node": {"pk": "1", "username": "a"}}, {"node": {"username": "b"}}]}`,
		`{"items": [{"user": {"pk": "1", "username": "a"}}, {"user": {"username": "b"}}, {"full_name": "dropped"}]}`,
	} {
		page := Users(jsonv.MustParse(payload))
		require.Len(t, page.Items, 2, payload)
		assert.Equal(t, "a", page.Items[0].Username)
		assert.Equal(t, "b", page.Items[1].Username)
	}
}

func TestCursor(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"page_info", `{"page_info": {"end_cursor": "c1", "has_next_page": true}, "next_cursor": "c2"}`, "c1"},
		{"next_cursor", `{"next_cursor": "c2", "next_max_id": "c3"}`, "c2"},
		{"next_max_id", `{"next_max_id": "c3"}`, "c3"},
		{"numeric next_max_id", `{"next_max_id": 12345}`, "12345"},
		{"paging_tokens", `{"paging_tokens": {"downward": "c4"}}`, "c4"},
		{"no more pages", `{"page_info": {"end_cursor": "c1", "has_next_page": false}, "next_cursor": "c2"}`, ""},
		{"nested mediaData", `{"mediaData": {"page_info": {"end_cursor": "m1"}}}`, "m1"},
		{"nested data", `{"data": {"next_cursor": "d1"}}`, "d1"},
		{"absent", `{"threads": []}`, ""},
		{"empty strings", `{"next_cursor": "", "page_info": {"end_cursor": ""}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cursor(jsonv.MustParse(tt.payload)))
		})
	}
}

func TestNeverPanics(t *testing.T) {
	for _, in := range []string{`null`, `true`, `1`, `"x"`, `[]`, `[{"post": null}]`, `{"threads": {"not": "array"}}`, `{"carousel_media": "x", "pk": "1"}`} {
		v := jsonv.MustParse(in)
		assert.NotPanics(t, func() {
			Post(v)
			User(v)
			Posts(v)
			Users(v)
			Cursor(v)
		}, in)
	}
}
