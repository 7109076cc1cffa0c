package normalize

import (
	"threadscli/pkg/jsonv"
	"threadscli/pkg/models"
)

var userRoots = []extractor{
	path("user"),
	path("data", "user"),
	path("userData", "user"),
	self,
}

// User extracts a profile from any known user payload shape, trying each
// root in order
func User(payload jsonv.Value) (*models.User, bool) {
	for _, root := range userRoots {
		if u, ok := userFromObject(root(payload)); ok {
			return u, true
		}
	}
	return nil, false
}

// userFromObject reads the fields of an object already known to be a user.
// A user is identified by its id or its username.
func userFromObject(obj jsonv.Value) (*models.User, bool) {
	if !obj.IsObject() {
		return nil, false
	}

	u := &models.User{
		ID:             text(obj, "pk", "id", "pk_id"),
		Username:       str(obj, "username"),
		DisplayName:    str(obj, "full_name", "fullName"),
		Bio:            str(obj, "biography", "bio"),
		AvatarURL:      str(obj, "profile_pic_url", "profilePicUrl"),
		FollowerCount:  count(obj, path("follower_count"), path("followerCount")),
		FollowingCount: count(obj, path("following_count"), path("followingCount")),
		PostCount:      count(obj, path("media_count"), path("mediaCount")),
		Verified:       flag(obj, "is_verified", "isVerified"),
		Private:        flag(obj, "is_private", "isPrivate"),
		Links:          bioLinks(obj),
		Raw:            rawRef(obj),
	}
	if u.ID == "" && u.Username == "" {
		return nil, false
	}
	return u, true
}

func bioLinks(obj jsonv.Value) []string {
	links, ok := firstArray(obj, []extractor{path("bio_links"), path("bioLinks")})
	if !ok {
		return nil
	}
	var out []string
	for _, l := range links {
		if url := str(l, "url"); url != "" {
			out = append(out, url)
		}
	}
	return out
}
