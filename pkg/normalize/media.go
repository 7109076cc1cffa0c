package normalize

import (
	"threadscli/pkg/jsonv"
	"threadscli/pkg/models"
)

const mediaTypeVideo = 2

var carouselRoots = []extractor{
	path("carousel_media"),
	path("carouselMedia"),
}

// Media extracts the ordered media attachments of a post object
func Media(obj jsonv.Value) []models.Media {
	if items, ok := firstArray(obj, carouselRoots); ok && len(items) > 0 {
		var out []models.Media
		for i, item := range items {
			if m, ok := mediaItem(item, i); ok {
				out = append(out, m)
			}
		}
		return out
	}

	if m, ok := mediaItem(obj, 0); ok {
		return []models.Media{m}
	}
	return nil
}

// mediaItem reads one image candidate list and an optional video list. A
// video keeps its still image as the primary URL.
func mediaItem(item jsonv.Value, index int) (models.Media, bool) {
	candidates := item.Path("image_versions2", "candidates")
	first := candidates.Index(0)
	url := str(first, "url")
	if url == "" {
		return models.Media{}, false
	}

	m := models.Media{
		Type:   models.MediaImage,
		URL:    url,
		Width:  dimension(first, "width"),
		Height: dimension(first, "height"),
		Index:  index,
	}
	if mt, ok := item.Get("media_type").Int(); ok && mt == mediaTypeVideo {
		m.Type = models.MediaVideo
	}
	if n := candidates.Len(); n > 1 {
		m.ThumbnailURL = str(candidates.Index(n-1), "url")
	}
	if video := str(item.Path("video_versions", 0), "url"); video != "" {
		m.VideoURL = video
	}
	return m, true
}

func dimension(v jsonv.Value, key string) *int {
	n, ok := v.Get(key).Int()
	if !ok || n <= 0 {
		return nil
	}
	d := int(n)
	return &d
}
