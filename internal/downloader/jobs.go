package downloader

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"threadscli/pkg/models"
)

var knownExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true,
	".mp4": true, ".mov": true,
}

// JobsForPost returns one job per media item of post, including its quoted
// post. Videos are fetched from their video URL when one is known.
func JobsForPost(post *models.Post) []Job {
	if post == nil {
		return nil
	}
	key := post.Code
	if key == "" {
		key = post.ID
	}

	var jobs []Job
	for _, m := range post.Media {
		src := m.URL
		if m.Type == models.MediaVideo && m.VideoURL != "" {
			src = m.VideoURL
		}
		if src == "" {
			continue
		}
		jobs = append(jobs, Job{
			URL:   src,
			Name:  fmt.Sprintf("%s_%02d%s", key, m.Index, extension(src, m.Type)),
			Post:  post,
			Media: m,
		})
	}
	return append(jobs, JobsForPost(post.QuotedPost)...)
}

// extension picks the file extension from the URL path, falling back on the media type
func extension(raw string, t models.MediaType) string {
	if u, err := url.Parse(raw); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); knownExts[ext] {
			return ext
		}
	}
	if t == models.MediaVideo {
		return ".mp4"
	}
	return ".jpg"
}

// Dedupe drops jobs whose file name was already seen, keeping the first
func Dedupe(jobs []Job) []Job {
	seen := make(map[string]bool, len(jobs))
	out := jobs[:0]
	for _, j := range jobs {
		if seen[j.Name] {
			continue
		}
		seen[j.Name] = true
		out = append(out, j)
	}
	return out
}
