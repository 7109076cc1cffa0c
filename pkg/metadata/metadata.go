// Package metadata writes a JSON sidecar next to each downloaded media file.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"threadscli/pkg/models"
	"threadscli/pkg/threads"
)

const sidecarExt = ".json"

// MediaMetadata describes a downloaded file and the post it came from
type MediaMetadata struct {
	PostID   string `json:"post_id"`
	PostCode string `json:"post_code,omitempty"`
	PostURL  string `json:"post_url,omitempty"`
	Owner    Owner  `json:"owner"`

	Type      models.MediaType `json:"type"`
	Index     int              `json:"index"`
	SourceURL string           `json:"source_url"`
	Width     int              `json:"width,omitempty"`
	Height    int              `json:"height,omitempty"`
	FileSize  int64            `json:"file_size,omitempty"`

	Text      string `json:"text,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	LikeCount *int64 `json:"like_count,omitempty"`

	DownloadedAt time.Time `json:"downloaded_at"`
}

// Owner is the post author
type Owner struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
}

// FromPost builds the sidecar for one media item of post
func FromPost(post *models.Post, media models.Media, sourceURL string, fileSize int64) *MediaMetadata {
	meta := &MediaMetadata{
		PostID:       post.ID,
		PostCode:     post.Code,
		Type:         media.Type,
		Index:        media.Index,
		SourceURL:    sourceURL,
		FileSize:     fileSize,
		Text:         post.Text,
		CreatedAt:    post.CreatedAt,
		LikeCount:    post.LikeCount,
		DownloadedAt: time.Now().UTC(),
	}
	if media.Width != nil {
		meta.Width = *media.Width
	}
	if media.Height != nil {
		meta.Height = *media.Height
	}
	if post.Author != nil {
		meta.Owner = Owner{ID: post.Author.ID, Username: post.Author.Username}
		if post.Code != "" && post.Author.Username != "" {
			meta.PostURL = threads.PostURL(post.Author.Username, post.Code)
		}
	}
	return meta
}

// Save writes the metadata to mediaPath + ".json"
func (m *MediaMetadata) Save(mediaPath string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(mediaPath+sidecarExt, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// Load reads the sidecar of mediaPath
func Load(mediaPath string) (*MediaMetadata, error) {
	data, err := os.ReadFile(mediaPath + sidecarExt)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta MediaMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Exists checks if a sidecar exists for mediaPath
func Exists(mediaPath string) bool {
	_, err := os.Stat(mediaPath + sidecarExt)
	return err == nil
}
