package httpapi

import (
	"time"

	"ContentCurator/internal/domain"
)

type listResponse struct {
	Kind  domain.Kind    `json:"kind"`
	Items []itemResponse `json:"items"`
}

type itemResponse struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Language     string    `json:"language,omitempty"`
	SourceName   string    `json:"source_name,omitempty"`
	Score        int       `json:"score"`
	Status       string    `json:"status"`
	MediaType    string    `json:"media_type,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	EmbedURL     string    `json:"embed_url,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
}

func toItemResponse(item domain.ContentItem) itemResponse {
	return itemResponse{
		ID:           item.ID,
		URL:          item.NaturalKey,
		Title:        item.Title,
		Description:  item.Description,
		Language:     item.Language,
		SourceName:   item.SourceName,
		Score:        item.Score,
		Status:       string(item.Status),
		MediaType:    string(item.MediaType),
		ImageURL:     item.ImageURL,
		ThumbnailURL: item.ThumbnailURL,
		EmbedURL:     item.EmbedURL,
		Width:        item.Width,
		Height:       item.Height,
		PublishedAt:  item.PublishedAt,
	}
}
