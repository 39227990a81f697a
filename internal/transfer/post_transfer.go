package transfer

import (
	"time"

	"github.com/maheshrc27/postflow-sync/internal/models"
)

type PostUpdate struct {
	Content  string    `json:"content"`
	Edited   bool      `json:"edited"`
	EditedAt time.Time `json:"editedAt"`
}

type ApprovePostRequest struct {
	PostID int64 `json:"postId"`
}

type ApprovePostResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message,omitempty"`
}

type GenerateContentRequest struct {
	BrandPurpose *models.BrandPurpose `json:"brandPurpose"`
	TotalPosts   int                  `json:"totalPosts"`
	Platforms    []models.Platform    `json:"platforms"`
	ResetQuota   bool                 `json:"resetQuota"`
}

type GenerateContentResponse struct {
	SavedCount int `json:"savedCount"`
}

type DirectPublishRequest struct {
	Action string `json:"action"`
}

type DirectPublishResponse struct {
	SuccessCount  int    `json:"successCount"`
	TotalPosts    int    `json:"totalPosts"`
	QuotaExceeded bool   `json:"quotaExceeded"`
	Message       string `json:"message,omitempty"`
}

type GenerateVideoRequest struct {
	PostID   int64           `json:"postId"`
	Prompt   string          `json:"prompt"`
	Style    string          `json:"style"`
	Platform models.Platform `json:"platform"`
	Duration int             `json:"duration"`
}

type ApproveVideoRequest struct {
	PostID  int64  `json:"postId"`
	VideoID string `json:"videoId"`
}
