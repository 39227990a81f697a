package models

import "time"

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformX         Platform = "x"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
)

// Platforms lists every platform the client knows about, in display order.
var Platforms = []Platform{
	PlatformFacebook,
	PlatformInstagram,
	PlatformLinkedIn,
	PlatformX,
	PlatformYouTube,
	PlatformTikTok,
}

func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusApproved  PostStatus = "approved"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
	PostStatusPartial   PostStatus = "partial"
)

// Terminal reports whether the server will no longer move the post.
func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed
}

type Post struct {
	ID               int64      `json:"id"`
	Platform         Platform   `json:"platform"`
	Content          string     `json:"content"`
	Status           PostStatus `json:"status"`
	ScheduledFor     *time.Time `json:"scheduledFor"`
	PublishedAt      *time.Time `json:"publishedAt,omitempty"`
	ErrorLog         *string    `json:"errorLog,omitempty"`
	AIRecommendation string     `json:"aiRecommendation,omitempty"`
	AIScore          float64    `json:"aiScore,omitempty"`
	Theme            string     `json:"theme,omitempty"`
	Video            *PostVideo `json:"video,omitempty"`
	Edited           bool       `json:"edited"`
	EditedAt         *time.Time `json:"editedAt,omitempty"`
}

type PostVideo struct {
	HasVideo      bool           `json:"hasVideo"`
	VideoApproved bool           `json:"videoApproved"`
	VideoData     map[string]any `json:"videoData,omitempty"`
	ApprovedAt    *time.Time     `json:"approvedAt,omitempty"`
}

type VideoStatus string

const (
	VideoStatusGenerating VideoStatus = "generating"
	VideoStatusReady      VideoStatus = "ready"
	VideoStatusFailed     VideoStatus = "failed"
)

type GeneratedVideo struct {
	ID        string      `json:"id"`
	URL       string      `json:"url"`
	Thumbnail string      `json:"thumbnail"`
	Title     string      `json:"title"`
	Status    VideoStatus `json:"status"`
	Platform  Platform    `json:"platform"`
	Style     string      `json:"style"`
	Duration  int         `json:"duration"`
	CreatedAt time.Time   `json:"createdAt"`
}

type MediaAsset struct {
	Key      string `json:"key"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
	FileURL  string `json:"fileUrl"`
}
