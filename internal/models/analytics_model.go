package models

import "time"

type PlatformMetrics struct {
	Platform    Platform `json:"platform"`
	Posts       int      `json:"posts"`
	Reach       int      `json:"reach"`
	Engagement  int      `json:"engagement"`
	Impressions int      `json:"impressions"`
}

type Analytics struct {
	TotalPosts      int               `json:"totalPosts"`
	TotalReach      int               `json:"totalReach"`
	TotalEngagement int               `json:"totalEngagement"`
	TopPlatform     Platform          `json:"topPlatform"`
	PlatformStats   []PlatformMetrics `json:"platformStats"`
}

// MonitoringSnapshot backs the admin monitoring view.
type MonitoringSnapshot struct {
	ActiveUsers    int               `json:"activeUsers"`
	QueuedPosts    int               `json:"queuedPosts"`
	FailedPosts    int               `json:"failedPosts"`
	PublishedToday int               `json:"publishedToday"`
	PlatformHealth map[Platform]bool `json:"platformHealth"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}

// AIInsights is the summary shown after a strategic generation run.
type AIInsights struct {
	PlatformWeighting map[Platform]int `json:"platformWeighting"`
	Tone              string           `json:"tone"`
	ContentAllocation map[string]int   `json:"contentAllocation"`
	Suggestions       []string         `json:"suggestions"`
}
