package models

type SubscriptionUsage struct {
	SubscriptionPlan string  `json:"subscriptionPlan"`
	TotalAllocation  int     `json:"totalAllocation"`
	RemainingPosts   int     `json:"remainingPosts"`
	UsedPosts        int     `json:"usedPosts"`
	PublishedPosts   int     `json:"publishedPosts"`
	FailedPosts      int     `json:"failedPosts"`
	PartialPosts     int     `json:"partialPosts"`
	UsagePercentage  float64 `json:"usagePercentage"`
}
