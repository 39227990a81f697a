package models

import "time"

type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	RemainingPosts   int       `json:"remainingPosts"`
	TotalPosts       int       `json:"totalPosts"`
	CreatedAt        time.Time `json:"createdAt"`
}

type UserStatus struct {
	Authenticated         bool   `json:"authenticated"`
	HasActiveSubscription bool   `json:"hasActiveSubscription"`
	SubscriptionPlan      string `json:"subscriptionPlan"`
	UserType              string `json:"userType"`
}

type ContactDetails struct {
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

type BrandPurpose struct {
	ID               int64          `json:"id,omitempty"`
	BrandName        string         `json:"brandName" validate:"required,min=2"`
	ProductsServices string         `json:"productsServices" validate:"required"`
	CorePurpose      string         `json:"corePurpose" validate:"required,min=10"`
	Audience         string         `json:"audience" validate:"required"`
	JobToBeDone      string         `json:"jobToBeDone"`
	Motivations      string         `json:"motivations"`
	PainPoints       string         `json:"painPoints"`
	Goals            []string       `json:"goals"`
	ContactDetails   ContactDetails `json:"contactDetails"`
}
