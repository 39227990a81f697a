package models

import (
	"time"
)

type PlatformConnection struct {
	Platform    Platform  `json:"platform"`
	Username    string    `json:"username"`
	IsActive    bool      `json:"isActive"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// ConnectionStateView is the reconciled platform to connected mapping.
type ConnectionStateView map[Platform]bool
