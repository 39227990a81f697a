package transfer

import "github.com/maheshrc27/postflow-sync/internal/models"

type PlatformRequest struct {
	Platform models.Platform `json:"platform"`
}

type LiveStatusResponse struct {
	Success     bool            `json:"success"`
	Platform    models.Platform `json:"platform"`
	IsConnected bool            `json:"isConnected"`
}

type ConnectionStateResponse struct {
	Success            bool                     `json:"success"`
	ConnectedPlatforms map[models.Platform]bool `json:"connectedPlatforms"`
}

type DisconnectResponse struct {
	Action      string          `json:"action"`
	Version     string          `json:"version"`
	Platform    models.Platform `json:"platform"`
	IsConnected bool            `json:"isConnected"`
}
