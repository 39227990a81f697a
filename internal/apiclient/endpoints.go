package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

const (
	PathUser                = "/api/user"
	PathUserStatus          = "/api/user-status"
	PathBrandPurpose        = "/api/brand-purpose"
	PathPosts               = "/api/posts"
	PathAnalytics           = "/api/analytics"
	PathSubscriptionUsage   = "/api/subscription-usage"
	PathPlatformConnections = "/api/platform-connections"
	PathConnectionState     = "/api/get-connection-state"
	PathAdminMonitoring     = "/api/admin/monitoring"

	PathCheckLiveStatus    = "/api/check-live-status"
	PathApprovePost        = "/api/approve-post"
	PathGenerateContent    = "/api/generate-strategic-content"
	PathDirectPublish      = "/api/direct-publish"
	PathDisconnectPlatform = "/api/disconnect-platform"
	PathRedeemGift         = "/api/redeem-gift-certificate"
	PathGenerateVideo      = "/api/generate-video"
	PathApproveVideo       = "/api/approve-video"
	PathVideos             = "/api/videos"
)

const PublishActionAll = "publish_all"

func (c *Client) UpdatePost(ctx context.Context, postID int64, update transfer.PostUpdate) (*models.Post, error) {
	var post models.Post
	path := fmt.Sprintf("%s/%d", PathPosts, postID)
	if err := c.sendJSON(ctx, http.MethodPut, path, update, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) ApprovePost(ctx context.Context, postID int64) (*transfer.ApprovePostResponse, error) {
	var resp transfer.ApprovePostResponse
	if err := c.sendJSON(ctx, http.MethodPost, PathApprovePost, transfer.ApprovePostRequest{PostID: postID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GenerateContent(ctx context.Context, req transfer.GenerateContentRequest) (*transfer.GenerateContentResponse, error) {
	var resp transfer.GenerateContentResponse
	if err := c.sendJSON(ctx, http.MethodPost, PathGenerateContent, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DirectPublish publishes every approved post. A quota refusal comes back
// as ErrQuotaExceeded carrying the backend's message, whatever the status.
func (c *Client) DirectPublish(ctx context.Context) (*transfer.DirectPublishResponse, error) {
	var resp transfer.DirectPublishResponse
	err := c.sendJSON(ctx, http.MethodPost, PathDirectPublish, transfer.DirectPublishRequest{Action: PublishActionAll}, &resp)
	if apiErr, ok := AsAPIError(err); ok {
		if decode(apiErr.Body, &resp) != nil || !resp.QuotaExceeded {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if resp.QuotaExceeded {
		return &resp, fmt.Errorf("%s: %w", resp.Message, ErrQuotaExceeded)
	}
	return &resp, nil
}

func (c *Client) CheckLiveStatus(ctx context.Context, platform models.Platform) (*transfer.LiveStatusResponse, error) {
	var resp transfer.LiveStatusResponse
	if err := c.sendJSON(ctx, http.MethodPost, PathCheckLiveStatus, transfer.PlatformRequest{Platform: platform}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ConnectionState(ctx context.Context) (*transfer.ConnectionStateResponse, error) {
	var resp transfer.ConnectionStateResponse
	if err := c.getJSON(ctx, PathConnectionState, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DisconnectPlatform(ctx context.Context, platform models.Platform) (*transfer.DisconnectResponse, error) {
	var resp transfer.DisconnectResponse
	if err := c.sendJSON(ctx, http.MethodPost, PathDisconnectPlatform, transfer.PlatformRequest{Platform: platform}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RedeemGiftCertificate(ctx context.Context, req transfer.GiftCertificateRedemption) (*transfer.GiftCertificateResponse, error) {
	var resp transfer.GiftCertificateResponse
	if err := c.sendJSON(ctx, http.MethodPost, PathRedeemGift, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SaveBrandPurpose(ctx context.Context, bp models.BrandPurpose) (*models.BrandPurpose, error) {
	var saved models.BrandPurpose
	if err := c.sendJSON(ctx, http.MethodPost, PathBrandPurpose, bp, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *Client) GenerateVideo(ctx context.Context, req transfer.GenerateVideoRequest) (*models.GeneratedVideo, error) {
	var video models.GeneratedVideo
	if err := c.sendJSON(ctx, http.MethodPost, PathGenerateVideo, req, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

func (c *Client) GetVideo(ctx context.Context, videoID string) (*models.GeneratedVideo, error) {
	var video models.GeneratedVideo
	if err := c.getJSON(ctx, PathVideos+"/"+url.PathEscape(videoID), &video); err != nil {
		return nil, err
	}
	return &video, nil
}

func (c *Client) ApproveVideo(ctx context.Context, req transfer.ApproveVideoRequest) error {
	return c.sendJSON(ctx, http.MethodPost, PathApproveVideo, req, nil)
}

// IsNotFound reports whether err is the backend saying the resource is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
