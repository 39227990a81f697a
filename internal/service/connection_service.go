package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
	"github.com/maheshrc27/postflow-sync/pkg/utils"
)

// DisconnectProtocolVersion marks a disconnect response whose payload
// describes the platform's new state and can be applied directly.
const DisconnectProtocolVersion = "1.3"

const (
	maxConcurrentProbes = 4
	connectStateTTL     = 15 * time.Minute
)

var ErrUnknownPlatform = errors.New("unknown platform")

type ConnectionAPI interface {
	BaseURL() string
	CheckLiveStatus(ctx context.Context, platform models.Platform) (*transfer.LiveStatusResponse, error)
	ConnectionState(ctx context.Context) (*transfer.ConnectionStateResponse, error)
	DisconnectPlatform(ctx context.Context, platform models.Platform) (*transfer.DisconnectResponse, error)
}

type observationSource string

const (
	sourceBulk       observationSource = "bulk"
	sourceProbe      observationSource = "probe"
	sourceDisconnect observationSource = "disconnect"
)

// observation is one session-derived reading for a platform. stamp is taken
// when the request is issued, so a slow response cannot displace a reading
// from a request sent after it.
type observation struct {
	connected bool
	stamp     uint64
	source    observationSource
}

type ConnectionStatus struct {
	Platform    models.Platform `json:"platform"`
	Connected   bool            `json:"connected"`
	Source      string          `json:"source"`
	Username    string          `json:"username,omitempty"`
	ConnectedAt *time.Time      `json:"connectedAt,omitempty"`
}

type ConnectionService interface {
	Load(ctx context.Context) error
	IsConnected(ctx context.Context, platform models.Platform) bool
	View(ctx context.Context) models.ConnectionStateView
	Statuses(ctx context.Context) []ConnectionStatus
	Disconnect(ctx context.Context, platform models.Platform) error
	ConnectURL(platform models.Platform, userID string) (string, error)
	AwaitConnection(ctx context.Context, platform models.Platform, interval time.Duration) error
}

type connectionService struct {
	api       ConnectionAPI
	cache     Cache
	notifier  notify.Notifier
	logger    *zap.Logger
	secretKey string

	mu      sync.Mutex
	clock   uint64
	session map[models.Platform]observation
}

func NewConnectionService(api ConnectionAPI, c Cache, notifier notify.Notifier, secretKey string, logger *zap.Logger) ConnectionService {
	return &connectionService{
		api:       api,
		cache:     c,
		notifier:  notifier,
		logger:    logger,
		secretKey: secretKey,
		session:   map[models.Platform]observation{},
	}
}

func (s *connectionService) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock++
	return s.clock
}

// observe records a reading unless a fresher one is already held.
func (s *connectionService) observe(p models.Platform, connected bool, stamp uint64, src observationSource) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.session[p]; ok && prev.stamp > stamp {
		return false
	}
	s.session[p] = observation{connected: connected, stamp: stamp, source: src}
	return true
}

// Load reads the persisted list, the bulk live state and one live probe per
// platform. Probes run concurrently and each writes only its own platform.
// A failed source is logged and leaves earlier readings in place.
func (s *connectionService) Load(ctx context.Context) error {
	if _, err := s.persisted(ctx); err != nil {
		s.logger.Warn("Failed to load platform connections", zap.Error(err))
	}

	var wg sync.WaitGroup

	bulkStamp := s.issue()
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := s.api.ConnectionState(ctx)
		if err != nil {
			s.logger.Warn("Bulk connection state check failed", zap.Error(err))
			return
		}
		for p, connected := range resp.ConnectedPlatforms {
			s.observe(p, connected, bulkStamp, sourceBulk)
		}
	}()

	sem := make(chan struct{}, maxConcurrentProbes)
	for _, p := range models.Platforms {
		stamp := s.issue()
		wg.Add(1)
		go func(p models.Platform, stamp uint64) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			s.probe(ctx, p, stamp)
		}(p, stamp)
	}

	wg.Wait()
	return ctx.Err()
}

func (s *connectionService) probe(ctx context.Context, p models.Platform, stamp uint64) (bool, error) {
	resp, err := s.api.CheckLiveStatus(ctx, p)
	if err != nil {
		s.logger.Warn("Live status probe failed", zap.String("platform", string(p)), zap.Error(err))
		return false, err
	}
	if !resp.Success {
		s.logger.Warn("Live status probe unsuccessful", zap.String("platform", string(p)))
		return false, fmt.Errorf("live status for %s: unsuccessful response", p)
	}
	s.observe(p, resp.IsConnected, stamp, sourceProbe)
	return resp.IsConnected, nil
}

func (s *connectionService) persisted(ctx context.Context) ([]models.PlatformConnection, error) {
	return cache.GetJSON[[]models.PlatformConnection](ctx, s.cache, cache.KeyPlatformConnections)
}

// IsConnected prefers the session reading for platform and falls back to an
// active persisted record when the session has never seen it.
func (s *connectionService) IsConnected(ctx context.Context, platform models.Platform) bool {
	s.mu.Lock()
	obs, ok := s.session[platform]
	s.mu.Unlock()
	if ok {
		return obs.connected
	}

	conns, err := s.persisted(ctx)
	if err != nil {
		s.logger.Warn("Falling back without persisted connections", zap.String("platform", string(platform)), zap.Error(err))
		return false
	}
	return activeRecord(conns, platform) != nil
}

func (s *connectionService) View(ctx context.Context) models.ConnectionStateView {
	view := make(models.ConnectionStateView, len(models.Platforms))
	for _, st := range s.Statuses(ctx) {
		view[st.Platform] = st.Connected
	}
	return view
}

func (s *connectionService) Statuses(ctx context.Context) []ConnectionStatus {
	conns, err := s.persisted(ctx)
	if err != nil {
		s.logger.Warn("Failed to load platform connections", zap.Error(err))
	}

	s.mu.Lock()
	session := make(map[models.Platform]observation, len(s.session))
	for p, obs := range s.session {
		session[p] = obs
	}
	s.mu.Unlock()

	statuses := make([]ConnectionStatus, 0, len(models.Platforms))
	for _, p := range models.Platforms {
		st := ConnectionStatus{Platform: p, Source: "persisted"}
		record := activeRecord(conns, p)
		if record != nil {
			st.Connected = true
			st.Username = record.Username
			connectedAt := record.ConnectedAt
			st.ConnectedAt = &connectedAt
		}
		if obs, ok := session[p]; ok {
			st.Connected = obs.connected
			st.Source = string(obs.source)
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func activeRecord(conns []models.PlatformConnection, p models.Platform) *models.PlatformConnection {
	for i := range conns {
		if conns[i].Platform == p && conns[i].IsActive {
			return &conns[i]
		}
	}
	return nil
}

// Disconnect applies the response payload directly when it speaks the
// known protocol version for this platform. Any other shape drops the
// session reading and refetches the connection resources instead.
func (s *connectionService) Disconnect(ctx context.Context, platform models.Platform) error {
	if !platform.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}

	stamp := s.issue()
	resp, err := s.api.DisconnectPlatform(ctx, platform)
	if err != nil {
		s.logger.Error("Failed to disconnect platform", zap.String("platform", string(platform)), zap.Error(err))
		s.notifier.Notify(notify.FromError("Disconnect failed", err))
		return err
	}

	if resp.Version == DisconnectProtocolVersion && resp.Platform == platform {
		s.observe(platform, resp.IsConnected, stamp, sourceDisconnect)
	} else {
		s.logger.Info("Disconnect response not applied directly",
			zap.String("platform", string(platform)),
			zap.String("version", resp.Version),
		)
		s.mu.Lock()
		delete(s.session, platform)
		s.mu.Unlock()
	}

	if err := s.cache.Invalidate(ctx, cache.KeyPlatformConnections, cache.KeyConnectionState); err != nil {
		s.logger.Warn("Connection refresh after disconnect failed", zap.Error(err))
	}

	s.notifier.Notify(notify.Success("Platform disconnected", fmt.Sprintf("%s has been disconnected.", platform)))
	return nil
}

// ConnectURL returns the backend URL that starts the OAuth flow for
// platform. The state parameter is a short-lived token naming the user.
func (s *connectionService) ConnectURL(platform models.Platform, userID string) (string, error) {
	if !platform.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
	state, err := utils.GenerateToken(s.secretKey, userID, connectStateTTL)
	if err != nil {
		return "", fmt.Errorf("signing oauth state: %w", err)
	}

	params := url.Values{}
	params.Add("state", state)

	return fmt.Sprintf("%s/auth/%s?%s", s.api.BaseURL(), platform, params.Encode()), nil
}

// AwaitConnection probes platform every interval until it reports connected
// or ctx ends. Probe errors do not stop the wait.
func (s *connectionService) AwaitConnection(ctx context.Context, platform models.Platform, interval time.Duration) error {
	if !platform.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if connected, err := s.probe(ctx, platform, s.issue()); err == nil && connected {
			if err := s.cache.Invalidate(ctx, cache.KeyPlatformConnections); err != nil {
				s.logger.Warn("Connection refresh after connect failed", zap.Error(err))
			}
			s.notifier.Notify(notify.Success("Platform connected", fmt.Sprintf("%s is now connected.", platform)))
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s connection: %w", platform, ctx.Err())
		case <-ticker.C:
		}
	}
}
