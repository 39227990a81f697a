package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/apiclient"
	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

// DefaultTotalPosts is used when neither the caller nor the usage snapshot
// gives a post count.
const DefaultTotalPosts = 52

// ConvergenceWaves are the offsets at which the keys touched by a
// generation run are invalidated again.
var ConvergenceWaves = []time.Duration{0, time.Second, 3 * time.Second}

// ConvergenceKeys are the resources a generation run mutates on the server.
var ConvergenceKeys = []cache.Key{
	cache.KeyPosts,
	cache.KeySubscriptionUsage,
	cache.KeyUser,
	cache.KeyUserStatus,
}

type GenerationAPI interface {
	GenerateContent(ctx context.Context, req transfer.GenerateContentRequest) (*transfer.GenerateContentResponse, error)
}

type GenerateOptions struct {
	TotalPosts int               `json:"totalPosts"`
	Platforms  []models.Platform `json:"platforms"`
	ResetQuota bool              `json:"resetQuota"`
}

type GenerationResult struct {
	SavedCount int                `json:"savedCount"`
	Insights   *models.AIInsights `json:"insights"`
}

type GenerationService interface {
	Generate(ctx context.Context, opts GenerateOptions) (*GenerationResult, error)
	Insights() (*models.AIInsights, bool)
	Close()
}

type generationService struct {
	api      GenerationAPI
	cache    Cache
	notifier notify.Notifier
	logger   *zap.Logger
	waves    []time.Duration

	lifetime context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu        sync.Mutex
	insights  *models.AIInsights
	generated bool
}

func NewGenerationService(api GenerationAPI, c Cache, notifier notify.Notifier, logger *zap.Logger) GenerationService {
	return newGenerationService(api, c, notifier, logger, ConvergenceWaves)
}

func newGenerationService(api GenerationAPI, c Cache, notifier notify.Notifier, logger *zap.Logger, waves []time.Duration) *generationService {
	lifetime, cancel := context.WithCancel(context.Background())
	return &generationService{
		api:      api,
		cache:    c,
		notifier: notifier,
		logger:   logger,
		waves:    waves,
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// uniquePlatforms rejects unknown platforms and drops repeats, keeping the
// first occurrence order.
func uniquePlatforms(in []models.Platform) ([]models.Platform, error) {
	seen := make(map[models.Platform]bool, len(in))
	out := make([]models.Platform, 0, len(in))
	for _, p := range in {
		if !p.Valid() {
			return nil, &apiclient.ValidationError{Fields: map[string]string{
				"platforms": fmt.Sprintf("unknown platform %q", p),
			}}
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}

func (s *generationService) Generate(ctx context.Context, opts GenerateOptions) (*GenerationResult, error) {
	platforms, err := uniquePlatforms(opts.Platforms)
	if err != nil {
		s.notifier.Notify(notify.FromError("Check the selected platforms", err))
		return nil, err
	}
	opts.Platforms = platforms

	bp, err := cache.GetJSON[*models.BrandPurpose](ctx, s.cache, cache.KeyBrandPurpose)
	if err != nil && !errors.Is(err, apiclient.ErrNotFound) {
		s.notifier.Notify(notify.FromError("Could not load brand purpose", err))
		return nil, err
	}
	if bp == nil || bp.BrandName == "" {
		err := fmt.Errorf("generating content: %w", apiclient.ErrBrandPurposeMissing)
		s.notifier.Notify(notify.FromError("Set up your brand purpose first", err))
		return nil, err
	}

	if opts.TotalPosts <= 0 {
		opts.TotalPosts = s.defaultTotal(ctx)
	}
	if len(opts.Platforms) == 0 {
		opts.Platforms = models.Platforms
	}

	resp, err := s.api.GenerateContent(ctx, transfer.GenerateContentRequest{
		BrandPurpose: bp,
		TotalPosts:   opts.TotalPosts,
		Platforms:    opts.Platforms,
		ResetQuota:   opts.ResetQuota,
	})
	if err != nil {
		s.logger.Error("Strategic content generation failed", zap.Error(err))
		s.notifier.Notify(notify.FromError("Content generation failed", err))
		return nil, err
	}

	insights := buildInsights(bp, opts.Platforms, resp.SavedCount)

	s.mu.Lock()
	s.insights = insights
	s.generated = true
	s.mu.Unlock()

	s.logger.Info("Strategic content generated", zap.Int("saved_count", resp.SavedCount))
	s.notifier.Notify(notify.Success("Content generated", fmt.Sprintf("%d posts were added to your calendar.", resp.SavedCount)))

	s.converge(ctx)

	return &GenerationResult{SavedCount: resp.SavedCount, Insights: insights}, nil
}

func (s *generationService) Insights() (*models.AIInsights, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insights, s.generated
}

// Close cancels pending convergence waves and waits for them to return.
func (s *generationService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *generationService) defaultTotal(ctx context.Context) int {
	usage, err := cache.GetJSON[*models.SubscriptionUsage](ctx, s.cache, cache.KeySubscriptionUsage)
	if err != nil || usage == nil || usage.TotalAllocation <= 0 {
		return DefaultTotalPosts
	}
	return usage.TotalAllocation
}

// converge runs the first wave inline and the remaining ones on a goroutine
// bound to the service lifetime, not to the request.
func (s *generationService) converge(ctx context.Context) {
	start := 0
	if len(s.waves) > 0 && s.waves[0] == 0 {
		s.invalidateWave(ctx, 0)
		start = 1
	}
	if start >= len(s.waves) {
		return
	}

	pending := s.waves[start:]
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		begin := time.Now()
		for i, offset := range pending {
			timer := time.NewTimer(offset - time.Since(begin))
			select {
			case <-s.lifetime.Done():
				timer.Stop()
				s.logger.Debug("Convergence cancelled", zap.Int("remaining_waves", len(pending)-i))
				return
			case <-timer.C:
			}
			s.invalidateWave(s.lifetime, start+i)
		}
	}()
}

func (s *generationService) invalidateWave(ctx context.Context, wave int) {
	if err := s.cache.Invalidate(ctx, ConvergenceKeys...); err != nil {
		s.logger.Warn("Convergence refresh failed", zap.Int("wave", wave), zap.Error(err))
	}
}

// buildInsights derives the summary shown after generation. The values are
// computed on the client from the request, not returned by the server.
func buildInsights(bp *models.BrandPurpose, platforms []models.Platform, saved int) *models.AIInsights {
	weights := map[models.Platform]int{
		models.PlatformFacebook:  25,
		models.PlatformInstagram: 25,
		models.PlatformLinkedIn:  20,
		models.PlatformX:         10,
		models.PlatformYouTube:   10,
		models.PlatformTikTok:    10,
	}

	weighting := make(map[models.Platform]int, len(platforms))
	total := 0
	for _, p := range platforms {
		weighting[p] = weights[p]
		total += weights[p]
	}
	if total > 0 {
		// normalise to 100, giving rounding leftovers to the heaviest platform
		sum := 0
		var heaviest models.Platform
		for _, p := range platforms {
			weighting[p] = weighting[p] * 100 / total
			sum += weighting[p]
			if heaviest == "" || weighting[p] > weighting[heaviest] {
				heaviest = p
			}
		}
		weighting[heaviest] += 100 - sum
	}

	tone := "professional and helpful"
	if bp.Audience != "" {
		tone = "professional and helpful, written for " + bp.Audience
	}

	suggestions := []string{
		fmt.Sprintf("Review and approve the %d generated posts before they go live.", saved),
		fmt.Sprintf("Lead with %s's core purpose in the first week of posts.", bp.BrandName),
	}
	if len(bp.Goals) > 0 {
		goals := append([]string(nil), bp.Goals...)
		sort.Strings(goals)
		suggestions = append(suggestions, "Track progress against your goal: "+goals[0]+".")
	}
	if bp.PainPoints != "" {
		suggestions = append(suggestions, "Address customer pain points directly in educational posts.")
	}

	return &models.AIInsights{
		PlatformWeighting: weighting,
		Tone:              tone,
		ContentAllocation: map[string]int{
			"educational":   40,
			"promotional":   30,
			"engagement":    20,
			"behind_scenes": 10,
		},
		Suggestions: suggestions,
	}
}
