package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

var (
	ErrApprovalInFlight = errors.New("approval already in progress for this post")
	ErrNoEditInProgress = errors.New("post is not being edited")
	ErrSaveInFlight     = errors.New("edit is already being saved")
)

type PostAPI interface {
	UpdatePost(ctx context.Context, postID int64, update transfer.PostUpdate) (*models.Post, error)
	ApprovePost(ctx context.Context, postID int64) (*transfer.ApprovePostResponse, error)
}

// EditBuffer is the scoped text buffer behind an open edit dialog.
type EditBuffer struct {
	PostID   int64  `json:"postId"`
	Original string `json:"original"`
	Draft    string `json:"draft"`
	Saving   bool   `json:"saving"`
	Error    string `json:"error,omitempty"`
}

type ApprovalResult struct {
	PostID int64 `json:"postId"`
	Queued bool  `json:"queued"`
}

// PostState is a post's server status overlaid with what the client is
// doing to it right now.
type PostState struct {
	Post          models.Post `json:"post"`
	Editing       bool        `json:"editing"`
	Approving     bool        `json:"approving"`
	Approved      bool        `json:"approved"`
	VideoApproved bool        `json:"videoApproved"`
}

type PostService interface {
	List(ctx context.Context) ([]models.Post, error)
	States(ctx context.Context) ([]PostState, error)
	State(post models.Post) PostState
	StartEdit(post models.Post) EditBuffer
	SetDraft(postID int64, content string) error
	CancelEdit(postID int64)
	Edit(postID int64) (EditBuffer, bool)
	SaveEdit(ctx context.Context, postID int64) (*models.Post, error)
	Approve(ctx context.Context, postID int64) (*ApprovalResult, error)
	VideoApproved(ctx context.Context, postID int64) error
}

type postService struct {
	api      PostAPI
	cache    Cache
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	edits     map[int64]*EditBuffer
	approving map[int64]struct{}
	approved  map[int64]struct{}
}

func NewPostService(api PostAPI, c Cache, notifier notify.Notifier, logger *zap.Logger) PostService {
	return &postService{
		api:       api,
		cache:     c,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
		edits:     map[int64]*EditBuffer{},
		approving: map[int64]struct{}{},
		approved:  map[int64]struct{}{},
	}
}

func (s *postService) List(ctx context.Context) ([]models.Post, error) {
	posts, err := cache.GetJSON[[]models.Post](ctx, s.cache, cache.KeyPosts)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}
	return posts, nil
}

func (s *postService) States(ctx context.Context) ([]PostState, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]PostState, 0, len(posts))
	for _, p := range posts {
		states = append(states, s.State(p))
	}
	return states, nil
}

// State derives the client view of post. Once the server reports the post
// as past draft the local approval marker is dropped; the cache is the
// source of truth from then on.
func (s *postService) State(post models.Post) PostState {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, editing := s.edits[post.ID]
	_, approving := s.approving[post.ID]
	_, locallyApproved := s.approved[post.ID]
	if locallyApproved && post.Status != models.PostStatusDraft {
		delete(s.approved, post.ID)
	}

	serverApproved := post.Status != models.PostStatusDraft && post.Status != ""
	return PostState{
		Post:          post,
		Editing:       editing,
		Approving:     approving,
		Approved:      serverApproved || locallyApproved,
		VideoApproved: post.Video != nil && post.Video.VideoApproved,
	}
}

// StartEdit opens a buffer seeded from the post's content. An already open
// buffer is returned unchanged.
func (s *postService) StartEdit(post models.Post) EditBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if buf, ok := s.edits[post.ID]; ok {
		return *buf
	}
	buf := &EditBuffer{PostID: post.ID, Original: post.Content, Draft: post.Content}
	s.edits[post.ID] = buf
	return *buf
}

func (s *postService) SetDraft(postID int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf, ok := s.edits[postID]
	if !ok {
		return ErrNoEditInProgress
	}
	if buf.Saving {
		return ErrSaveInFlight
	}
	buf.Draft = content
	return nil
}

func (s *postService) CancelEdit(postID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edits, postID)
}

func (s *postService) Edit(postID int64) (EditBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.edits[postID]
	if !ok {
		return EditBuffer{}, false
	}
	return *buf, true
}

// SaveEdit sends the draft. On failure the buffer stays open with the error
// and the draft untouched.
func (s *postService) SaveEdit(ctx context.Context, postID int64) (*models.Post, error) {
	s.mu.Lock()
	buf, ok := s.edits[postID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoEditInProgress
	}
	if buf.Saving {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	buf.Saving = true
	buf.Error = ""
	draft := buf.Draft
	s.mu.Unlock()

	post, err := s.api.UpdatePost(ctx, postID, transfer.PostUpdate{
		Content:  draft,
		Edited:   true,
		EditedAt: s.now().UTC(),
	})
	if err != nil {
		s.mu.Lock()
		buf.Saving = false
		buf.Error = err.Error()
		s.mu.Unlock()

		s.logger.Warn("Failed to save post edit", zap.Int64("post_id", postID), zap.Error(err))
		s.notifier.Notify(notify.FromError("Failed to save post", err))
		return nil, err
	}

	s.mu.Lock()
	if s.edits[postID] == buf {
		delete(s.edits, postID)
	}
	s.mu.Unlock()

	if err := s.cache.Invalidate(ctx, cache.KeyPosts); err != nil {
		s.logger.Warn("Posts refresh after edit failed", zap.Int64("post_id", postID), zap.Error(err))
	}
	s.notifier.Notify(notify.Success("Post updated", "Your changes have been saved."))
	return post, nil
}

// Approve approves postID once. While an approval for the same id is in
// flight further calls return ErrApprovalInFlight without touching the
// network; other ids are unaffected.
func (s *postService) Approve(ctx context.Context, postID int64) (*ApprovalResult, error) {
	s.mu.Lock()
	if _, busy := s.approving[postID]; busy {
		s.mu.Unlock()
		return nil, ErrApprovalInFlight
	}
	s.approving[postID] = struct{}{}
	s.mu.Unlock()

	resp, err := s.api.ApprovePost(ctx, postID)

	s.mu.Lock()
	delete(s.approving, postID)
	if err == nil {
		s.approved[postID] = struct{}{}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Post approval failed", zap.Int64("post_id", postID), zap.Error(err))
		s.notifier.Notify(notify.FromError("Approval failed", err))
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, cache.KeyPosts); err != nil {
		s.logger.Warn("Posts refresh after approval failed", zap.Int64("post_id", postID), zap.Error(err))
	}

	if resp.Queued {
		s.notifier.Notify(notify.Success("Post approved", "The post is queued for publishing."))
	} else {
		s.notifier.Notify(notify.Warning("Post approved", "The post was approved but could not be queued for publishing."))
	}

	return &ApprovalResult{PostID: postID, Queued: resp.Queued}, nil
}

// VideoApproved reacts to a video approval made elsewhere. Nothing is
// merged locally; the refetched posts carry the video.
func (s *postService) VideoApproved(ctx context.Context, postID int64) error {
	if err := s.cache.Invalidate(ctx, cache.KeyPosts); err != nil {
		s.logger.Warn("Posts refresh after video approval failed", zap.Int64("post_id", postID), zap.Error(err))
		return err
	}
	s.notifier.Notify(notify.Success("Video approved", "The post with its video is ready for publishing."))
	return nil
}
