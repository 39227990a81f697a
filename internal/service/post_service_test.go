package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maheshrc27/postflow-sync/internal/apiclient"
	"github.com/maheshrc27/postflow-sync/internal/cache"
	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/notify"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
)

func newTestPostService(api PostAPI) (*postService, *fakeCache, *recordingNotifier) {
	c := newFakeCache()
	n := &recordingNotifier{}
	svc := NewPostService(api, c, n, zap.NewNop()).(*postService)
	return svc, c, n
}

func TestSaveEditClosesBufferAndInvalidatesOnce(t *testing.T) {
	api := new(MockPostAPI)
	svc, c, n := newTestPostService(api)
	post := models.Post{ID: 7, Content: "original", Status: models.PostStatusDraft}

	api.On("UpdatePost", mock.Anything, int64(7), mock.MatchedBy(func(u transfer.PostUpdate) bool {
		return u.Content == "rewritten" && u.Edited && !u.EditedAt.IsZero()
	})).Return(&models.Post{ID: 7, Content: "rewritten", Edited: true}, nil).Once()

	svc.StartEdit(post)
	require.NoError(t, svc.SetDraft(7, "rewritten"))

	saved, err := svc.SaveEdit(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", saved.Content)

	_, open := svc.Edit(7)
	assert.False(t, open)
	assert.Equal(t, 1, c.count(cache.KeyPosts))
	assert.Len(t, c.invalidated(), 1)
	assert.Equal(t, notify.KindSuccess, n.last().Kind)
	api.AssertExpectations(t)
}

func TestSaveEditFailureKeepsBufferVerbatim(t *testing.T) {
	api := new(MockPostAPI)
	svc, c, n := newTestPostService(api)
	draft := "  new copy with trailing space \n"

	api.On("UpdatePost", mock.Anything, int64(3), mock.Anything).
		Return(nil, &apiclient.APIError{Status: 500, Message: "database unavailable"}).Once()

	svc.StartEdit(models.Post{ID: 3, Content: "old"})
	require.NoError(t, svc.SetDraft(3, draft))

	_, err := svc.SaveEdit(context.Background(), 3)
	require.Error(t, err)

	buf, open := svc.Edit(3)
	require.True(t, open)
	assert.Equal(t, draft, buf.Draft)
	assert.Equal(t, "old", buf.Original)
	assert.False(t, buf.Saving)
	assert.NotEmpty(t, buf.Error)
	assert.Empty(t, c.invalidated())

	last := n.last()
	assert.Equal(t, notify.KindError, last.Kind)
	assert.True(t, last.Retryable)
	assert.Equal(t, "database unavailable", last.Message)
}

func TestSaveEditWithoutBuffer(t *testing.T) {
	svc, _, _ := newTestPostService(new(MockPostAPI))

	_, err := svc.SaveEdit(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNoEditInProgress)
	assert.ErrorIs(t, svc.SetDraft(99, "x"), ErrNoEditInProgress)
}

func TestStartEditKeepsOpenBuffer(t *testing.T) {
	svc, _, _ := newTestPostService(new(MockPostAPI))
	post := models.Post{ID: 1, Content: "a"}

	svc.StartEdit(post)
	require.NoError(t, svc.SetDraft(1, "b"))
	buf := svc.StartEdit(post)
	assert.Equal(t, "b", buf.Draft)

	svc.CancelEdit(1)
	_, open := svc.Edit(1)
	assert.False(t, open)
}

func TestDoubleApproveIssuesOneRequest(t *testing.T) {
	api := new(MockPostAPI)
	svc, c, _ := newTestPostService(api)

	release := make(chan struct{})
	api.On("ApprovePost", mock.Anything, int64(42)).
		Run(func(mock.Arguments) { <-release }).
		Return(&transfer.ApprovePostResponse{Queued: true}, nil)

	var wg sync.WaitGroup
	var first *ApprovalResult
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = svc.Approve(context.Background(), 42)
	}()

	require.Eventually(t, func() bool {
		return svc.State(models.Post{ID: 42, Status: models.PostStatusDraft}).Approving
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Approve(context.Background(), 42)
	assert.ErrorIs(t, err, ErrApprovalInFlight)

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.True(t, first.Queued)
	api.AssertNumberOfCalls(t, "ApprovePost", 1)
	assert.Equal(t, 1, c.count(cache.KeyPosts))
}

func TestApproveOtherIdsAreIndependent(t *testing.T) {
	api := new(MockPostAPI)
	svc, _, _ := newTestPostService(api)

	release := make(chan struct{})
	api.On("ApprovePost", mock.Anything, int64(1)).
		Run(func(mock.Arguments) { <-release }).
		Return(&transfer.ApprovePostResponse{Queued: true}, nil)
	api.On("ApprovePost", mock.Anything, int64(2)).
		Return(&transfer.ApprovePostResponse{Queued: true}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Approve(context.Background(), 1)
	}()
	require.Eventually(t, func() bool {
		return svc.State(models.Post{ID: 1}).Approving
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Approve(context.Background(), 2)
	assert.NoError(t, err)

	close(release)
	<-done
}

func TestApproveNotQueuedWarns(t *testing.T) {
	api := new(MockPostAPI)
	svc, _, n := newTestPostService(api)
	api.On("ApprovePost", mock.Anything, int64(5)).Return(&transfer.ApprovePostResponse{Queued: false}, nil)

	res, err := svc.Approve(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, res.Queued)
	assert.Equal(t, notify.KindWarning, n.last().Kind)

	state := svc.State(models.Post{ID: 5, Status: models.PostStatusDraft})
	assert.True(t, state.Approved)
	assert.False(t, state.Approving)
}

func TestApproveFailureClearsMarker(t *testing.T) {
	api := new(MockPostAPI)
	svc, c, n := newTestPostService(api)
	api.On("ApprovePost", mock.Anything, int64(8)).Return(nil, errors.New("connection reset")).Once()
	api.On("ApprovePost", mock.Anything, int64(8)).Return(&transfer.ApprovePostResponse{Queued: true}, nil).Once()

	_, err := svc.Approve(context.Background(), 8)
	require.Error(t, err)
	assert.True(t, n.last().Retryable)
	assert.Empty(t, c.invalidated())

	state := svc.State(models.Post{ID: 8, Status: models.PostStatusDraft})
	assert.False(t, state.Approving)
	assert.False(t, state.Approved)

	_, err = svc.Approve(context.Background(), 8)
	assert.NoError(t, err)
	api.AssertNumberOfCalls(t, "ApprovePost", 2)
}

func TestStateDropsLocalApprovalOnceServerAgrees(t *testing.T) {
	api := new(MockPostAPI)
	svc, _, _ := newTestPostService(api)
	api.On("ApprovePost", mock.Anything, int64(4)).Return(&transfer.ApprovePostResponse{Queued: true}, nil)

	_, err := svc.Approve(context.Background(), 4)
	require.NoError(t, err)

	assert.True(t, svc.State(models.Post{ID: 4, Status: models.PostStatusApproved}).Approved)
	assert.Empty(t, svc.approved)
	assert.False(t, svc.State(models.Post{ID: 4, Status: models.PostStatusDraft}).Approved)
}

func TestVideoApprovedOnlyInvalidatesPosts(t *testing.T) {
	svc, c, _ := newTestPostService(new(MockPostAPI))

	require.NoError(t, svc.VideoApproved(context.Background(), 11))
	require.Len(t, c.invalidated(), 1)
	assert.Equal(t, []cache.Key{cache.KeyPosts}, c.invalidated()[0].keys)
}

func TestStatesReadsThroughCache(t *testing.T) {
	svc, c, _ := newTestPostService(new(MockPostAPI))
	c.set(cache.KeyPosts, []models.Post{
		{ID: 1, Status: models.PostStatusDraft},
		{ID: 2, Status: models.PostStatusPublished, Video: &models.PostVideo{HasVideo: true, VideoApproved: true}},
	})
	svc.StartEdit(models.Post{ID: 1})

	states, err := svc.States(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states[0].Editing)
	assert.False(t, states[0].Approved)
	assert.True(t, states[1].Approved)
	assert.True(t, states[1].VideoApproved)
}

func TestSaveEditKeepsBufferReopenedDuringSave(t *testing.T) {
	api := new(MockPostAPI)
	svc, _, _ := newTestPostService(api)
	post := models.Post{ID: 9, Content: "original", Status: models.PostStatusDraft}

	sending := make(chan struct{})
	release := make(chan struct{})
	api.On("UpdatePost", mock.Anything, int64(9), mock.Anything).
		Run(func(mock.Arguments) {
			close(sending)
			<-release
		}).
		Return(&models.Post{ID: 9, Content: "first draft", Edited: true}, nil).Once()

	svc.StartEdit(post)
	require.NoError(t, svc.SetDraft(9, "first draft"))

	done := make(chan error, 1)
	go func() {
		_, err := svc.SaveEdit(context.Background(), 9)
		done <- err
	}()
	<-sending

	svc.CancelEdit(9)
	svc.StartEdit(models.Post{ID: 9, Content: "first draft", Status: models.PostStatusDraft})
	require.NoError(t, svc.SetDraft(9, "second draft"))

	close(release)
	require.NoError(t, <-done)

	buf, open := svc.Edit(9)
	require.True(t, open)
	assert.Equal(t, "second draft", buf.Draft)
	assert.False(t, buf.Saving)
}
