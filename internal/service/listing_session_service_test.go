package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"doctor-listing-service/config"
	"doctor-listing-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls []entity.ListingState
	fn    func(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, state)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, state)
	}
	return pageFor(state, 15), nil
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memoryCacheRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]entity.ListingState
	facets   *entity.ListingFacets
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{sessions: make(map[uuid.UUID]entity.ListingState)}
}

func (r *memoryCacheRepo) GetFacets(ctx context.Context) (*entity.ListingFacets, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.facets, nil
}

func (r *memoryCacheRepo) SetFacets(ctx context.Context, facets *entity.ListingFacets, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facets = facets
	return nil
}

func (r *memoryCacheRepo) SaveSession(ctx context.Context, sessionID uuid.UUID, state entity.ListingState, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = state.Clone()
	return nil
}

func (r *memoryCacheRepo) LoadSession(ctx context.Context, sessionID uuid.UUID) (*entity.ListingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	state = state.Clone()
	return &state, nil
}

func (r *memoryCacheRepo) DeleteSession(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	return ok, nil
}

func (r *memoryCacheRepo) has(sessionID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[sessionID]
	return ok
}

func pageFor(state entity.ListingState, total int64) *entity.ResultPage {
	return &entity.ResultPage{
		Items:        []entity.Doctor{},
		TotalMatches: total,
		PageNumber:   state.Page.Number,
		PageSize:     state.Page.Size,
		TotalPages:   entity.TotalPages(total, state.Page.Size),
	}
}

func newTestSessionService(t *testing.T, executor ListingExecutor, cache *memoryCacheRepo) *ListingSessionService {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.ListingConfig{PageSize: 5, SessionTTL: time.Minute}
	var svc *ListingSessionService
	if cache != nil {
		svc = NewListingSessionService(executor, cache, log, cfg)
	} else {
		svc = NewListingSessionService(executor, nil, log, cfg)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestListingSession_CreateRunsDefaultQuery(t *testing.T) {
	exec := &fakeExecutor{}
	svc := newTestSessionService(t, exec, nil)
	ctx := awaitCtx(t)

	session, req := svc.CreateSession(ctx)
	view, err := session.Await(ctx, req.Seq)
	require.NoError(t, err)

	assert.Equal(t, req.Seq, view.Seq)
	assert.True(t, view.State.Filters.IsDefault())
	require.NotNil(t, view.Page)
	assert.Equal(t, 3, view.Page.TotalPages)
	assert.NoError(t, view.Err)
	assert.Equal(t, 1, exec.callCount())
}

func TestListingSession_LateResponseIsDiscarded(t *testing.T) {
	gates := map[string]chan struct{}{
		"a": make(chan struct{}),
		"b": make(chan struct{}),
	}
	exec := &fakeExecutor{fn: func(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error) {
		if gate, ok := gates[state.SearchTerm]; ok {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		page := pageFor(state, 7)
		page.Items = []entity.Doctor{{Name: "result for " + state.SearchTerm}}
		return page, nil
	}}
	svc := newTestSessionService(t, exec, nil)
	ctx := awaitCtx(t)

	session, first := svc.CreateSession(ctx)
	_, err := session.Await(ctx, first.Seq)
	require.NoError(t, err)

	reqA := session.Manager().SetSearchTerm("a")
	reqB := session.Manager().SetSearchTerm("b")
	require.Greater(t, reqB.Seq, reqA.Seq)

	// The newer request answers first.
	close(gates["b"])
	view, err := session.Await(ctx, reqB.Seq)
	require.NoError(t, err)
	assert.Equal(t, reqB.Seq, view.Seq)
	assert.Equal(t, "b", view.State.SearchTerm)

	// The older one answers late and must not replace it.
	close(gates["a"])
	session.drain()

	view = session.View()
	assert.Equal(t, reqB.Seq, view.Seq)
	require.Len(t, view.Page.Items, 1)
	assert.Equal(t, "result for b", view.Page.Items[0].Name)
}

func TestListingSession_OlderResponseFirstIsStillDiscarded(t *testing.T) {
	gate := make(chan struct{})
	exec := &fakeExecutor{fn: func(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error) {
		if state.SearchTerm == "b" {
			<-gate
		}
		return pageFor(state, 3), nil
	}}
	svc := newTestSessionService(t, exec, nil)
	ctx := awaitCtx(t)

	session, first := svc.CreateSession(ctx)
	_, err := session.Await(ctx, first.Seq)
	require.NoError(t, err)

	session.Manager().SetSearchTerm("a")
	reqB := session.Manager().SetSearchTerm("b")

	// "a" returns while "b" is still outstanding; nothing may be committed for it.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, first.Seq, session.View().Seq)

	close(gate)
	view, err := session.Await(ctx, reqB.Seq)
	require.NoError(t, err)
	assert.Equal(t, "b", view.State.SearchTerm)
}

func TestListingSession_FailureReplacesPageWithError(t *testing.T) {
	storeErr := errors.New("connection refused")
	exec := &fakeExecutor{fn: func(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error) {
		if state.SearchTerm == "boom" {
			return nil, storeErr
		}
		return pageFor(state, 10), nil
	}}
	svc := newTestSessionService(t, exec, nil)
	ctx := awaitCtx(t)

	session, first := svc.CreateSession(ctx)
	_, err := session.Await(ctx, first.Seq)
	require.NoError(t, err)

	req := session.Manager().SetSearchTerm("boom")
	view, err := session.Await(ctx, req.Seq)
	require.NoError(t, err)

	assert.ErrorIs(t, view.Err, storeErr)
	assert.Nil(t, view.Page)
	assert.Equal(t, "boom", view.State.SearchTerm)

	// Retry with the same state issues a fresh request.
	retry := session.Manager().Refresh()
	assert.Greater(t, retry.Seq, req.Seq)
}

func TestListingSession_CommitRecordsPageCount(t *testing.T) {
	exec := &fakeExecutor{}
	svc := newTestSessionService(t, exec, nil)
	ctx := awaitCtx(t)

	session, req := svc.CreateSession(ctx)
	_, err := session.Await(ctx, req.Seq)
	require.NoError(t, err)

	pages, known := session.Manager().TotalPages()
	assert.True(t, known)
	assert.Equal(t, 3, pages)

	_, err = session.Manager().SetPage(4)
	assert.ErrorIs(t, err, ErrInvalidPageRequest)

	next, err := session.Manager().SetPage(3)
	require.NoError(t, err)
	view, err := session.Await(ctx, next.Seq)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Page.PageNumber)
}

func TestListingSession_AwaitHonoursContext(t *testing.T) {
	gate := make(chan struct{})
	exec := &fakeExecutor{fn: func(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error) {
		<-gate
		return pageFor(state, 1), nil
	}}
	svc := newTestSessionService(t, exec, nil)
	defer close(gate)

	session, req := svc.CreateSession(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	view, err := session.Await(ctx, req.Seq)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, view.Seq)
}

func TestListingSessionService_GetUnknownSession(t *testing.T) {
	svc := newTestSessionService(t, &fakeExecutor{}, nil)

	_, err := svc.GetSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListingSessionService_RestoresPersistedSession(t *testing.T) {
	cache := newMemoryCacheRepo()
	ctx := awaitCtx(t)

	first := newTestSessionService(t, &fakeExecutor{}, cache)
	session, req := first.CreateSession(ctx)
	_, err := session.Await(ctx, req.Seq)
	require.NoError(t, err)

	_, err = session.Manager().SetScalar(entity.FieldSpecialty, "Cardiologist")
	require.NoError(t, err)
	req = session.Manager().SetSearchTerm("heart")
	_, err = session.Await(ctx, req.Seq)
	require.NoError(t, err)
	session.drain()

	// A fresh process only has the persisted snapshot.
	exec := &fakeExecutor{}
	second := newTestSessionService(t, exec, cache)
	restored, err := second.GetSession(ctx, session.ID)
	require.NoError(t, err)

	state := restored.Manager().Snapshot()
	assert.Equal(t, "Cardiologist", state.Filters.Specialty)
	assert.Equal(t, "heart", state.SearchTerm)

	view, err := restored.Await(ctx, restored.Manager().Seq())
	require.NoError(t, err)
	assert.Equal(t, "heart", view.State.SearchTerm)
	assert.Equal(t, 1, exec.callCount())

	again, err := second.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Same(t, restored, again)
}

func TestListingSessionService_DeleteSession(t *testing.T) {
	cache := newMemoryCacheRepo()
	svc := newTestSessionService(t, &fakeExecutor{}, cache)
	ctx := awaitCtx(t)

	session, req := svc.CreateSession(ctx)
	_, err := session.Await(ctx, req.Seq)
	require.NoError(t, err)
	session.drain()

	require.NoError(t, svc.DeleteSession(ctx, session.ID))

	_, err = svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListingSessionService_DeleteWhileQueryInFlight(t *testing.T) {
	gate := make(chan struct{})
	exec := &fakeExecutor{fn: func(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error) {
		if state.SearchTerm == "slow" {
			<-gate
		}
		return pageFor(state, 4), nil
	}}
	cache := newMemoryCacheRepo()
	svc := newTestSessionService(t, exec, cache)
	ctx := awaitCtx(t)

	session, req := svc.CreateSession(ctx)
	_, err := session.Await(ctx, req.Seq)
	require.NoError(t, err)
	session.drain()
	require.True(t, cache.has(session.ID))

	session.Manager().SetSearchTerm("slow")
	require.NoError(t, svc.DeleteSession(ctx, session.ID))

	close(gate)
	session.drain()

	assert.False(t, cache.has(session.ID))
	assert.Equal(t, req.Seq, session.View().Seq)
	_, err = svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListingSessionService_DeleteUnknownSession(t *testing.T) {
	ctx := awaitCtx(t)

	withCache := newTestSessionService(t, &fakeExecutor{}, newMemoryCacheRepo())
	assert.ErrorIs(t, withCache.DeleteSession(ctx, uuid.New()), ErrSessionNotFound)

	memoryOnly := newTestSessionService(t, &fakeExecutor{}, nil)
	assert.ErrorIs(t, memoryOnly.DeleteSession(ctx, uuid.New()), ErrSessionNotFound)
}

func TestListingSessionService_DeletePersistedOnlySession(t *testing.T) {
	cache := newMemoryCacheRepo()
	ctx := awaitCtx(t)

	first := newTestSessionService(t, &fakeExecutor{}, cache)
	session, req := first.CreateSession(ctx)
	_, err := session.Await(ctx, req.Seq)
	require.NoError(t, err)
	session.drain()

	// A second process never loaded it but can still delete the snapshot.
	second := newTestSessionService(t, &fakeExecutor{}, cache)
	require.NoError(t, second.DeleteSession(ctx, session.ID))
	assert.False(t, cache.has(session.ID))
	assert.ErrorIs(t, second.DeleteSession(ctx, session.ID), ErrSessionNotFound)
}

func TestListingSessionService_EvictIdle(t *testing.T) {
	svc := newTestSessionService(t, &fakeExecutor{}, nil)
	ctx := awaitCtx(t)

	idle, req := svc.CreateSession(ctx)
	_, err := idle.Await(ctx, req.Seq)
	require.NoError(t, err)
	idle.drain()
	idle.lastUsed.Store(time.Now().Add(-2 * time.Minute).Unix())

	active, req := svc.CreateSession(ctx)
	_, err = active.Await(ctx, req.Seq)
	require.NoError(t, err)

	assert.Equal(t, 1, svc.evictIdle(time.Now()))

	_, err = svc.GetSession(ctx, idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.GetSession(ctx, active.ID)
	assert.NoError(t, err)
}

func TestListingSessionService_StopIsIdempotent(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewListingSessionService(&fakeExecutor{}, nil, log, config.ListingConfig{PageSize: 5})

	svc.Stop()
	svc.Stop()
}
