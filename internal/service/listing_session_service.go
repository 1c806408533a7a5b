package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"doctor-listing-service/config"
	"doctor-listing-service/internal/domain/entity"
	"doctor-listing-service/internal/domain/repository"
	"doctor-listing-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Errors
// =============================================================================

// ErrSessionNotFound is returned for an unknown or expired session id.
var ErrSessionNotFound = errors.New("listing session not found")

// =============================================================================
// Constants
// =============================================================================

const (
	// Interval for evicting idle sessions
	sessionCleanupInterval = time.Minute

	// Timeout for snapshot persistence in Redis
	sessionPersistTimeout = 2 * time.Second
)

// =============================================================================
// Types
// =============================================================================

// ListingExecutor runs one listing state against the record store.
type ListingExecutor interface {
	Execute(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error)
}

// ListingSessionService holds the listing sessions of all browsers.
//
// Request sequencing:
// - Every mutation of a session's FilterStateManager issues a new sequence number
// - The manager notifies the session, which runs the query in the background
// - A response is committed only if its sequence number is still the latest
//   issued one; anything older is discarded, so a slow response can never
//   overwrite a newer page
type ListingSessionService struct {
	executor  ListingExecutor
	cacheRepo repository.ListingCacheRepository
	log       *logrus.Logger
	cfg       config.ListingConfig

	sessions sync.Map // map[uuid.UUID]*ListingSession

	// Graceful shutdown
	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

// ListingSession is one browsing session: its filter state and the latest
// committed view.
type ListingSession struct {
	ID      uuid.UUID
	manager *FilterStateManager
	svc     *ListingSessionService

	mu       sync.Mutex
	view     entity.ListingView
	changed  chan struct{} // closed and replaced on every commit
	inflight sync.WaitGroup
	lastUsed atomic.Int64 // Unix timestamp

	// Set once the session is deleted; nothing is committed or persisted after.
	closed    atomic.Bool
	persistMu sync.Mutex
}

// =============================================================================
// Constructor
// =============================================================================

// NewListingSessionService creates the session registry and starts the idle
// session cleanup goroutine. Call Stop() during graceful shutdown.
// cacheRepo may be nil, in which case sessions live only in memory.
func NewListingSessionService(
	executor ListingExecutor,
	cacheRepo repository.ListingCacheRepository,
	log *logrus.Logger,
	cfg config.ListingConfig,
) *ListingSessionService {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &ListingSessionService{
		executor:  executor,
		cacheRepo: cacheRepo,
		log:       log,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
		stopChan:  make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupLoop()

	return svc
}

// =============================================================================
// Lifecycle Methods
// =============================================================================

// Stop cancels in-flight queries and waits for background work.
// Safe to call multiple times.
func (svc *ListingSessionService) Stop() {
	if svc.stopped.CompareAndSwap(false, true) {
		close(svc.stopChan)
		svc.cancel()
		svc.wg.Wait()
		svc.log.Info("ListingSessionService stopped")
	}
}

// =============================================================================
// Public Methods
// =============================================================================

// CreateSession starts a session in the default state and issues its first
// query. Wait for the result with Await(ctx, req.Seq).
func (svc *ListingSessionService) CreateSession(ctx context.Context) (*ListingSession, entity.QueryRequest) {
	session := svc.newSession(uuid.New(), entity.NewListingState(svc.cfg.PageSize))
	svc.sessions.Store(session.ID, session)
	metrics.ListingActiveSessions.Inc()

	svc.log.Debugf("Created listing session %s", session.ID)
	return session, session.manager.Refresh()
}

// GetSession returns a live session, restoring it from its persisted
// snapshot when it is no longer in memory.
func (svc *ListingSessionService) GetSession(ctx context.Context, sessionID uuid.UUID) (*ListingSession, error) {
	if v, ok := svc.sessions.Load(sessionID); ok {
		session := v.(*ListingSession)
		session.touch()
		return session, nil
	}

	if svc.cacheRepo == nil {
		return nil, ErrSessionNotFound
	}

	state, err := svc.cacheRepo.LoadSession(ctx, sessionID)
	if err != nil {
		svc.log.Warnf("Failed to load listing session %s: %+v", sessionID, err)
		return nil, ErrSessionNotFound
	}
	if state == nil {
		return nil, ErrSessionNotFound
	}

	state.Page.Size = svc.cfg.PageSize
	if state.Page.Number < 1 {
		state.Page.Number = 1
	}
	if !state.Sort.Valid() {
		state.Sort = entity.SortRelevance
	}

	restored := svc.newSession(sessionID, *state)
	actual, loaded := svc.sessions.LoadOrStore(sessionID, restored)
	session := actual.(*ListingSession)
	if !loaded {
		metrics.ListingActiveSessions.Inc()
		svc.log.Infof("Restored listing session %s", sessionID)
		session.manager.Refresh()
	}
	session.touch()
	return session, nil
}

// DeleteSession forgets a session and its persisted snapshot. Queries still
// in flight for it are dropped. Returns ErrSessionNotFound when the id is
// neither live nor persisted.
func (svc *ListingSessionService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	v, live := svc.sessions.LoadAndDelete(sessionID)
	if live {
		v.(*ListingSession).close()
		metrics.ListingActiveSessions.Dec()
	}

	if svc.cacheRepo == nil {
		if !live {
			return ErrSessionNotFound
		}
		return nil
	}

	persisted, err := svc.cacheRepo.DeleteSession(ctx, sessionID)
	if err != nil {
		svc.log.Warnf("Failed to delete listing session %s: %+v", sessionID, err)
		if !live {
			return fmt.Errorf("delete listing session %s: %w", sessionID, err)
		}
		return nil
	}
	if !live && !persisted {
		return ErrSessionNotFound
	}
	return nil
}

// Manager returns the session's filter state manager.
func (s *ListingSession) Manager() *FilterStateManager {
	return s.manager
}

// View returns the latest committed view.
func (s *ListingSession) View() entity.ListingView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Await blocks until a result for seq, or for any later request, has been
// committed, then returns the committed view. If ctx ends first the current
// view is returned with ctx's error.
func (s *ListingSession) Await(ctx context.Context, seq uint64) (entity.ListingView, error) {
	for {
		s.mu.Lock()
		view, changed := s.view, s.changed
		s.mu.Unlock()

		if view.Seq >= seq {
			return view, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return view, ctx.Err()
		}
	}
}

// =============================================================================
// Private Helper Methods
// =============================================================================

func (svc *ListingSessionService) newSession(id uuid.UUID, state entity.ListingState) *ListingSession {
	session := &ListingSession{
		ID:      id,
		manager: NewFilterStateManager(state),
		svc:     svc,
		view:    entity.ListingView{State: state.Clone()},
		changed: make(chan struct{}),
	}
	session.touch()
	session.manager.Subscribe(session.onRequest)
	return session
}

// onRequest is the manager subscription: every new request starts exactly
// one store round trip.
func (s *ListingSession) onRequest(req entity.QueryRequest) {
	s.mu.Lock()
	s.view.Loading = true
	s.mu.Unlock()
	s.touch()

	s.inflight.Add(1)
	s.svc.wg.Add(1)
	go s.svc.dispatch(s, req)
}

func (svc *ListingSessionService) dispatch(session *ListingSession, req entity.QueryRequest) {
	defer svc.wg.Done()
	defer session.inflight.Done()

	page, err := svc.executor.Execute(svc.ctx, req.State)

	if session.closed.Load() {
		svc.log.Debugf("Dropped response seq=%d for deleted session %s", req.Seq, session.ID)
		return
	}
	if !session.commit(req, page, err) {
		metrics.ListingSupersededTotal.Inc()
		svc.log.Debugf("Discarded superseded response seq=%d for session %s", req.Seq, session.ID)
		return
	}

	svc.persist(session)
}

// commit installs the response of req unless a newer request has been
// issued or committed since.
func (s *ListingSession) commit(req entity.QueryRequest, page *entity.ResultPage, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() || req.Seq <= s.view.Seq || !s.manager.IsLatest(req.Seq) {
		return false
	}

	s.view = entity.ListingView{
		Seq:   req.Seq,
		State: req.State,
		Page:  page,
		Err:   err,
	}
	if err == nil && page != nil {
		s.manager.SetTotalPages(req.Seq, page.TotalPages)
	}

	close(s.changed)
	s.changed = make(chan struct{})
	return true
}

// persist stores the session's current snapshot. Failures only cost the
// ability to restore the session after a restart.
func (svc *ListingSessionService) persist(session *ListingSession) {
	if svc.cacheRepo == nil {
		return
	}

	session.persistMu.Lock()
	defer session.persistMu.Unlock()
	if session.closed.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(svc.ctx, sessionPersistTimeout)
	defer cancel()

	if err := svc.cacheRepo.SaveSession(ctx, session.ID, session.manager.Snapshot(), svc.cfg.SessionTTL); err != nil {
		svc.log.Warnf("Failed to persist listing session %s: %+v", session.ID, err)
	}
}

// close marks the session deleted. Taking persistMu waits out a persist in
// progress, so no snapshot is written after close returns.
func (s *ListingSession) close() {
	s.persistMu.Lock()
	s.closed.Store(true)
	s.persistMu.Unlock()
}

func (s *ListingSession) touch() {
	s.lastUsed.Store(time.Now().Unix())
}

// drain waits for the session's in-flight queries.
func (s *ListingSession) drain() {
	s.inflight.Wait()
}

// cleanupLoop runs in background to evict idle sessions
func (svc *ListingSessionService) cleanupLoop() {
	defer svc.wg.Done()

	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-svc.stopChan:
			svc.log.Debug("Session cleanup goroutine stopping")
			return
		case <-ticker.C:
			svc.evictIdle(time.Now())
		}
	}
}

// evictIdle drops sessions unused for longer than the session TTL. Their
// snapshots stay in Redis until the key expires.
func (svc *ListingSessionService) evictIdle(now time.Time) int {
	if svc.cfg.SessionTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-svc.cfg.SessionTTL).Unix()
	var evicted int

	svc.sessions.Range(func(key, value any) bool {
		session, ok := value.(*ListingSession)
		if !ok {
			return true
		}
		if session.lastUsed.Load() < cutoff {
			svc.sessions.Delete(key)
			metrics.ListingActiveSessions.Dec()
			evicted++
		}
		return true
	})

	if evicted > 0 {
		svc.log.Debugf("Evicted %d idle listing sessions", evicted)
	}
	return evicted
}
