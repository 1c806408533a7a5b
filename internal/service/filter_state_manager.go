package service

import (
	"errors"
	"sync"

	"doctor-listing-service/internal/domain/entity"
)

// ErrInvalidPageRequest is returned when a page change falls outside the
// known page range. The state is left untouched.
var ErrInvalidPageRequest = errors.New("page number out of range")

// FilterStateManager owns the listing state of one browsing session.
//
// Every accepted mutation replaces the state with a new snapshot, takes the
// next sequence number and notifies all subscribers synchronously with the
// resulting QueryRequest. Rejected mutations change nothing and notify no one.
type FilterStateManager struct {
	mu         sync.Mutex
	state      entity.ListingState
	seq        uint64
	totalPages int
	pagesKnown bool // a result for the current filters has been committed
	listeners  []func(entity.QueryRequest)
}

func NewFilterStateManager(initial entity.ListingState) *FilterStateManager {
	return &FilterStateManager{state: initial.Clone()}
}

// Snapshot returns a copy of the current state.
func (m *FilterStateManager) Snapshot() entity.ListingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Seq returns the latest issued sequence number.
func (m *FilterStateManager) Seq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}

// IsLatest reports whether seq is the most recently issued sequence number.
func (m *FilterStateManager) IsLatest(seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return seq == m.seq
}

// Subscribe registers fn to receive every new QueryRequest.
func (m *FilterStateManager) Subscribe(fn func(entity.QueryRequest)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// TotalPages returns the page count known for the current filters and
// whether one is known at all.
func (m *FilterStateManager) TotalPages() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalPages, m.pagesKnown
}

// SetTotalPages records the page count of a committed result. Counts from
// superseded requests are ignored.
func (m *FilterStateManager) SetTotalPages(seq uint64, totalPages int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq == m.seq {
		m.totalPages = totalPages
		m.pagesKnown = true
	}
}

func (m *FilterStateManager) ToggleSetMember(field entity.FilterField, value string) (entity.QueryRequest, error) {
	if !field.IsSetField() {
		return entity.QueryRequest{}, entity.ErrUnknownFilterField
	}
	return m.apply(true, func(s entity.ListingState) (entity.ListingState, error) {
		return s.WithToggle(field, value)
	})
}

func (m *FilterStateManager) SetScalar(field entity.FilterField, value string) (entity.QueryRequest, error) {
	if !field.IsScalarField() {
		return entity.QueryRequest{}, entity.ErrUnknownFilterField
	}
	return m.apply(true, func(s entity.ListingState) (entity.ListingState, error) {
		return s.WithScalar(field, value)
	})
}

func (m *FilterStateManager) SetSearchTerm(term string) entity.QueryRequest {
	req, _ := m.apply(true, func(s entity.ListingState) (entity.ListingState, error) {
		return s.WithSearchTerm(term), nil
	})
	return req
}

func (m *FilterStateManager) SetSort(sort entity.SortSpec) (entity.QueryRequest, error) {
	return m.apply(true, func(s entity.ListingState) (entity.ListingState, error) {
		return s.WithSort(sort)
	})
}

// SetPage moves to page n. Pages below 1 are always rejected; pages above
// the total are rejected once a result for the current filters has been
// committed. An empty result still has page 1.
func (m *FilterStateManager) SetPage(n int) (entity.QueryRequest, error) {
	return m.apply(false, func(s entity.ListingState) (entity.ListingState, error) {
		if n < 1 {
			return s, ErrInvalidPageRequest
		}
		if m.pagesKnown && n > max(m.totalPages, 1) {
			return s, ErrInvalidPageRequest
		}
		return s.WithPage(n), nil
	})
}

// ClearAll resets every filter to its default and returns to page 1.
// The search term and the sort are kept.
func (m *FilterStateManager) ClearAll() entity.QueryRequest {
	req, _ := m.apply(true, func(s entity.ListingState) (entity.ListingState, error) {
		return s.WithClearedFilters(), nil
	})
	return req
}

// Refresh re-issues the current state under a new sequence number.
func (m *FilterStateManager) Refresh() entity.QueryRequest {
	req, _ := m.apply(false, func(s entity.ListingState) (entity.ListingState, error) {
		return s, nil
	})
	return req
}

func (m *FilterStateManager) apply(resetsPages bool, fn func(entity.ListingState) (entity.ListingState, error)) (entity.QueryRequest, error) {
	m.mu.Lock()
	next, err := fn(m.state)
	if err != nil {
		m.mu.Unlock()
		return entity.QueryRequest{}, err
	}

	m.seq++
	m.state = next
	if resetsPages {
		m.totalPages = 0
		m.pagesKnown = false
	}
	req := entity.QueryRequest{Seq: m.seq, State: next.Clone()}
	listeners := make([]func(entity.QueryRequest), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(req)
	}
	return req, nil
}
