package entity

import (
	"errors"
	"strings"
)

var ErrInvalidSort = errors.New("invalid sort")

const DefaultPageSize = 5

// SortSpec is the listing order chosen by the user.
type SortSpec string

const (
	SortRelevance  SortSpec = "relevance"
	SortName       SortSpec = "name"
	SortExperience SortSpec = "experience"
	SortFee        SortSpec = "fee"
)

func (s SortSpec) Valid() bool {
	switch s {
	case SortRelevance, SortName, SortExperience, SortFee:
		return true
	}
	return false
}

// Order returns the store column and direction for the sort.
func (s SortSpec) Order() (column string, desc bool) {
	switch s {
	case SortName:
		return "name", false
	case SortExperience:
		return "experience_years", true
	case SortFee:
		return "fee", false
	default:
		return "rating", true
	}
}

// PageWindow is a one-based page of fixed size.
type PageWindow struct {
	Number int `json:"number"`
	Size   int `json:"size"`
}

// Offset is the zero-based index of the first row on the page.
func (p PageWindow) Offset() int {
	return (p.Number - 1) * p.Size
}

// Range returns the inclusive zero-based row window [from, to].
func (p PageWindow) Range() (from, to int) {
	from = p.Offset()
	return from, from + p.Size - 1
}

// ListingState is one immutable snapshot of everything that determines a
// result page.
type ListingState struct {
	Filters    FilterSelection `json:"filters"`
	SearchTerm string          `json:"search_term,omitempty"`
	Sort       SortSpec        `json:"sort"`
	Page       PageWindow      `json:"page"`
}

// NewListingState returns the default state: no filters, relevance order, page 1.
func NewListingState(pageSize int) ListingState {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return ListingState{
		Sort: SortRelevance,
		Page: PageWindow{Number: 1, Size: pageSize},
	}
}

func (s ListingState) Clone() ListingState {
	out := s
	out.Filters = s.Filters.Clone()
	return out
}

// WithToggle toggles a set member and resets the page.
func (s ListingState) WithToggle(field FilterField, value string) (ListingState, error) {
	filters, err := s.Filters.Toggle(field, value)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Filters = filters
	out.Page.Number = 1
	return out, nil
}

// WithScalar assigns a single-valued filter and resets the page.
func (s ListingState) WithScalar(field FilterField, value string) (ListingState, error) {
	filters, err := s.Filters.SetScalar(field, value)
	if err != nil {
		return s, err
	}
	out := s.Clone()
	out.Filters = filters
	out.Page.Number = 1
	return out, nil
}

// WithSearchTerm overwrites the search term and resets the page.
func (s ListingState) WithSearchTerm(term string) ListingState {
	out := s.Clone()
	out.SearchTerm = strings.TrimSpace(term)
	out.Page.Number = 1
	return out
}

// WithSort overwrites the sort and resets the page.
func (s ListingState) WithSort(sort SortSpec) (ListingState, error) {
	if !sort.Valid() {
		return s, ErrInvalidSort
	}
	out := s.Clone()
	out.Sort = sort
	out.Page.Number = 1
	return out, nil
}

// WithPage moves to page n leaving everything else untouched.
func (s ListingState) WithPage(n int) ListingState {
	out := s.Clone()
	out.Page.Number = n
	return out
}

// WithClearedFilters resets every filter to its default. Search term and
// sort are kept.
func (s ListingState) WithClearedFilters() ListingState {
	out := s.Clone()
	out.Filters = FilterSelection{}
	out.Page.Number = 1
	return out
}

// QueryRequest is a listing state tagged with the sequence number it was
// issued under.
type QueryRequest struct {
	Seq   uint64       `json:"seq"`
	State ListingState `json:"state"`
}

// ResultPage is one page of matching doctors.
type ResultPage struct {
	Items        []Doctor `json:"items"`
	TotalMatches int64    `json:"total_matches"`
	PageNumber   int      `json:"page_number"`
	PageSize     int      `json:"page_size"`
	TotalPages   int      `json:"total_pages"`
}

// TotalPages is ceil(total / size).
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// ListingView is what the render layer shows for a session: the latest
// committed result, or the error that replaced it.
type ListingView struct {
	Seq     uint64       `json:"seq"`
	State   ListingState `json:"state"`
	Page    *ResultPage  `json:"page,omitempty"`
	Err     error        `json:"-"`
	Loading bool         `json:"loading"`
}

// ListingFacets are the distinct values offered by the specialty and
// location pickers.
type ListingFacets struct {
	Specialties []string `json:"specialties"`
	Locations   []string `json:"locations"`
}
