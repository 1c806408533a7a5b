package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doctor-listing-service/config"
	"doctor-listing-service/internal/domain/entity"
	"doctor-listing-service/internal/domain/repository"
	"doctor-listing-service/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
)

var (
	ErrQueryFailed    = errors.New("listing query failed")
	ErrDoctorNotFound = errors.New("doctor not found")
)

// QueryFailedError reports a store communication or query construction
// failure. It matches ErrQueryFailed with errors.Is.
type QueryFailedError struct {
	Cause error
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("listing query failed: %v", e.Cause)
}

func (e *QueryFailedError) Unwrap() error {
	return e.Cause
}

func (e *QueryFailedError) Is(target error) bool {
	return target == ErrQueryFailed
}

type DoctorListingUsecase interface {
	Execute(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error)
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*entity.Doctor, error)
	GetFacets(ctx context.Context) (*entity.ListingFacets, error)
}

type doctorListingUsecase struct {
	log        *logrus.Logger
	doctorRepo repository.DoctorRepository
	cacheRepo  repository.ListingCacheRepository
	cfg        config.ListingConfig
}

func NewDoctorListingUsecase(
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	cacheRepo repository.ListingCacheRepository,
	cfg config.ListingConfig,
) DoctorListingUsecase {
	return &doctorListingUsecase{
		log:        log,
		doctorRepo: doctorRepo,
		cacheRepo:  cacheRepo,
		cfg:        cfg,
	}
}

// Execute runs one listing state against the store. Pagination and sort
// happen in the store; the fee filter is re-checked on the returned page.
// An empty page is a valid result, not an error.
func (u *doctorListingUsecase) Execute(ctx context.Context, state entity.ListingState) (*entity.ResultPage, error) {
	if state.Page.Size < 1 {
		state.Page.Size = u.cfg.PageSize
	}
	if state.Page.Number < 1 {
		state.Page.Number = 1
	}

	query := BuildDoctorQuery(state, u.cfg.FeePushdown)

	if u.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.cfg.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	doctors, total, err := u.doctorRepo.Search(ctx, query)
	if err != nil {
		metrics.ListingQueryDuration.WithLabelValues(string(state.Sort), "error").Observe(time.Since(start).Seconds())
		metrics.ListingQueryFailuresTotal.Inc()
		u.log.Warnf("Failed to query doctors: %+v", err)
		return nil, &QueryFailedError{Cause: err}
	}
	metrics.ListingQueryDuration.WithLabelValues(string(state.Sort), "ok").Observe(time.Since(start).Seconds())

	items := FilterByFeeRanges(doctors, state.Filters.FeeRanges)
	if removed := len(doctors) - len(items); removed > 0 {
		metrics.ListingPostFilteredTotal.Add(float64(removed))
		u.log.Debugf("Fee post-filter removed %d of %d doctors on page %d", removed, len(doctors), state.Page.Number)
	}

	return &entity.ResultPage{
		Items:        items,
		TotalMatches: total,
		PageNumber:   state.Page.Number,
		PageSize:     state.Page.Size,
		TotalPages:   entity.TotalPages(total, state.Page.Size),
	}, nil
}

func (u *doctorListingUsecase) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*entity.Doctor, error) {
	doctor, err := u.doctorRepo.FindByID(ctx, doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor: %+v", err)
		return nil, &QueryFailedError{Cause: err}
	}
	if doctor == nil {
		return nil, ErrDoctorNotFound
	}
	return doctor, nil
}

// GetFacets returns the specialty and location pickers' values. Facets are
// cached; result pages never are.
func (u *doctorListingUsecase) GetFacets(ctx context.Context) (*entity.ListingFacets, error) {
	if u.cacheRepo != nil {
		cached, err := u.cacheRepo.GetFacets(ctx)
		switch {
		case err != nil:
			metrics.FacetCacheTotal.WithLabelValues("error").Inc()
			u.log.Warnf("Failed to read facet cache: %+v", err)
		case cached != nil:
			metrics.FacetCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.FacetCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	facets := &entity.ListingFacets{}
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		specialties, err := u.doctorRepo.DistinctSpecialties(ctx)
		if err != nil {
			return fmt.Errorf("distinct specialties: %w", err)
		}
		facets.Specialties = specialties
		return nil
	})
	p.Go(func(ctx context.Context) error {
		locations, err := u.doctorRepo.DistinctLocations(ctx)
		if err != nil {
			return fmt.Errorf("distinct locations: %w", err)
		}
		facets.Locations = locations
		return nil
	})
	if err := p.Wait(); err != nil {
		u.log.Warnf("Failed to load facets: %+v", err)
		return nil, &QueryFailedError{Cause: err}
	}

	if u.cacheRepo != nil {
		if err := u.cacheRepo.SetFacets(ctx, facets, u.cfg.FacetCacheTTL); err != nil {
			u.log.Warnf("Failed to write facet cache: %+v", err)
		}
	}

	return facets, nil
}

// BuildDoctorQuery translates a listing state into a store query. Only
// non-default selections produce predicates. With feePushdown the selected
// fee buckets become an OR of ranges in the store query; without it they are
// left to FilterByFeeRanges.
func BuildDoctorQuery(state entity.ListingState, feePushdown bool) *entity.DoctorQuery {
	f := state.Filters
	column, desc := state.Sort.Order()

	query := &entity.DoctorQuery{
		Specialty:          f.Specialty,
		Location:           f.Location,
		MinExperienceYears: f.MinExperienceYears,
		MinRating:          f.MinRating,
		Gender:             f.Gender,
		Facilities:         copyStrings(f.Facilities),
		Languages:          copyStrings(f.Languages),
		AvailableDays:      copyStrings(f.AvailabilityDays),
		SearchTerm:         state.SearchTerm,
		SortColumn:         column,
		SortDesc:           desc,
		Offset:             state.Page.Offset(),
		Limit:              state.Page.Size,
	}

	if feePushdown {
		for _, token := range f.FeeRanges {
			if fr, ok := entity.LookupFeeRange(token); ok {
				query.FeeRanges = append(query.FeeRanges, fr)
			}
		}
	}

	return query
}

// FilterByFeeRanges keeps doctors whose fee lies in any selected bucket.
// Doctors without a fee are dropped whenever a bucket is selected.
func FilterByFeeRanges(doctors []entity.Doctor, tokens []string) []entity.Doctor {
	if len(tokens) == 0 {
		return doctors
	}
	out := make([]entity.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if entity.MatchesFeeRanges(d.Fee, tokens) {
			out = append(out, d)
		}
	}
	return out
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
