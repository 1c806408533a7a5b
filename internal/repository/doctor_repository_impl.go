package repository

import (
	"context"
	"errors"
	"strings"

	"doctor-listing-service/internal/domain/entity"
	domainRepo "doctor-listing-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type doctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) domainRepo.DoctorRepository {
	return &doctorRepository{db: db}
}

// Search returns one window of matching doctors plus the exact number of
// matching rows. Both statements share the same predicates.
func (r *doctorRepository) Search(ctx context.Context, query *entity.DoctorQuery) ([]entity.Doctor, int64, error) {
	var doctors []entity.Doctor
	var total int64

	if err := applyDoctorQuery(r.db.WithContext(ctx), query).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if total == 0 {
		return []entity.Doctor{}, 0, nil
	}

	if err := applyDoctorWindow(applyDoctorQuery(r.db.WithContext(ctx), query), query).Find(&doctors).Error; err != nil {
		return nil, 0, err
	}

	return doctors, total, nil
}

func (r *doctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error) {
	var doctor entity.Doctor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) DistinctSpecialties(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "specialty")
}

func (r *doctorRepository) DistinctLocations(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "location")
}

func (r *doctorRepository) distinct(ctx context.Context, column string) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&entity.Doctor{}).
		Distinct(column).
		Where(column+" <> ''").
		Order(column+" ASC").
		Pluck(column, &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

// applyDoctorQuery pushes every predicate of the query down to postgres.
func applyDoctorQuery(db *gorm.DB, q *entity.DoctorQuery) *gorm.DB {
	query := db.Model(&entity.Doctor{})
	if q == nil {
		return query
	}

	if q.Specialty != "" {
		query = query.Where("specialty = ?", q.Specialty)
	}
	if q.Location != "" {
		query = query.Where("location = ?", q.Location)
	}
	if q.MinExperienceYears > 0 {
		query = query.Where("experience_years >= ?", q.MinExperienceYears)
	}
	if q.MinRating > 0 {
		query = query.Where("rating >= ?", q.MinRating)
	}
	if q.Gender != "" {
		query = query.Where("gender = ?", q.Gender)
	}
	if len(q.Facilities) > 0 {
		query = query.Where("clinic_name IN ?", q.Facilities)
	}
	if len(q.Languages) > 0 {
		query = query.Where("languages && ?::text[]", entity.StringList(q.Languages))
	}
	if len(q.AvailableDays) > 0 {
		query = query.Where("available_days && ?::text[]", entity.StringList(q.AvailableDays))
	}
	if q.SearchTerm != "" {
		pattern := "%" + escapeLike(q.SearchTerm) + "%"
		query = query.Where("(name ILIKE ? OR specialty ILIKE ? OR location ILIKE ?)", pattern, pattern, pattern)
	}
	if len(q.FeeRanges) > 0 {
		conditions := make([]string, 0, len(q.FeeRanges))
		args := make([]interface{}, 0, len(q.FeeRanges)*2)
		for _, fr := range q.FeeRanges {
			if fr.Max.Valid {
				conditions = append(conditions, "(fee >= ? AND fee <= ?)")
				args = append(args, fr.Min, fr.Max.Decimal)
			} else {
				conditions = append(conditions, "fee >= ?")
				args = append(args, fr.Min)
			}
		}
		query = query.Where("("+strings.Join(conditions, " OR ")+")", args...)
	}

	return query
}

// applyDoctorWindow orders and paginates. id breaks ties so equal sort keys
// always come back in the same order.
func applyDoctorWindow(db *gorm.DB, q *entity.DoctorQuery) *gorm.DB {
	column, desc := entity.SortRelevance.Order()
	if q.SortColumn != "" {
		column, desc = q.SortColumn, q.SortDesc
	}

	query := db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
