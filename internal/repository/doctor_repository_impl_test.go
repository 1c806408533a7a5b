package repository

import (
	"strings"
	"testing"

	"doctor-listing-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func searchSQL(db *gorm.DB, q *entity.DoctorQuery) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var doctors []entity.Doctor
		return applyDoctorWindow(applyDoctorQuery(tx, q), q).Find(&doctors)
	})
}

func countSQL(db *gorm.DB, q *entity.DoctorQuery) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var total int64
		return applyDoctorQuery(tx, q).Count(&total)
	})
}

func TestApplyDoctorQuery_DefaultHasNoPredicates(t *testing.T) {
	db := newDryRunDB(t)
	q := &entity.DoctorQuery{SortColumn: "rating", SortDesc: true, Limit: 5}

	sql := searchSQL(db, q)

	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, `ORDER BY "rating" DESC,"id"`)
	assert.Contains(t, sql, "LIMIT 5")
	assert.NotContains(t, sql, "OFFSET")
}

func TestApplyDoctorQuery_Window(t *testing.T) {
	db := newDryRunDB(t)
	q := &entity.DoctorQuery{SortColumn: "name", Offset: 5, Limit: 5}

	sql := searchSQL(db, q)

	assert.Contains(t, sql, `ORDER BY "name","id"`)
	assert.Contains(t, sql, "LIMIT 5")
	assert.Contains(t, sql, "OFFSET 5")
}

func TestApplyDoctorQuery_ScalarPredicates(t *testing.T) {
	db := newDryRunDB(t)
	q := &entity.DoctorQuery{
		Specialty:          "Dentist",
		Location:           "Pune",
		MinExperienceYears: 10,
		MinRating:          4.5,
		Gender:             entity.GenderFemale,
	}

	sql := searchSQL(db, q)

	assert.Contains(t, sql, "specialty = 'Dentist'")
	assert.Contains(t, sql, "location = 'Pune'")
	assert.Contains(t, sql, "experience_years >= 10")
	assert.Contains(t, sql, "rating >= 4.5")
	assert.Contains(t, sql, "gender = 'Female'")
}

func TestApplyDoctorQuery_SetPredicates(t *testing.T) {
	db := newDryRunDB(t)
	q := &entity.DoctorQuery{
		Facilities:    []string{"Apollo Hospital", "Fortis"},
		Languages:     []string{"English", "Hindi"},
		AvailableDays: []string{"Monday"},
	}

	sql := searchSQL(db, q)

	assert.Contains(t, sql, "clinic_name IN ('Apollo Hospital','Fortis')")
	assert.Contains(t, sql, "languages && '{English,Hindi}'::text[]")
	assert.Contains(t, sql, "available_days && '{Monday}'::text[]")
}

func TestApplyDoctorQuery_SearchTermIsEscaped(t *testing.T) {
	db := newDryRunDB(t)
	q := &entity.DoctorQuery{SearchTerm: "50%_off"}

	sql := searchSQL(db, q)

	assert.Contains(t, sql, `(name ILIKE '%50\%\_off%' OR specialty ILIKE '%50\%\_off%' OR location ILIKE '%50\%\_off%')`)
}

func TestApplyDoctorQuery_FeeRanges(t *testing.T) {
	db := newDryRunDB(t)
	low, _ := entity.LookupFeeRange("100-300")
	open, _ := entity.LookupFeeRange("1000+")
	q := &entity.DoctorQuery{FeeRanges: []entity.FeeRange{low, open}}

	sql := searchSQL(db, q)

	assert.Contains(t, sql, "((fee >= '100' AND fee <= '300') OR fee >= '1000')")
}

func TestApplyDoctorQuery_CountSharesPredicates(t *testing.T) {
	db := newDryRunDB(t)
	q := &entity.DoctorQuery{Specialty: "Dentist", SearchTerm: "smile", SortColumn: "fee", Offset: 10, Limit: 5}

	sql := countSQL(db, q)

	assert.True(t, strings.HasPrefix(sql, "SELECT count(*) FROM \"doctors\""), sql)
	assert.Contains(t, sql, "specialty = 'Dentist'")
	assert.Contains(t, sql, "ILIKE '%smile%'")
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "ORDER BY")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
	assert.Equal(t, "cardio", escapeLike("cardio"))
}
