package entity

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Doctor is a read-only projection of a row in the doctors table.
// The listing never writes doctors; rows are owned by the catalogue.
type Doctor struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name             string              `gorm:"type:varchar(255);not null;index" json:"name"`
	Specialty        string              `gorm:"type:varchar(100);not null;index" json:"specialty"`
	ExperienceYears  int                 `gorm:"column:experience_years;not null;default:0" json:"experience_years"`
	Rating           float64             `gorm:"type:numeric(2,1);not null;default:0;index" json:"rating"`
	Location         string              `gorm:"type:varchar(100);not null;index" json:"location"`
	AvailabilityText string              `gorm:"column:availability_text;type:text" json:"availability_text"`
	Fee              decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"fee"`
	Gender           *string             `gorm:"type:varchar(10)" json:"gender,omitempty"`
	Languages        StringList          `gorm:"type:text[]" json:"languages,omitempty"`
	ClinicName       *string             `gorm:"column:clinic_name;type:varchar(255)" json:"clinic_name,omitempty"`
	AvailableDays    StringList          `gorm:"column:available_days;type:text[]" json:"available_days,omitempty"`
	ImageURL         *string             `gorm:"column:image_url;type:text" json:"image_url,omitempty"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// HasFee reports whether the doctor has a consultation fee on record.
func (d *Doctor) HasFee() bool {
	return d.Fee.Valid
}

// StringList maps a postgres text[] column.
type StringList []string

// Value encodes the list as a postgres array literal, implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	buf, err := pgtype.NewMap().Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, []string(l), nil)
	if err != nil {
		return nil, fmt.Errorf("encode text array: %w", err)
	}
	return string(buf), nil
}

// Scan decodes a postgres array literal, implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var items []string
	if err := pgtype.NewMap().SQLScanner(&items).Scan(value); err != nil {
		return fmt.Errorf("scan text array: %w", err)
	}
	*l = items
	return nil
}

// Overlaps reports whether the list shares at least one element with values.
func (l StringList) Overlaps(values []string) bool {
	for _, have := range l {
		for _, want := range values {
			if have == want {
				return true
			}
		}
	}
	return false
}
