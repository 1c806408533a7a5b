package entity

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrUnknownFilterField = errors.New("unknown filter field")
	ErrInvalidFilterValue = errors.New("invalid filter value")
)

// FilterField names a user-selectable filter.
type FilterField string

const (
	FieldSpecialty          FilterField = "specialty"
	FieldLocation           FilterField = "location"
	FieldMinExperienceYears FilterField = "min_experience_years"
	FieldMinRating          FilterField = "min_rating"
	FieldGender             FilterField = "gender"
	FieldConsultModes       FilterField = "consult_modes"
	FieldFeeRanges          FilterField = "fee_ranges"
	FieldLanguages          FilterField = "languages"
	FieldFacilities         FilterField = "facilities"
	FieldAvailabilityDays   FilterField = "availability_days"
)

// IsSetField reports whether the field holds a multi-select set.
func (f FilterField) IsSetField() bool {
	switch f {
	case FieldConsultModes, FieldFeeRanges, FieldLanguages, FieldFacilities, FieldAvailabilityDays:
		return true
	}
	return false
}

// IsScalarField reports whether the field holds a single value.
func (f FilterField) IsScalarField() bool {
	switch f {
	case FieldSpecialty, FieldLocation, FieldMinExperienceYears, FieldMinRating, FieldGender:
		return true
	}
	return false
}

// Gender values
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Consult modes
const (
	ConsultModeHospital = "hospital"
	ConsultModeOnline   = "online"
	ConsultModeHome     = "home"
)

// Weekdays is the availability day vocabulary in calendar order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ExperienceBuckets are the minimum-experience choices offered by the sidebar.
var ExperienceBuckets = []int{5, 10, 15}

const MaxRating = 5.0

// FilterSelection is the set of predicates narrowing the listing.
// Zero values and empty sets mean "unconstrained". Values are treated as
// immutable: every mutation returns a new selection with copied sets.
type FilterSelection struct {
	Specialty          string   `json:"specialty,omitempty"`
	Location           string   `json:"location,omitempty"`
	MinExperienceYears int      `json:"min_experience_years"`
	MinRating          float64  `json:"min_rating"`
	Gender             string   `json:"gender,omitempty"`
	ConsultModes       []string `json:"consult_modes,omitempty"`
	FeeRanges          []string `json:"fee_ranges,omitempty"`
	Languages          []string `json:"languages,omitempty"`
	Facilities         []string `json:"facilities,omitempty"`
	AvailabilityDays   []string `json:"availability_days,omitempty"`
}

// IsDefault reports whether no predicate is active.
func (f FilterSelection) IsDefault() bool {
	return f.Specialty == "" &&
		f.Location == "" &&
		f.MinExperienceYears == 0 &&
		f.MinRating == 0 &&
		f.Gender == "" &&
		len(f.ConsultModes) == 0 &&
		len(f.FeeRanges) == 0 &&
		len(f.Languages) == 0 &&
		len(f.Facilities) == 0 &&
		len(f.AvailabilityDays) == 0
}

// Clone returns a deep copy.
func (f FilterSelection) Clone() FilterSelection {
	out := f
	out.ConsultModes = cloneSet(f.ConsultModes)
	out.FeeRanges = cloneSet(f.FeeRanges)
	out.Languages = cloneSet(f.Languages)
	out.Facilities = cloneSet(f.Facilities)
	out.AvailabilityDays = cloneSet(f.AvailabilityDays)
	return out
}

// Toggle adds value to the set field, or removes it when already present.
func (f FilterSelection) Toggle(field FilterField, value string) (FilterSelection, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return f, ErrInvalidFilterValue
	}

	out := f.Clone()
	switch field {
	case FieldConsultModes:
		if !IsConsultMode(value) {
			return f, ErrInvalidFilterValue
		}
		out.ConsultModes = toggleMember(out.ConsultModes, value)
	case FieldFeeRanges:
		if _, ok := LookupFeeRange(value); !ok {
			return f, ErrInvalidFilterValue
		}
		out.FeeRanges = toggleMember(out.FeeRanges, value)
	case FieldLanguages:
		out.Languages = toggleMember(out.Languages, value)
	case FieldFacilities:
		out.Facilities = toggleMember(out.Facilities, value)
	case FieldAvailabilityDays:
		if !IsWeekday(value) {
			return f, ErrInvalidFilterValue
		}
		out.AvailabilityDays = toggleMember(out.AvailabilityDays, value)
	default:
		return f, ErrUnknownFilterField
	}
	return out, nil
}

// SetScalar assigns a single-valued field. Specialty, gender and the
// experience bucket clear back to their default when the current value is
// selected again; location and rating are plain overwrites.
func (f FilterSelection) SetScalar(field FilterField, value string) (FilterSelection, error) {
	value = strings.TrimSpace(value)

	out := f.Clone()
	switch field {
	case FieldSpecialty:
		if value == f.Specialty {
			value = ""
		}
		out.Specialty = value
	case FieldLocation:
		out.Location = value
	case FieldGender:
		if value != "" && !IsGender(value) {
			return f, ErrInvalidFilterValue
		}
		if value == f.Gender {
			value = ""
		}
		out.Gender = value
	case FieldMinExperienceYears:
		years := 0
		if value != "" {
			n, err := strconv.Atoi(value)
			if err != nil || (n != 0 && !IsExperienceBucket(n)) {
				return f, ErrInvalidFilterValue
			}
			years = n
		}
		if years == f.MinExperienceYears {
			years = 0
		}
		out.MinExperienceYears = years
	case FieldMinRating:
		rating := 0.0
		if value != "" {
			r, err := strconv.ParseFloat(value, 64)
			if err != nil || r < 0 || r > MaxRating {
				return f, ErrInvalidFilterValue
			}
			rating = r
		}
		out.MinRating = rating
	default:
		return f, ErrUnknownFilterField
	}
	return out, nil
}

func IsGender(v string) bool {
	return v == GenderMale || v == GenderFemale || v == GenderOther
}

func IsConsultMode(v string) bool {
	return v == ConsultModeHospital || v == ConsultModeOnline || v == ConsultModeHome
}

func IsWeekday(v string) bool {
	for _, d := range Weekdays {
		if d == v {
			return true
		}
	}
	return false
}

func IsExperienceBucket(years int) bool {
	for _, b := range ExperienceBuckets {
		if b == years {
			return true
		}
	}
	return false
}

func toggleMember(set []string, value string) []string {
	for i, v := range set {
		if v == value {
			if len(set) == 1 {
				return nil
			}
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return append(set, value)
}

func cloneSet(set []string) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, len(set))
	copy(out, set)
	return out
}
