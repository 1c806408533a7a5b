package dto

import (
	"doctor-listing-service/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

// ListDoctorsRequest is the stateless listing read from query parameters.
type ListDoctorsRequest struct {
	Specialty          string   `json:"specialty" validate:"omitempty,max=100"`
	Location           string   `json:"location" validate:"omitempty,max=100"`
	MinExperienceYears int      `json:"min_experience_years" validate:"omitempty,oneof=5 10 15"`
	MinRating          float64  `json:"min_rating" validate:"gte=0,lte=5"`
	Gender             string   `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	ConsultModes       []string `json:"consult_modes" validate:"omitempty,dive,oneof=hospital online home"`
	FeeRanges          []string `json:"fee_ranges" validate:"omitempty,dive,fee_range"`
	Languages          []string `json:"languages" validate:"omitempty,dive,required"`
	Facilities         []string `json:"facilities" validate:"omitempty,dive,required"`
	AvailabilityDays   []string `json:"availability_days" validate:"omitempty,dive,weekday"`
	Search             string   `json:"search" validate:"omitempty,max=100"`
	Sort               string   `json:"sort" validate:"omitempty,oneof=relevance name experience fee"`
	Page               int      `json:"page" validate:"gte=0"`
}

type ToggleFilterRequest struct {
	Field string `json:"field" validate:"required,oneof=consult_modes fee_ranges languages facilities availability_days"`
	Value string `json:"value" validate:"required,max=100"`
}

// SetScalarFilterRequest assigns a single-valued filter. An empty value
// clears it.
type SetScalarFilterRequest struct {
	Field string `json:"field" validate:"required,oneof=specialty location min_experience_years min_rating gender"`
	Value string `json:"value" validate:"omitempty,max=100"`
}

type SearchRequest struct {
	Term string `json:"term" validate:"omitempty,max=100"`
}

type SortRequest struct {
	Sort string `json:"sort" validate:"required,oneof=relevance name experience fee"`
}

// PageRequest is not validated here: an out-of-range page is answered with
// the current view marked as rejected.
type PageRequest struct {
	Page int `json:"page"`
}

// Response DTOs

type DoctorCardResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Specialty        string    `json:"specialty"`
	Qualification    string    `json:"qualification"`
	ExperienceYears  int       `json:"experience_years"`
	ExperienceLabel  string    `json:"experience_label"`
	Rating           float64   `json:"rating"`
	Location         string    `json:"location"`
	AvailabilityText string    `json:"availability_text,omitempty"`
	Fee              *string   `json:"fee"`
	DisplayFee       string    `json:"display_fee"`
	Cashback         *string   `json:"cashback"`
	Gender           *string   `json:"gender,omitempty"`
	Languages        []string  `json:"languages,omitempty"`
	ClinicName       *string   `json:"clinic_name,omitempty"`
	AvailableDays    []string  `json:"available_days,omitempty"`
	ImageURL         *string   `json:"image_url,omitempty"`
}

type DoctorListResponse struct {
	Doctors []DoctorCardResponse `json:"doctors"`
	Total   int64                `json:"total"`
}

type ListingErrorResponse struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ListingViewResponse is a session's committed view.
type ListingViewResponse struct {
	SessionID  uuid.UUID             `json:"session_id"`
	Seq        uint64                `json:"seq"`
	State      entity.ListingState   `json:"state"`
	Doctors    []DoctorCardResponse  `json:"doctors"`
	Total      int64                 `json:"total"`
	TotalPages int                   `json:"total_pages"`
	Loading    bool                  `json:"loading"`
	Rejected   bool                  `json:"rejected,omitempty"`
	Error      *ListingErrorResponse `json:"error,omitempty"`
}

type FacetsResponse struct {
	Specialties       []string `json:"specialties"`
	Locations         []string `json:"locations"`
	FeeRanges         []string `json:"fee_ranges"`
	ExperienceBuckets []int    `json:"experience_buckets"`
	Weekdays          []string `json:"weekdays"`
	Genders           []string `json:"genders"`
	ConsultModes      []string `json:"consult_modes"`
}
