package converter

import (
	"fmt"
	"strings"

	"doctor-listing-service/internal/delivery/dto"
	"doctor-listing-service/internal/domain/entity"

	"github.com/google/uuid"
)

const currencySymbol = "₹"

// DoctorToCardResponse converts a Doctor entity to the listing card DTO
func DoctorToCardResponse(doctor *entity.Doctor) *dto.DoctorCardResponse {
	if doctor == nil {
		return nil
	}

	card := &dto.DoctorCardResponse{
		ID:               doctor.ID,
		Name:             doctor.Name,
		Specialty:        doctor.Specialty,
		Qualification:    Qualification(doctor.Specialty),
		ExperienceYears:  doctor.ExperienceYears,
		ExperienceLabel:  ExperienceLabel(doctor.ExperienceYears),
		Rating:           doctor.Rating,
		Location:         doctor.Location,
		AvailabilityText: doctor.AvailabilityText,
		DisplayFee:       DisplayFee(doctor),
		Cashback:         Cashback(doctor.Rating),
		Gender:           doctor.Gender,
		Languages:        doctor.Languages,
		ClinicName:       doctor.ClinicName,
		AvailableDays:    doctor.AvailableDays,
		ImageURL:         doctor.ImageURL,
	}
	if doctor.HasFee() {
		fee := doctor.Fee.Decimal.StringFixed(2)
		card.Fee = &fee
	}
	return card
}

// DoctorsToCardResponses converts a slice of Doctor entities to card DTOs
func DoctorsToCardResponses(doctors []entity.Doctor) []dto.DoctorCardResponse {
	cards := make([]dto.DoctorCardResponse, len(doctors))
	for i := range doctors {
		cards[i] = *DoctorToCardResponse(&doctors[i])
	}
	return cards
}

// ListingViewToResponse converts a committed session view. rejected marks a
// page change that was refused and left the view as it was.
func ListingViewToResponse(sessionID uuid.UUID, view entity.ListingView, rejected bool) *dto.ListingViewResponse {
	resp := &dto.ListingViewResponse{
		SessionID: sessionID,
		Seq:       view.Seq,
		State:     view.State,
		Doctors:   []dto.DoctorCardResponse{},
		Loading:   view.Loading,
		Rejected:  rejected,
	}

	if view.Page != nil {
		resp.Doctors = DoctorsToCardResponses(view.Page.Items)
		resp.Total = view.Page.TotalMatches
		resp.TotalPages = view.Page.TotalPages
	}
	if view.Err != nil {
		resp.Error = &dto.ListingErrorResponse{
			Message:   "Failed to load doctors",
			Retryable: true,
		}
	}
	return resp
}

// FacetsToResponse adds the fixed filter vocabularies to the store facets
func FacetsToResponse(facets *entity.ListingFacets) *dto.FacetsResponse {
	resp := &dto.FacetsResponse{
		Specialties:       []string{},
		Locations:         []string{},
		FeeRanges:         entity.FeeRangeTokens(),
		ExperienceBuckets: entity.ExperienceBuckets,
		Weekdays:          entity.Weekdays,
		Genders:           []string{entity.GenderMale, entity.GenderFemale, entity.GenderOther},
		ConsultModes:      []string{entity.ConsultModeHospital, entity.ConsultModeOnline, entity.ConsultModeHome},
	}
	if facets != nil {
		if facets.Specialties != nil {
			resp.Specialties = facets.Specialties
		}
		if facets.Locations != nil {
			resp.Locations = facets.Locations
		}
	}
	return resp
}

func Qualification(specialty string) string {
	switch {
	case strings.Contains(specialty, "Internal Medicine"):
		return "MBBS, MD (INTERNAL MEDICINE)"
	case strings.Contains(specialty, "Pathology"):
		return "MBBS, MD (PATHOLOGY)"
	default:
		return "MBBS"
	}
}

func ExperienceLabel(years int) string {
	switch {
	case years > 10:
		return "10+ YEARS"
	case years > 5:
		return "5+ YEARS"
	default:
		return fmt.Sprintf("%d YEARS", years)
	}
}

// DisplayFee is the recorded fee, or a price tier by rating when the doctor
// has none on record.
func DisplayFee(doctor *entity.Doctor) string {
	if doctor.HasFee() {
		return currencySymbol + doctor.Fee.Decimal.String()
	}
	switch {
	case doctor.Rating > 4.5:
		return currencySymbol + "499"
	case doctor.Rating > 4:
		return currencySymbol + "399"
	case doctor.Rating > 3.5:
		return currencySymbol + "350"
	default:
		return currencySymbol + "299"
	}
}

// Cashback offered on a booking; top-rated doctors offer none.
func Cashback(rating float64) *string {
	var amount string
	switch {
	case rating > 4.5:
		return nil
	case rating > 4:
		amount = "60"
	case rating > 3.5:
		amount = "53"
	default:
		amount = "50"
	}
	amount = currencySymbol + amount
	return &amount
}
