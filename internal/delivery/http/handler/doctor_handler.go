package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"doctor-listing-service/internal/converter"
	"doctor-listing-service/internal/delivery/dto"
	"doctor-listing-service/internal/domain/entity"
	"doctor-listing-service/internal/usecase"
	"doctor-listing-service/pkg/response"
	"doctor-listing-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type DoctorHandler struct {
	listingUsecase usecase.DoctorListingUsecase
	validator      *validator.CustomValidator
	pageSize       int
}

func NewDoctorHandler(listingUsecase usecase.DoctorListingUsecase, validator *validator.CustomValidator, pageSize int) *DoctorHandler {
	if pageSize < 1 {
		pageSize = entity.DefaultPageSize
	}
	return &DoctorHandler{
		listingUsecase: listingUsecase,
		validator:      validator,
		pageSize:       pageSize,
	}
}

// ListDoctors handles a one-shot listing query
// @Summary List doctors
// @Description Filter, search, sort and paginate doctors without a session
// @Tags Doctors
// @Produce json
// @Param specialty query string false "Specialty"
// @Param languages query []string false "Languages (repeat or comma separated)"
// @Param fee_ranges query []string false "Fee buckets"
// @Param sort query string false "relevance, name, experience or fee"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /doctors [get]
func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	req, err := parseListDoctorsRequest(r.URL.Query())
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	state := listDoctorsState(req, h.pageSize)
	page, err := h.listingUsecase.Execute(r.Context(), state)
	if err != nil {
		response.QueryFailed(w, "Failed to get doctors", nil)
		return
	}

	meta := response.NewMeta(page.PageNumber, page.PageSize, page.TotalMatches, page.TotalPages)
	response.SuccessWithMeta(w, http.StatusOK, "Doctors retrieved successfully", dto.DoctorListResponse{
		Doctors: converter.DoctorsToCardResponses(page.Items),
		Total:   page.TotalMatches,
	}, meta)
}

// GetFacets handles the filter picker values
// @Summary Listing facets
// @Tags Doctors
// @Produce json
// @Success 200 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /doctors/facets [get]
func (h *DoctorHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.listingUsecase.GetFacets(r.Context())
	if err != nil {
		response.QueryFailed(w, "Failed to get facets", nil)
		return
	}

	response.Success(w, http.StatusOK, "Facets retrieved successfully", converter.FacetsToResponse(facets))
}

// GetDoctor handles getting a doctor by ID
// @Summary Get doctor by ID
// @Tags Doctors
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /doctors/{id} [get]
func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		response.BadRequest(w, "Invalid doctor ID")
		return
	}

	doctor, err := h.listingUsecase.GetDoctor(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDoctorNotFound):
			response.NotFound(w, "Doctor not found")
		default:
			response.QueryFailed(w, "Failed to get doctor", nil)
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor retrieved successfully", converter.DoctorToCardResponse(doctor))
}

func parseListDoctorsRequest(q url.Values) (*dto.ListDoctorsRequest, error) {
	req := &dto.ListDoctorsRequest{
		Specialty:        strings.TrimSpace(q.Get("specialty")),
		Location:         strings.TrimSpace(q.Get("location")),
		Gender:           q.Get("gender"),
		ConsultModes:     multiValue(q, "consult_modes"),
		FeeRanges:        multiValue(q, "fee_ranges"),
		Languages:        multiValue(q, "languages"),
		Facilities:       multiValue(q, "facilities"),
		AvailabilityDays: multiValue(q, "availability_days"),
		Search:           strings.TrimSpace(q.Get("search")),
		Sort:             q.Get("sort"),
	}

	var err error
	if v := q.Get("min_experience_years"); v != "" {
		if req.MinExperienceYears, err = strconv.Atoi(v); err != nil {
			return nil, errors.New("min_experience_years must be an integer")
		}
	}
	if v := q.Get("min_rating"); v != "" {
		if req.MinRating, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, errors.New("min_rating must be a number")
		}
	}
	if v := q.Get("page"); v != "" {
		if req.Page, err = strconv.Atoi(v); err != nil {
			return nil, errors.New("page must be an integer")
		}
	}
	return req, nil
}

// multiValue accepts both repeated parameters and comma separated lists.
func multiValue(q url.Values, key string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			v = strings.TrimSpace(v)
			if v != "" && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func listDoctorsState(req *dto.ListDoctorsRequest, pageSize int) entity.ListingState {
	state := entity.NewListingState(pageSize)
	state.Filters = entity.FilterSelection{
		Specialty:          req.Specialty,
		Location:           req.Location,
		MinExperienceYears: req.MinExperienceYears,
		MinRating:          req.MinRating,
		Gender:             req.Gender,
		ConsultModes:       req.ConsultModes,
		FeeRanges:          req.FeeRanges,
		Languages:          req.Languages,
		Facilities:         req.Facilities,
		AvailabilityDays:   req.AvailabilityDays,
	}
	state.SearchTerm = req.Search
	if req.Sort != "" {
		state.Sort = entity.SortSpec(req.Sort)
	}
	if req.Page > 0 {
		state.Page.Number = req.Page
	}
	return state
}
