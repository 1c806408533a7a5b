package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"doctor-listing-service/internal/converter"
	"doctor-listing-service/internal/delivery/dto"
	"doctor-listing-service/internal/domain/entity"
	"doctor-listing-service/internal/service"
	"doctor-listing-service/pkg/response"
	"doctor-listing-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ListingHandler exposes listing sessions. Every mutation answers with the
// view committed for it, or for a newer request of the same session.
type ListingHandler struct {
	sessions  *service.ListingSessionService
	validator *validator.CustomValidator
}

func NewListingHandler(sessions *service.ListingSessionService, validator *validator.CustomValidator) *ListingHandler {
	return &ListingHandler{
		sessions:  sessions,
		validator: validator,
	}
}

// CreateSession handles starting a listing session
// @Summary Create listing session
// @Tags Listing
// @Produce json
// @Success 201 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /listing/sessions [post]
func (h *ListingHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, req := h.sessions.CreateSession(r.Context())
	h.respondAwait(w, r, session, req, http.StatusCreated)
}

// GetSession handles reading the committed view
// @Summary Get listing session
// @Tags Listing
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /listing/sessions/{id} [get]
func (h *ListingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	h.respondView(w, session, session.View(), false, http.StatusOK)
}

// DeleteSession handles ending a listing session
// @Summary Delete listing session
// @Tags Listing
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /listing/sessions/{id} [delete]
func (h *ListingHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.NotFound(w, "Listing session not found")
			return
		}
		response.InternalServerError(w, "Failed to delete listing session")
		return
	}

	response.Success(w, http.StatusOK, "Listing session deleted successfully", nil)
}

// ToggleFilter handles adding or removing one member of a multi-select filter
// @Summary Toggle filter value
// @Tags Listing
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.ToggleFilterRequest true "Toggle Filter Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /listing/sessions/{id}/filters/toggle [post]
func (h *ListingHandler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req dto.ToggleFilterRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := session.Manager().ToggleSetMember(entity.FilterField(req.Field), req.Value)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	h.respondAwait(w, r, session, issued, http.StatusOK)
}

// SetScalarFilter handles single-valued filters
// @Summary Set filter value
// @Tags Listing
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SetScalarFilterRequest true "Set Filter Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /listing/sessions/{id}/filters/scalar [post]
func (h *ListingHandler) SetScalarFilter(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req dto.SetScalarFilterRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := session.Manager().SetScalar(entity.FilterField(req.Field), req.Value)
	if err != nil {
		h.respondFilterError(w, err)
		return
	}
	h.respondAwait(w, r, session, issued, http.StatusOK)
}

// ClearFilters handles resetting every filter
// @Summary Clear filters
// @Tags Listing
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /listing/sessions/{id}/filters/clear [post]
func (h *ListingHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	h.respondAwait(w, r, session, session.Manager().ClearAll(), http.StatusOK)
}

// SetSearchTerm handles the free-text search box
// @Summary Set search term
// @Tags Listing
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SearchRequest true "Search Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /listing/sessions/{id}/search [post]
func (h *ListingHandler) SetSearchTerm(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req dto.SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.respondAwait(w, r, session, session.Manager().SetSearchTerm(req.Term), http.StatusOK)
}

// SetSort handles changing the listing order
// @Summary Set sort
// @Tags Listing
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SortRequest true "Sort Request"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /listing/sessions/{id}/sort [post]
func (h *ListingHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req dto.SortRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := session.Manager().SetSort(entity.SortSpec(req.Sort))
	if err != nil {
		response.BadRequest(w, "Invalid sort")
		return
	}
	h.respondAwait(w, r, session, issued, http.StatusOK)
}

// SetPage handles pagination. A page outside the known range leaves the
// session untouched and answers with the current view marked as rejected.
// @Summary Set page
// @Tags Listing
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.PageRequest true "Page Request"
// @Success 200 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /listing/sessions/{id}/page [post]
func (h *ListingHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req dto.PageRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := session.Manager().SetPage(req.Page)
	if err != nil {
		h.respondView(w, session, session.View(), true, http.StatusOK)
		return
	}
	h.respondAwait(w, r, session, issued, http.StatusOK)
}

// Refresh handles retrying the current state
// @Summary Retry listing query
// @Tags Listing
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Response
// @Failure 502 {object} response.Response
// @Router /listing/sessions/{id}/refresh [post]
func (h *ListingHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	h.respondAwait(w, r, session, session.Manager().Refresh(), http.StatusOK)
}

func (h *ListingHandler) lookupSession(w http.ResponseWriter, r *http.Request) (*service.ListingSession, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid session ID")
		return nil, false
	}

	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		response.NotFound(w, "Listing session not found")
		return nil, false
	}
	return session, true
}

func (h *ListingHandler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return false
	}

	if err := h.validator.Validate(req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return false
	}
	return true
}

func (h *ListingHandler) respondFilterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrUnknownFilterField):
		response.BadRequest(w, "Unknown filter field")
	case errors.Is(err, entity.ErrInvalidFilterValue):
		response.BadRequest(w, "Invalid filter value")
	default:
		response.InternalServerError(w, "Failed to update filters")
	}
}

// respondAwait waits for the view committed for issued. If the client goes
// away first the still-loading view is returned.
func (h *ListingHandler) respondAwait(w http.ResponseWriter, r *http.Request, session *service.ListingSession, issued entity.QueryRequest, status int) {
	view, err := session.Await(r.Context(), issued.Seq)
	if err != nil {
		view.Loading = true
		response.Success(w, http.StatusAccepted, "Listing is loading", converter.ListingViewToResponse(session.ID, view, false))
		return
	}
	h.respondView(w, session, view, false, status)
}

func (h *ListingHandler) respondView(w http.ResponseWriter, session *service.ListingSession, view entity.ListingView, rejected bool, status int) {
	data := converter.ListingViewToResponse(session.ID, view, rejected)
	if view.Err != nil {
		response.QueryFailed(w, "Failed to get doctors", data)
		return
	}

	var meta *response.Meta
	if view.Page != nil {
		meta = response.NewMeta(view.Page.PageNumber, view.Page.PageSize, view.Page.TotalMatches, view.Page.TotalPages)
	}
	response.SuccessWithMeta(w, status, "Listing retrieved successfully", data, meta)
}
