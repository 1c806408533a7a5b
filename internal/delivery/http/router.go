package http

import (
	"net/http"

	"doctor-listing-service/internal/delivery/http/handler"
	"doctor-listing-service/internal/delivery/http/middleware"
	"doctor-listing-service/internal/metrics"
	"doctor-listing-service/pkg/response"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	router         *mux.Router
	doctorHandler  *handler.DoctorHandler
	listingHandler *handler.ListingHandler
	corsMiddleware *middleware.CORSMiddleware
}

func NewRouter(
	doctorHandler *handler.DoctorHandler,
	listingHandler *handler.ListingHandler,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:         mux.NewRouter(),
		doctorHandler:  doctorHandler,
		listingHandler: listingHandler,
		corsMiddleware: corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// Prometheus scrape endpoint
	r.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Stateless listing
	api.HandleFunc("/doctors", r.doctorHandler.ListDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctors/facets", r.doctorHandler.GetFacets).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)

	// Listing sessions
	sessions := api.PathPrefix("/listing/sessions").Subrouter()
	sessions.HandleFunc("", r.listingHandler.CreateSession).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}", r.listingHandler.GetSession).Methods(http.MethodGet)
	sessions.HandleFunc("/{id}", r.listingHandler.DeleteSession).Methods(http.MethodDelete)
	sessions.HandleFunc("/{id}/filters/toggle", r.listingHandler.ToggleFilter).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/filters/scalar", r.listingHandler.SetScalarFilter).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/filters/clear", r.listingHandler.ClearFilters).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/search", r.listingHandler.SetSearchTerm).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/sort", r.listingHandler.SetSort).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/page", r.listingHandler.SetPage).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/refresh", r.listingHandler.Refresh).Methods(http.MethodPost)

	// CORS preflight for every route
	r.router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(r.preflight)

	// Add middlewares
	r.router.Use(metrics.Middleware)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	response.Success(w, http.StatusOK, "ok", map[string]string{"status": "up"})
}

func (r *Router) preflight(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
