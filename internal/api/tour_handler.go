package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/natours-api/internal/api/shared"
	"github.com/phrazzld/natours-api/internal/domain"
	"github.com/phrazzld/natours-api/internal/query"
	"github.com/phrazzld/natours-api/internal/service"
	"github.com/phrazzld/natours-api/internal/store"
)

// topToursQuery is merged into the query string of the top-5-cheap alias.
var topToursQuery = map[string]string{
	query.ParamLimit:  "5",
	query.ParamSort:   "-ratingsAverage,price",
	query.ParamFields: "name,price,ratingsAverage,summary,difficulty",
}

// TourHandler serves the tour routes.
type TourHandler struct {
	Resource[domain.Tour, *domain.Tour]
	tours *service.TourService
}

// NewTourHandler creates a TourHandler. Listed tours carry their guides;
// a single tour also carries its reviews.
func NewTourHandler(repo store.TourStore, tours *service.TourService, now func() time.Time) *TourHandler {
	return &TourHandler{
		Resource: Resource[domain.Tour, *domain.Tour]{
			Name:        "tour",
			Repo:        repo,
			Schema:      domain.TourSchema,
			Populate:    tours.PopulateGuides,
			PopulateOne: tours.Populate,
			Preserve: func(stored, updated *domain.Tour) {
				updated.CreatedAt = stored.CreatedAt
				updated.Version = stored.Version
			},
			Now: now,
		},
		tours: tours,
	}
}

// AliasTopTours rewrites the query string to list the five best rated,
// cheapest tours.
func AliasTopTours(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = r.Clone(r.Context())
		values := r.URL.Query()
		for key, value := range topToursQuery {
			values.Set(key, value)
		}
		r.URL.RawQuery = values.Encode()
		next.ServeHTTP(w, r)
	})
}

// GetStats answers the per-difficulty statistics of well rated tours.
func (h *TourHandler) GetStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		return err
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{
		Status: shared.StatusSuccess,
		Data:   map[string]any{"stats": stats},
	})
	return nil
}

// GetMonthlyPlan answers the busiest months of the year in the path.
func (h *TourHandler) GetMonthlyPlan(w http.ResponseWriter, r *http.Request) error {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return domain.ErrInvalidYear
	}

	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		return err
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.Response{
		Status: shared.StatusSuccess,
		Data:   map[string]any{"plan": plan},
	})
	return nil
}

// GetToursWithin lists the tours starting within a distance of a point.
func (h *TourHandler) GetToursWithin(w http.ResponseWriter, r *http.Request) error {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil {
		return domain.ValidationErrors{"Please provide a positive distance."}
	}
	center, unit, err := geoParams(r)
	if err != nil {
		return err
	}

	tours, err := h.tours.Within(r.Context(), distance, center, unit)
	if err != nil {
		return err
	}
	shaped, err := query.ShapeAll(tours, query.New(h.Schema))
	if err != nil {
		return err
	}
	shared.RespondWithList(w, r, shaped, len(shaped))
	return nil
}

// GetDistances answers the distance of every tour from a point.
func (h *TourHandler) GetDistances(w http.ResponseWriter, r *http.Request) error {
	center, unit, err := geoParams(r)
	if err != nil {
		return err
	}

	distances, err := h.tours.Distances(r.Context(), center, unit)
	if err != nil {
		return err
	}
	shared.RespondWithData(w, r, http.StatusOK, distances)
	return nil
}

func geoParams(r *http.Request) (domain.LatLng, domain.Unit, error) {
	center, err := domain.ParseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		return domain.LatLng{}, "", err
	}
	unit, err := domain.ParseUnit(chi.URLParam(r, "unit"))
	if err != nil {
		return domain.LatLng{}, "", err
	}
	return center, unit, nil
}
