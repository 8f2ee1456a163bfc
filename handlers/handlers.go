package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/render"

	"github.com/cinedash/cinedash/handlers/templates"
	"github.com/cinedash/cinedash/lib/charts"
	"github.com/cinedash/cinedash/lib/store"
)

const leaderboardSize = 5

type errorData struct {
	Message string
}

func renderError(w http.ResponseWriter, message string, status int) {
	tmpl, err := templates.ParseTemplates("base.html", "error.html")
	if err != nil {
		slog.Error("Failed to parse error template", slog.Any("error", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base.html", errorData{Message: message}); err != nil {
		slog.Error("Failed to execute error template", slog.Any("error", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// normalizeStudio resolves the studio query param against the live option
// set. "All" and values that match no studio both mean "no predicate".
func normalizeStudio(ctx context.Context, s *store.Store, studio string) (string, []string, error) {
	studios, err := s.Studios(ctx)
	if err != nil {
		return "", nil, err
	}
	if studio == "All" || (studio != "" && !slices.Contains(studios, studio)) {
		studio = ""
	}
	return studio, studios, nil
}

// filterFromQuery reads the studio/franchise selection from the query
// string. Both params are checked against the live option sets: the
// franchise set is recomputed for the selected studio first, so a franchise
// that is not in it (stale after a studio change) is dropped before the
// predicate is applied.
func filterFromQuery(r *http.Request, s *store.Store) (store.Filter, []string, []string, error) {
	studio, studios, err := normalizeStudio(r.Context(), s, r.URL.Query().Get("studio"))
	if err != nil {
		return store.Filter{}, nil, nil, err
	}

	franchise := r.URL.Query().Get("franchise")
	if franchise == "All" {
		franchise = ""
	}
	franchises, err := s.Franchises(r.Context(), studio)
	if err != nil {
		return store.Filter{}, nil, nil, err
	}
	if franchise != "" && !slices.Contains(franchises, franchise) {
		franchise = ""
	}

	return store.Filter{Studio: studio, Franchise: franchise}, studios, franchises, nil
}

type dashboardData struct {
	Studios           []string
	Franchises        []string
	SelectedStudio    string
	SelectedFranchise string
	AverageROI        string
	MovieCount        int
	TopActors         []store.ActorStat
	BottomActors      []store.ActorStat
	ScatterSpec       template.JS
	DistributionSpec  template.JS
}

// HandleDashboard renders the dashboard page. Every request recomputes the
// filtered aggregates and chart specs from scratch; a filter change is just
// a form resubmit of this same route.
func HandleDashboard(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter, studios, franchises, err := filterFromQuery(r, s)
		if err != nil {
			slog.Error("Failed to resolve filters", slog.Any("error", err))
			renderError(w, "Something went wrong while loading the filters.", http.StatusInternalServerError)
			return
		}

		movies, err := s.Movies(ctx, filter)
		if err != nil {
			slog.Error("Failed to query movies", slog.Any("error", err))
			renderError(w, "Something went wrong while loading the data.", http.StatusInternalServerError)
			return
		}

		avgDisplay := "N/A"
		if avg, ok, err := s.AverageROI(ctx, filter); err != nil {
			slog.Error("Failed to compute average ROI", slog.Any("error", err))
			renderError(w, "Something went wrong while computing the summary.", http.StatusInternalServerError)
			return
		} else if ok {
			avgDisplay = fmt.Sprintf("%.2f%%", avg)
		}

		// Leaderboards always run over the full dataset, unfiltered.
		top, err := s.TopActors(ctx, leaderboardSize)
		if err != nil {
			slog.Error("Failed to compute top actors", slog.Any("error", err))
			renderError(w, "Something went wrong while computing the leaderboards.", http.StatusInternalServerError)
			return
		}
		bottom, err := s.BottomActors(ctx, leaderboardSize)
		if err != nil {
			slog.Error("Failed to compute bottom actors", slog.Any("error", err))
			renderError(w, "Something went wrong while computing the leaderboards.", http.StatusInternalServerError)
			return
		}

		scatter, err := marshalSpec(charts.Scatter(movies))
		if err != nil {
			slog.Error("Failed to marshal scatter spec", slog.Any("error", err))
			renderError(w, "Something went wrong while building the charts.", http.StatusInternalServerError)
			return
		}
		distribution, err := marshalSpec(charts.Distribution(movies, filter.Studio != ""))
		if err != nil {
			slog.Error("Failed to marshal distribution spec", slog.Any("error", err))
			renderError(w, "Something went wrong while building the charts.", http.StatusInternalServerError)
			return
		}

		data := dashboardData{
			Studios:           studios,
			Franchises:        franchises,
			SelectedStudio:    filter.Studio,
			SelectedFranchise: filter.Franchise,
			AverageROI:        avgDisplay,
			MovieCount:        len(movies),
			TopActors:         top,
			BottomActors:      bottom,
			ScatterSpec:       scatter,
			DistributionSpec:  distribution,
		}

		tmpl, err := templates.ParseTemplates("base.html", "dashboard.html")
		if err != nil {
			slog.Error("Failed to parse template", slog.Any("error", err))
			renderError(w, "Something went wrong while loading the page.", http.StatusInternalServerError)
			return
		}
		if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
			slog.Error("Failed to execute template", slog.Any("error", err))
		}
	}
}

func marshalSpec(spec charts.Spec) (template.JS, error) {
	raw, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chart spec: %w", err)
	}
	return template.JS(raw), nil
}

// SummaryResponse mirrors the dashboard's three summary panels as JSON.
type SummaryResponse struct {
	Studio            string            `json:"studio"`
	Franchise         string            `json:"franchise"`
	MovieCount        int               `json:"movie_count"`
	AverageROI        *float64          `json:"average_roi"`
	AverageROIDisplay string            `json:"average_roi_display"`
	TopActors         []store.ActorStat `json:"top_actors"`
	BottomActors      []store.ActorStat `json:"bottom_actors"`
}

// HandleSummary returns the aggregate panel data for the given filters.
func HandleSummary(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter, _, _, err := filterFromQuery(r, s)
		if err != nil {
			apiError(w, r, err)
			return
		}

		movies, err := s.Movies(ctx, filter)
		if err != nil {
			apiError(w, r, err)
			return
		}

		resp := SummaryResponse{
			Studio:            filter.Studio,
			Franchise:         filter.Franchise,
			MovieCount:        len(movies),
			AverageROIDisplay: "N/A",
		}

		if avg, ok, err := s.AverageROI(ctx, filter); err != nil {
			apiError(w, r, err)
			return
		} else if ok {
			resp.AverageROI = &avg
			resp.AverageROIDisplay = fmt.Sprintf("%.2f%%", avg)
		}

		if resp.TopActors, err = s.TopActors(ctx, leaderboardSize); err != nil {
			apiError(w, r, err)
			return
		}
		if resp.BottomActors, err = s.BottomActors(ctx, leaderboardSize); err != nil {
			apiError(w, r, err)
			return
		}

		render.JSON(w, r, resp)
	}
}

// FranchisesResponse is the dependent dropdown's recomputed option set.
type FranchisesResponse struct {
	Studio     string   `json:"studio"`
	Franchises []string `json:"franchises"`
}

// HandleFranchises returns the franchises available under the selected
// studio, or all franchises when no studio is selected.
func HandleFranchises(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studio, _, err := normalizeStudio(r.Context(), s, r.URL.Query().Get("studio"))
		if err != nil {
			apiError(w, r, err)
			return
		}

		franchises, err := s.Franchises(r.Context(), studio)
		if err != nil {
			apiError(w, r, err)
			return
		}

		render.JSON(w, r, FranchisesResponse{Studio: studio, Franchises: franchises})
	}
}

func apiError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("Request failed", slog.Any("error", err), slog.String("path", r.URL.Path))
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]string{"error": "internal server error"})
}
