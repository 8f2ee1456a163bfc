// Package health exposes a liveness endpoint covering the database
// connection and the loaded dataset.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/cinedash/cinedash/lib/store"
)

// Health is the health check response.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DB        struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	} `json:"db"`
	Dataset struct {
		Movies      int64     `json:"movies"`
		CastCredits int64     `json:"cast_credits"`
		LoadedAt    time.Time `json:"loaded_at"`
	} `json:"dataset"`
}

// Check returns an HTTP handler that pings the database and reports the
// current dataset's row counts and load time.
func Check(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := Health{
			Status:    "ok",
			Timestamp: time.Now(),
		}
		health.DB.Status = "ok"
		health.Dataset.LoadedAt = s.LoadedAt()

		if err := s.Ping(ctx); err != nil {
			health.Status = "degraded"
			health.DB.Status = "error"
			health.DB.Message = "Database ping failed"
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, health)
			return
		}

		movies, credits, err := s.Counts(ctx)
		if err != nil {
			health.Status = "degraded"
			health.DB.Status = "error"
			health.DB.Message = "Failed to count dataset rows"
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, health)
			return
		}
		health.Dataset.Movies = movies
		health.Dataset.CastCredits = credits

		render.JSON(w, r, health)
	}
}
