// Package charts builds Vega-Lite specifications for the dashboard. The
// server does the aggregation; these specs only describe encoding, so the
// browser-side renderer works off plain inline values.
package charts

import (
	"time"

	"github.com/cinedash/cinedash/models"
)

const schemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Spec is a Vega-Lite specification ready for JSON marshaling.
type Spec map[string]any

// row is one inline datum. Money fields are pre-scaled to millions for the
// tooltip's "$.1f" format.
type row struct {
	Title       string   `json:"title"`
	ReleaseDate string   `json:"release_date"`
	Studio      string   `json:"studio"`
	Franchise   string   `json:"franchise"`
	ROI         *float64 `json:"roi"`
	BudgetM     *float64 `json:"adjusted_budget_m"`
	BoxOfficeM  *float64 `json:"adjusted_intl_box_office_m"`
}

func toRows(movies []models.Movie) []row {
	rows := make([]row, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, row{
			Title:       m.Title,
			ReleaseDate: m.ReleaseDate.Format(time.DateOnly),
			Studio:      m.Studio,
			Franchise:   m.Franchise,
			ROI:         m.ROI,
			BudgetM:     inMillions(m.AdjustedBudget),
			BoxOfficeM:  inMillions(m.AdjustedInternationalBoxOffice),
		})
	}
	return rows
}

func inMillions(v *float64) *float64 {
	if v == nil {
		return nil
	}
	m := *v / 1e6
	return &m
}

// Scatter builds the ROI-over-time scatter plot: one point per movie,
// colored by studio, with pan/zoom bound to the scales.
func Scatter(movies []models.Movie) Spec {
	return Spec{
		"$schema": schemaURL,
		"title":   "ROI Over Time",
		"width":   "container",
		"height":  340,
		"data":    map[string]any{"values": toRows(movies)},
		"mark":    map[string]any{"type": "circle", "size": 60},
		"encoding": map[string]any{
			"x": map[string]any{"field": "release_date", "type": "temporal", "title": "Release Date"},
			"y": map[string]any{"field": "roi", "type": "quantitative", "title": "ROI (%)"},
			"color": map[string]any{"field": "studio", "type": "nominal", "title": "Studio"},
			"tooltip": []any{
				map[string]any{"field": "title", "type": "nominal", "title": "Movie Title"},
				map[string]any{"field": "release_date", "type": "temporal", "title": "Release Date"},
				map[string]any{"field": "adjusted_budget_m", "type": "quantitative", "title": "Adjusted Budget (M)", "format": "$.1f"},
				map[string]any{"field": "adjusted_intl_box_office_m", "type": "quantitative", "title": "Adjusted International Box Office (M)", "format": "$.1f"},
				map[string]any{"field": "roi", "type": "quantitative", "title": "ROI", "format": ".1f"},
			},
		},
		"params": []any{
			map[string]any{"name": "pan_zoom", "select": "interval", "bind": "scales"},
		},
	}
}

// Distribution builds the ROI box plot. With no studio selected it groups by
// studio; with a studio selected it switches to grouping by franchise within
// that studio. Groups are sorted descending by ROI either way.
func Distribution(movies []models.Movie, studioSelected bool) Spec {
	groupField := "studio"
	groupTitle := "Studio"
	title := "ROI Distribution by Studio"
	if studioSelected {
		groupField = "franchise"
		groupTitle = "Franchise"
		title = "ROI Distribution by Franchise"
	}

	return Spec{
		"$schema": schemaURL,
		"title":   title,
		"width":   "container",
		"height":  340,
		"data":    map[string]any{"values": toRows(movies)},
		"mark":    map[string]any{"type": "boxplot"},
		"encoding": map[string]any{
			"x": map[string]any{
				"field": groupField,
				"type":  "nominal",
				"title": groupTitle,
				"sort":  map[string]any{"field": "roi", "order": "descending"},
			},
			"y":     map[string]any{"field": "roi", "type": "quantitative", "title": "ROI (%)"},
			"color": map[string]any{"field": groupField, "type": "nominal", "title": groupTitle},
			"tooltip": map[string]any{
				"field": "roi", "type": "quantitative", "title": "ROI", "format": ".1f",
			},
		},
	}
}
