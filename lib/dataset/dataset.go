// Package dataset loads the movie-finance CSV and turns it into cleaned,
// fully-typed Movie records with their derived columns.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cinedash/cinedash/models"
)

// RequiredColumns are the CSV headers the loader refuses to run without.
var RequiredColumns = []string{
	"Movie Title",
	"Studio",
	"Franchise",
	"Release Date",
	"Budget",
	"Adjusted Budget",
	"Domestic Box Office",
	"Adjusted Domestic Box Office",
	"International Box Office",
	"Adjusted International Box Office",
	"Total P/L",
	"Adjusted Total P/L",
	"Cast",
}

// currencyColumns lists the headers cleaned by CleanCurrency, in source order.
var currencyColumns = []string{
	"Budget",
	"Adjusted Budget",
	"Domestic Box Office",
	"Adjusted Domestic Box Office",
	"International Box Office",
	"Adjusted International Box Office",
	"Total P/L",
	"Adjusted Total P/L",
}

// dateLayouts are tried in order when parsing Release Date.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// CleanCurrency strips the currency symbol and thousands separators from a
// raw cell and parses the remainder as a float. Unparseable or empty values
// come back as nil rather than an error; a missing number is tolerated data
// quality, not a load failure.
func CleanCurrency(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ComputeROI applies the dataset's return-on-investment formula:
//
//	((adjusted international box office / (adjusted budget * 2.5)) - 1) * 100
//
// A nil or zero adjusted budget, or a nil box office figure, yields nil.
// Consumers must skip nil ROI when averaging, never treat it as zero.
func ComputeROI(adjBudget, adjIntlBoxOffice *float64) *float64 {
	if adjBudget == nil || *adjBudget == 0 || adjIntlBoxOffice == nil {
		return nil
	}
	roi := ((*adjIntlBoxOffice / (*adjBudget * 2.5)) - 1) * 100
	return &roi
}

// SplitCast turns the raw cast cell, a quoted comma-separated list of names,
// into individual trimmed names. Empty entries are dropped.
func SplitCast(raw string) []string {
	s := strings.Trim(strings.TrimSpace(raw), `"`)
	if s == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ParseReleaseDate parses a release-date cell against the supported layouts.
func ParseReleaseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized release date %q", raw)
}

// Load reads the CSV at path and returns one Movie per row with currency
// columns cleaned, the release date parsed, and ROI, year and cast credits
// derived. Any read error, missing required column, or malformed date fails
// the whole load; callers must not serve a dashboard from a partial result.
func Load(path string) ([]models.Movie, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("movie CSV not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to open movie CSV: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Spreadsheet exports often prefix the file with a UTF-8 BOM, which
	// would otherwise glue itself onto the first column name.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := cols[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV is missing required columns: %s", strings.Join(missing, ", "))
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV rows: %w", err)
	}

	movies := make([]models.Movie, 0, len(rows))
	for i, row := range rows {
		cell := func(name string) string { return row[cols[name]] }

		releaseDate, err := ParseReleaseDate(cell("Release Date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		money := make(map[string]*float64, len(currencyColumns))
		for _, col := range currencyColumns {
			money[col] = CleanCurrency(cell(col))
		}

		movie := models.Movie{
			Title:                          strings.TrimSpace(cell("Movie Title")),
			Studio:                         strings.TrimSpace(cell("Studio")),
			Franchise:                      strings.TrimSpace(cell("Franchise")),
			ReleaseDate:                    releaseDate,
			Budget:                         money["Budget"],
			AdjustedBudget:                 money["Adjusted Budget"],
			DomesticBoxOffice:              money["Domestic Box Office"],
			AdjustedDomesticBoxOffice:      money["Adjusted Domestic Box Office"],
			InternationalBoxOffice:         money["International Box Office"],
			AdjustedInternationalBoxOffice: money["Adjusted International Box Office"],
			TotalPL:                        money["Total P/L"],
			AdjustedTotalPL:                money["Adjusted Total P/L"],
		}
		movie.ROI = ComputeROI(movie.AdjustedBudget, movie.AdjustedInternationalBoxOffice)
		movie.Year = releaseDate.Year()

		for _, actor := range SplitCast(cell("Cast")) {
			movie.Cast = append(movie.Cast, models.CastCredit{
				Actor:       actor,
				MovieTitle:  movie.Title,
				Studio:      movie.Studio,
				Franchise:   movie.Franchise,
				ReleaseDate: movie.ReleaseDate,
				Year:        movie.Year,
				ROI:         movie.ROI,
			})
		}

		movies = append(movies, movie)
	}

	return movies, nil
}
