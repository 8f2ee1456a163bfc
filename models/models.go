package models

import (
	"time"

	"gorm.io/gorm"
)

// Movie is one row of the movie-finance dataset after cleaning. Currency
// columns are pointers: a value that could not be parsed is nil, not zero,
// so averages skip it.
type Movie struct {
	gorm.Model
	Title                          string `gorm:"index"`
	Studio                         string `gorm:"index"`
	Franchise                      string `gorm:"index"`
	ReleaseDate                    time.Time
	Budget                         *float64
	AdjustedBudget                 *float64
	DomesticBoxOffice              *float64
	AdjustedDomesticBoxOffice      *float64
	InternationalBoxOffice         *float64
	AdjustedInternationalBoxOffice *float64
	TotalPL                        *float64 `gorm:"column:total_pl"`
	AdjustedTotalPL                *float64 `gorm:"column:adjusted_total_pl"`

	// Derived once at load time, never mutated afterwards.
	ROI  *float64 `gorm:"column:roi"`
	Year int
	Cast []CastCredit
}

// CastCredit is one (movie, actor) pair from the exploded cast column.
// The movie attributes needed for actor-level aggregation are denormalized
// onto it so leaderboard queries never join back to movies.
type CastCredit struct {
	gorm.Model
	MovieID     uint   `gorm:"index"`
	Actor       string `gorm:"index"`
	MovieTitle  string
	Studio      string
	Franchise   string
	ReleaseDate time.Time
	Year        int
	ROI         *float64 `gorm:"column:roi"`
}
