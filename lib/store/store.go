// Package store holds the loaded dataset and answers the dashboard's
// aggregate queries. All reads run against an in-memory SQLite database;
// Reload swaps the whole dataset atomically, so a request either sees the
// previous load or the new one, never a mix.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/cinedash/cinedash/models"
)

// MinActorCredits is the appearance floor for the actor leaderboards. An
// actor with a single credit never appears, no matter the ROI.
const MinActorCredits = 2

// Filter is the conjunctive movie-level predicate driven by the two
// dropdowns. An empty field means "All" and removes that predicate.
type Filter struct {
	Studio    string
	Franchise string
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Studio != "" {
		q = q.Where("studio = ?", f.Studio)
	}
	if f.Franchise != "" {
		q = q.Where("franchise = ?", f.Franchise)
	}
	return q
}

// ActorStat is one leaderboard row: an actor, their mean ROI across credited
// movies (rounded to 1 decimal), and how many credits they have.
type ActorStat struct {
	Actor   string  `json:"actor"`
	AvgROI  float64 `json:"avg_roi" gorm:"column:avg_roi"`
	Credits int     `json:"credits" gorm:"column:credits"`
}

// Store wraps the database behind a read-write lock. Queries take the read
// lock; Reload takes the write lock while it replaces every row.
type Store struct {
	mu       sync.RWMutex
	db       *gorm.DB
	logger   *slog.Logger
	loadedAt time.Time
}

func New(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Reload replaces the dataset with a fresh load of the source file. Runs in
// a single transaction so readers never observe a half-replaced table.
func (s *Store) Reload(ctx context.Context, movies []models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.CastCredit{}).Error; err != nil {
			return fmt.Errorf("failed to clear cast credits: %w", err)
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.Movie{}).Error; err != nil {
			return fmt.Errorf("failed to clear movies: %w", err)
		}
		if len(movies) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&movies, 100).Error; err != nil {
			return fmt.Errorf("failed to insert movies: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.loadedAt = time.Now()
	s.logger.Info("Dataset loaded", slog.Int("movies", len(movies)))
	return nil
}

// LoadedAt reports when the current dataset was loaded; zero before the
// first successful Reload.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Counts returns the number of movie rows and exploded cast-credit rows.
func (s *Store) Counts(ctx context.Context) (movies, credits int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.db.WithContext(ctx).Model(&models.Movie{}).Count(&movies).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count movies: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.CastCredit{}).Count(&credits).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count cast credits: %w", err)
	}
	return movies, credits, nil
}

// Ping checks the underlying database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Studios returns the distinct non-empty studios, sorted ascending.
func (s *Store) Studios(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var studios []string
	err := s.db.WithContext(ctx).Model(&models.Movie{}).
		Distinct("studio").
		Where("studio <> ''").
		Order("studio ASC").
		Pluck("studio", &studios).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list studios: %w", err)
	}
	return studios, nil
}

// Franchises returns the distinct non-empty franchises, restricted to the
// given studio when one is selected, sorted ascending. An empty studio
// returns the full franchise list.
func (s *Store) Franchises(ctx context.Context, studio string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := s.db.WithContext(ctx).Model(&models.Movie{}).
		Distinct("franchise").
		Where("franchise <> ''")
	if studio != "" {
		q = q.Where("studio = ?", studio)
	}

	var franchises []string
	if err := q.Order("franchise ASC").Pluck("franchise", &franchises).Error; err != nil {
		return nil, fmt.Errorf("failed to list franchises: %w", err)
	}
	return franchises, nil
}

// Movies returns the filtered movie set ordered by release date.
func (s *Store) Movies(ctx context.Context, f Filter) ([]models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var movies []models.Movie
	err := f.apply(s.db.WithContext(ctx).Model(&models.Movie{})).
		Order("release_date ASC, title ASC").
		Find(&movies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	return movies, nil
}

// AverageROI returns the arithmetic mean ROI over the filtered movie set.
// Movies with undefined ROI are excluded, not counted as zero. The second
// return is false when no movie in the set has a defined ROI.
func (s *Store) AverageROI(ctx context.Context, f Filter) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := f.apply(s.db.WithContext(ctx).Model(&models.Movie{})).
		Select("AVG(roi)").Row()

	var avg sql.NullFloat64
	if err := row.Scan(&avg); err != nil {
		return 0, false, fmt.Errorf("failed to compute average ROI: %w", err)
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}

// TopActors returns the highest-mean-ROI actors with at least
// MinActorCredits credits. Computed over the full unfiltered dataset.
// Ties are broken by actor name ascending so output is reproducible.
func (s *Store) TopActors(ctx context.Context, limit int) ([]ActorStat, error) {
	return s.actorLeaderboard(ctx, limit, "avg_roi DESC, actor ASC")
}

// BottomActors returns the lowest-mean-ROI actors with at least
// MinActorCredits credits, lowest first.
func (s *Store) BottomActors(ctx context.Context, limit int) ([]ActorStat, error) {
	return s.actorLeaderboard(ctx, limit, "avg_roi ASC, actor ASC")
}

func (s *Store) actorLeaderboard(ctx context.Context, limit int, order string) ([]ActorStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// COUNT(*) counts every credit, AVG(roi) skips undefined ROI. Actors
	// whose every credit has undefined ROI are dropped entirely.
	var stats []ActorStat
	err := s.db.WithContext(ctx).Model(&models.CastCredit{}).
		Select("actor, AVG(roi) AS avg_roi, COUNT(*) AS credits").
		Group("actor").
		Having("COUNT(*) >= ? AND AVG(roi) IS NOT NULL", MinActorCredits).
		Order(order).
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute actor leaderboard: %w", err)
	}

	for i := range stats {
		stats[i].AvgROI = math.Round(stats[i].AvgROI*10) / 10
	}
	return stats, nil
}
