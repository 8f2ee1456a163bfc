package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinedash/cinedash/lib/db"
	"github.com/cinedash/cinedash/models"
)

var dbSeq int

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dbSeq++
	gdb, err := db.Open(fmt.Sprintf("store_test_%d", dbSeq), logger)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(gdb, logger))

	return New(gdb, logger)
}

func movie(title, studio, franchise string, year int, roi *float64, cast ...string) models.Movie {
	m := models.Movie{
		Title:       title,
		Studio:      studio,
		Franchise:   franchise,
		ReleaseDate: time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC),
		Year:        year,
		ROI:         roi,
	}
	for _, actor := range cast {
		m.Cast = append(m.Cast, models.CastCredit{
			Actor:       actor,
			MovieTitle:  title,
			Studio:      studio,
			Franchise:   franchise,
			ReleaseDate: m.ReleaseDate,
			Year:        year,
			ROI:         roi,
		})
	}
	return m
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	movies := []models.Movie{
		movie("Alpha One", "Orbit Pictures", "Alpha", 2010, ptr(100), "Alice Adams", "Bob Brown"),
		movie("Alpha Two", "Orbit Pictures", "Alpha", 2012, ptr(50), "Alice Adams"),
		movie("Beta", "Orbit Pictures", "Beta", 2015, ptr(-50), "Bob Brown", "Solo Star"),
		movie("Gamma", "Maple Films", "Gamma", 2018, ptr(20), "Alice Adams"),
		movie("Delta", "Maple Films", "", 2020, nil, "Bob Brown"),
	}
	require.NoError(t, s.Reload(context.Background(), movies))
}

func TestStudiosAndFranchises(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	studios, err := s.Studios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Maple Films", "Orbit Pictures"}, studios)

	all, err := s.Franchises(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, all)

	orbit, err := s.Franchises(ctx, "Orbit Pictures")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, orbit)

	maple, err := s.Franchises(ctx, "Maple Films")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma"}, maple)

	// Selecting "All" again restores the full list.
	restored, err := s.Franchises(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, all, restored)
}

func TestMoviesFiltering(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	all, err := s.Movies(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "Alpha One", all[0].Title)

	orbit, err := s.Movies(ctx, Filter{Studio: "Orbit Pictures"})
	require.NoError(t, err)
	assert.Len(t, orbit, 3)

	alpha, err := s.Movies(ctx, Filter{Studio: "Orbit Pictures", Franchise: "Alpha"})
	require.NoError(t, err)
	assert.Len(t, alpha, 2)

	none, err := s.Movies(ctx, Filter{Studio: "No Such Studio"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAverageROI(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	// Delta's undefined ROI is excluded: (100 + 50 - 50 + 20) / 4.
	avg, ok, err := s.AverageROI(ctx, Filter{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 30.0, avg, 1e-9)

	avg, ok, err = s.AverageROI(ctx, Filter{Studio: "Orbit Pictures"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 100.0/3, avg, 1e-9)

	avg, ok, err = s.AverageROI(ctx, Filter{Studio: "Maple Films", Franchise: "Gamma"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 20.0, avg, 1e-9)

	// No defined ROI in the set at all.
	_, ok, err = s.AverageROI(ctx, Filter{Studio: "No Such Studio"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAverageROIFilterRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	before, ok, err := s.AverageROI(ctx, Filter{})
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = s.AverageROI(ctx, Filter{Studio: "Orbit Pictures"})
	require.NoError(t, err)

	after, ok, err := s.AverageROI(ctx, Filter{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestActorLeaderboards(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	// Alice: (100 + 50 + 20) / 3 = 56.7. Bob: three credits but one has
	// undefined ROI, so (100 - 50) / 2 = 25.0. Solo Star has one credit
	// and never appears.
	top, err := s.TopActors(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Alice Adams", top[0].Actor)
	assert.InDelta(t, 56.7, top[0].AvgROI, 1e-9)
	assert.Equal(t, 3, top[0].Credits)
	assert.Equal(t, "Bob Brown", top[1].Actor)
	assert.InDelta(t, 25.0, top[1].AvgROI, 1e-9)
	assert.Equal(t, 3, top[1].Credits)

	bottom, err := s.BottomActors(ctx, 5)
	require.NoError(t, err)
	require.Len(t, bottom, 2)
	assert.Equal(t, "Bob Brown", bottom[0].Actor)
	assert.Equal(t, "Alice Adams", bottom[1].Actor)
}

func TestActorLeaderboardTieBreak(t *testing.T) {
	s := newTestStore(t)
	movies := []models.Movie{
		movie("M1", "S", "", 2010, ptr(10), "Zed Zulu", "Ann Able"),
		movie("M2", "S", "", 2011, ptr(10), "Zed Zulu", "Ann Able"),
	}
	require.NoError(t, s.Reload(context.Background(), movies))

	top, err := s.TopActors(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	// Equal mean ROI resolves by actor name ascending.
	assert.Equal(t, "Ann Able", top[0].Actor)
	assert.Equal(t, "Zed Zulu", top[1].Actor)
}

func TestReloadReplacesDataset(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	moviesN, creditsN, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, moviesN)
	assert.EqualValues(t, 7, creditsN)

	require.NoError(t, s.Reload(ctx, []models.Movie{
		movie("Only One", "Solo Studio", "", 2021, ptr(5), "Carol Chen"),
	}))

	moviesN, creditsN, err = s.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moviesN)
	assert.EqualValues(t, 1, creditsN)

	studios, err := s.Studios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Solo Studio"}, studios)
	assert.False(t, s.LoadedAt().IsZero())
}

func ptr(f float64) *float64 { return &f }
