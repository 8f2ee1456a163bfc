package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}

func TestNewAppFailsWithoutCSV(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{
		Port:    "0",
		CSVPath: filepath.Join(t.TempDir(), "missing.csv"),
	}

	_, err := NewApp(cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestNewAppServesDashboard(t *testing.T) {
	csv := "Movie Title,Studio,Franchise,Release Date,Budget,Adjusted Budget," +
		"Domestic Box Office,Adjusted Domestic Box Office,International Box Office," +
		"Adjusted International Box Office,Total P/L,Adjusted Total P/L,Cast\n" +
		`Space Saga,Orbit Pictures,Saga,2010-05-21,"$10,000,000","$10,000,000","$30,000,000","$32,000,000","$45,000,000","$50,000,000","$65,000,000","$72,000,000","""Alice Adams, Bob Brown"""` + "\n"

	path := filepath.Join(t.TempDir(), "movie_database.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := NewApp(Config{Port: "0", CSVPath: path, Watch: false}, logger)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Movie Data Dashboard")
	assert.Contains(t, rec.Body.String(), "100.00%")

	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"movies":1`)
}
