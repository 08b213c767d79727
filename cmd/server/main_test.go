package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pv_optimizer/internal/config"
	"pv_optimizer/internal/solar"
	"pv_optimizer/internal/ws"
)

func TestNewEngine(t *testing.T) {
	cfg := config.Default()
	cfg.Weather.Calculator = "ephemeris"

	engine, err := newEngine(cfg, ws.NewBridge(ws.NewHub()), nil)
	require.NoError(t, err)

	p := engine.Plant()
	assert.Equal(t, cfg.Location, p.Location)
	assert.Equal(t, cfg.Orientation, p.Orientation)
	assert.Equal(t, "idle", string(engine.State().Status))
	assert.IsType(t, solar.Ephemeris{}, cfg.Calculator())
}

func TestNewEngine_InvalidPlant(t *testing.T) {
	cfg := config.Default()
	cfg.Location.Latitude = 120

	_, err := newEngine(cfg, nil, nil)
	assert.Error(t, err)
}

func TestServeFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))

	router := mux.NewRouter()
	serveFrontend(router, dir)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<html>")
}

func TestServeFrontend_MissingDir(t *testing.T) {
	router := mux.NewRouter()
	serveFrontend(router, filepath.Join(t.TempDir(), "nope"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
