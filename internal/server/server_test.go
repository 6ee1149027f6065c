package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"geosales-dashboard/internal/config"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/services"
	"geosales-dashboard/internal/store"
)

const routesCSV = `fecha,hora,latitud,longitud,producto,categoria,cantidad,precio
2024-01-01,9:00 AM,4.6000,-74.0800,Arroz,Food,1,100
2024-01-02,10:00 AM,4.6001,-74.0801,Pan,Food,2,100
2024-01-03,11:00 AM,4.6002,-74.0802,Arroz,Food,3,100
`

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(st.Dir(), "ventas.csv"), []byte(routesCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	analytics := services.NewAnalytics(st, services.Options{
		MapParams:  geo.Params{Eps: 0.01, MinSamples: 2},
		ZoneParams: geo.Params{Eps: 0.005, MinSamples: 3},
		Logger:     quietLogger,
	})
	dashboard := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dashboard"))
	}
	return NewServer(analytics, quietLogger, &TemplateHandlers{Dashboard: dashboard}, Options{MaxUploadBytes: 1 << 20})
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		status int
		want   string
	}{
		{http.MethodGet, "/", http.StatusOK, "dashboard"},
		{http.MethodGet, "/health", http.StatusOK, "healthy"},
		{http.MethodGet, "/admin/stats", http.StatusOK, "reports_served"},
		{http.MethodGet, "/api/files", http.StatusOK, "ventas.csv"},
		{http.MethodGet, "/api/data/ventas.csv", http.StatusOK, `"clusters_found":1`},
		{http.MethodGet, "/api/analytics/ventas.csv", http.StatusOK, `"products"`},
		{http.MethodGet, "/api/charts/ventas.csv", http.StatusOK, `"zone_performance"`},
		{http.MethodGet, "/api/charts/ventas.csv/trend?period=daily", http.StatusOK, `"2024-01-03"`},
		{http.MethodGet, "/api/charts/ventas.csv/categories", http.StatusOK, `"Food"`},
		{http.MethodGet, "/api/charts/ventas.csv/zones", http.StatusOK, `"zones"`},
		{http.MethodGet, "/api/charts/ventas.csv/heatmap", http.StatusOK, `"geographic"`},
		{http.MethodGet, "/api/summary/ventas.csv", http.StatusOK, `"popular_products"`},
		{http.MethodGet, "/api/dashboard/ventas.csv", http.StatusOK, `"heatmap"`},
		{http.MethodGet, "/sse/zones/ventas.csv", http.StatusOK, "zones-content"},
		{http.MethodGet, "/api/charts/otro.csv", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodGet, "/missing", http.StatusNotFound, ""},
		{http.MethodPost, "/api/files", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.want != "" && !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("response missing %q: %s", tt.want, w.Body.String())
			}
		})
	}
}

func TestGracefulServerShutdownHooks(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: time.Second}}
	gs := NewGracefulServer(&http.Server{Addr: "127.0.0.1:0"}, quietLogger, cfg)

	var closed atomic.Int32
	gs.RegisterShutdownHook("store", func(ctx context.Context) error {
		closed.Add(1)
		return nil
	})
	gs.RegisterShutdownHook("watcher", func(ctx context.Context) error {
		closed.Add(1)
		return errors.New("already closed")
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := gs.Shutdown(ctx)
	if err == nil || !strings.Contains(err.Error(), "watcher") {
		t.Errorf("Shutdown() error = %v, want the watcher hook failure", err)
	}
	if closed.Load() != 2 {
		t.Errorf("ran %d hooks, want 2", closed.Load())
	}
}
