package services

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"geosales-dashboard/internal/analytics"
	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/models"
	"geosales-dashboard/internal/observability"
	"geosales-dashboard/internal/store"
	"geosales-dashboard/internal/temporal"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	cacheVersion = "v1"
	warmWorkers  = 4
)

type Options struct {
	CacheDir       string
	MapParams      geo.Params
	ZoneParams     geo.Params
	LabelCacheSize int
	Logger         *slog.Logger
}

type cachedTable struct {
	info  models.DatasetInfo
	table *dataset.Table
}

// Analytics serves reports over stored datasets. Parsed tables are kept in
// memory and in a gob file per dataset identity, so a restart does not
// re-parse unchanged spreadsheets. Cached tables are never mutated; every
// report cleans its own copy.
type Analytics struct {
	store      store.Store
	labels     *geo.LabelCache
	cacheDir   string
	mapParams  geo.Params
	zoneParams geo.Params
	logger     *slog.Logger

	mu     sync.RWMutex
	tables map[string]cachedTable
	loads  singleflight.Group

	tablesLoaded  atomic.Int64
	diskHits      atomic.Int64
	rowsProcessed atomic.Int64
	reportsServed atomic.Int64
	reportErrors  atomic.Int64
	uploads       atomic.Int64
	lastLoaded    atomic.Int64
}

func NewAnalytics(st store.Store, opts Options) *Analytics {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LabelCacheSize <= 0 {
		opts.LabelCacheSize = 256
	}
	return &Analytics{
		store:      st,
		labels:     geo.NewLabelCache(geo.DBSCAN{}, opts.LabelCacheSize),
		cacheDir:   opts.CacheDir,
		mapParams:  opts.MapParams,
		zoneParams: opts.ZoneParams,
		logger:     logger,
		tables:     make(map[string]cachedTable),
	}
}

func (a *Analytics) MapParams() geo.Params  { return a.mapParams }
func (a *Analytics) ZoneParams() geo.Params { return a.zoneParams }

// Upload stores a new sales sheet and primes the table cache with it.
func (a *Analytics) Upload(ctx context.Context, filename string, r io.Reader) (models.UploadResult, error) {
	ctx, span := observability.StartSpan(ctx, "analytics.upload")
	span.SetTag("filename", filename)

	table, info, err := a.store.Save(ctx, filename, r)
	if err != nil {
		span.End(a.logger, err)
		return models.UploadResult{}, fmt.Errorf("upload %s: %w", filename, err)
	}

	a.Invalidate(info.Name)
	a.mu.Lock()
	a.tables[info.Name] = cachedTable{info: info, table: table}
	a.mu.Unlock()
	a.uploads.Add(1)

	result := models.UploadResult{
		UploadID:     uuid.NewString(),
		Filename:     info.Name,
		RecordsCount: table.Len(),
		Size:         info.Size,
	}
	span.SetTag("records", strconv.Itoa(result.RecordsCount))
	span.End(a.logger, nil)

	a.logger.Info("dataset uploaded",
		"filename", result.Filename,
		"records", result.RecordsCount,
		"upload_id", result.UploadID,
	)
	return result, nil
}

func (a *Analytics) Files(ctx context.Context) ([]models.DatasetInfo, error) {
	files, err := a.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return files, nil
}

func (a *Analytics) MapData(ctx context.Context, name string, p geo.Params) (models.MapData, error) {
	return report(ctx, a, "map", name, func(e *analytics.Engine, t *dataset.Table) (models.MapData, error) {
		return e.BuildMapData(t, p)
	})
}

func (a *Analytics) ProductAnalytics(ctx context.Context, name string) (models.ProductAnalytics, error) {
	return report(ctx, a, "products", name, func(_ *analytics.Engine, t *dataset.Table) (models.ProductAnalytics, error) {
		return analytics.BuildProductAnalytics(t)
	})
}

func (a *Analytics) Charts(ctx context.Context, name string, p geo.Params) (models.ChartsReport, error) {
	return report(ctx, a, "charts", name, func(e *analytics.Engine, t *dataset.Table) (models.ChartsReport, error) {
		return e.BuildCharts(t, p)
	})
}

func (a *Analytics) Trend(ctx context.Context, name string, period temporal.Period, metric analytics.Metric, limit int) (models.TrendReport, error) {
	return report(ctx, a, "trend", name, func(_ *analytics.Engine, t *dataset.Table) (models.TrendReport, error) {
		return analytics.BuildTrendReport(t, period, metric, limit)
	})
}

func (a *Analytics) Categories(ctx context.Context, name string) (models.CategoryReport, error) {
	return report(ctx, a, "categories", name, func(_ *analytics.Engine, t *dataset.Table) (models.CategoryReport, error) {
		return analytics.BuildCategoryReport(t)
	})
}

func (a *Analytics) Zones(ctx context.Context, name string, p geo.Params) (models.ZoneReport, error) {
	return report(ctx, a, "zones", name, func(e *analytics.Engine, t *dataset.Table) (models.ZoneReport, error) {
		return e.BuildZoneReport(t, p)
	})
}

func (a *Analytics) Heatmap(ctx context.Context, name string) (models.HeatmapReport, error) {
	return report(ctx, a, "heatmap", name, func(_ *analytics.Engine, t *dataset.Table) (models.HeatmapReport, error) {
		return analytics.BuildHeatmapReport(t)
	})
}

func (a *Analytics) Summary(ctx context.Context, name string, p geo.Params) (models.SummaryReport, error) {
	return report(ctx, a, "summary", name, func(e *analytics.Engine, t *dataset.Table) (models.SummaryReport, error) {
		return e.BuildSummary(t, p)
	})
}

func (a *Analytics) Dashboard(ctx context.Context, name string, p geo.Params) (models.DashboardReport, error) {
	return report(ctx, a, "dashboard", name, func(e *analytics.Engine, t *dataset.Table) (models.DashboardReport, error) {
		return e.BuildDashboard(t, p)
	})
}

// report loads the named table and runs build inside a span. The engine it
// receives clusters through the label cache scoped to the dataset identity.
func report[T any](ctx context.Context, a *Analytics, op, name string, build func(*analytics.Engine, *dataset.Table) (T, error)) (T, error) {
	var zero T
	ctx, span := observability.StartSpan(ctx, "analytics."+op)
	span.SetTag("filename", name)
	logger := observability.LoggerFrom(ctx, a.logger)

	table, info, err := a.table(ctx, name)
	if err != nil {
		a.reportErrors.Add(1)
		span.End(logger, err)
		return zero, err
	}
	span.SetTag("rows", strconv.Itoa(table.Len()))

	engine := analytics.NewEngine(a.labels.ForDataset(info.Identity()))
	out, err := build(engine, table)
	span.End(logger, err)
	if err != nil {
		a.reportErrors.Add(1)
		return zero, fmt.Errorf("%s report for %s: %w", op, name, err)
	}
	a.reportsServed.Add(1)
	return out, nil
}

// table returns the parsed dataset, consulting memory, then the gob cache,
// then the store. Concurrent misses for one name share a single load.
func (a *Analytics) table(ctx context.Context, name string) (*dataset.Table, models.DatasetInfo, error) {
	info, err := a.store.Stat(ctx, name)
	if err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("stat %s: %w", name, err)
	}

	a.mu.RLock()
	cached, ok := a.tables[info.Name]
	a.mu.RUnlock()
	if ok && cached.info.Identity() == info.Identity() {
		return cached.table, cached.info, nil
	}

	v, err, _ := a.loads.Do(info.Identity(), func() (any, error) {
		return a.load(ctx, info)
	})
	if err != nil {
		return nil, models.DatasetInfo{}, err
	}
	loaded := v.(cachedTable)
	return loaded.table, loaded.info, nil
}

func (a *Analytics) load(ctx context.Context, info models.DatasetInfo) (cachedTable, error) {
	start := time.Now()

	if table, err := a.loadFromCache(info); err == nil {
		a.diskHits.Add(1)
		a.remember(info, table)
		a.logger.Info("loaded from cache", "filename", info.Name, "records", table.Len())
		return cachedTable{info: info, table: table}, nil
	}

	table, loadedInfo, err := a.store.Load(ctx, info.Name)
	if err != nil {
		return cachedTable{}, fmt.Errorf("load %s: %w", info.Name, err)
	}

	a.removeCacheFiles(loadedInfo.Name)
	if err := a.saveToCache(loadedInfo, table); err != nil {
		a.logger.Warn("failed to save cache", "filename", loadedInfo.Name, "error", err)
	}

	a.remember(loadedInfo, table)
	a.tablesLoaded.Add(1)
	a.rowsProcessed.Add(int64(table.Len()))

	duration := time.Since(start)
	a.logger.Info("dataset processing complete",
		"filename", loadedInfo.Name,
		"records", table.Len(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(table.Len())/max(duration.Seconds(), 1e-9)),
	)
	return cachedTable{info: loadedInfo, table: table}, nil
}

func (a *Analytics) remember(info models.DatasetInfo, table *dataset.Table) {
	a.mu.Lock()
	a.tables[info.Name] = cachedTable{info: info, table: table}
	a.mu.Unlock()
	a.lastLoaded.Store(time.Now().UnixNano())
}

// Invalidate drops every cached artifact derived from the named dataset.
func (a *Analytics) Invalidate(name string) {
	a.mu.Lock()
	delete(a.tables, name)
	a.mu.Unlock()
	a.labels.Invalidate(name)
	a.removeCacheFiles(name)
	a.logger.Debug("dataset cache invalidated", "filename", name)
}

// Refresh invalidates name unless the cached table already matches the
// stored file, as it does right after Upload. It reports whether the cache
// was dropped.
func (a *Analytics) Refresh(ctx context.Context, name string) bool {
	info, err := a.store.Stat(ctx, name)
	if err == nil {
		a.mu.RLock()
		cached, ok := a.tables[info.Name]
		a.mu.RUnlock()
		if ok && cached.info.Identity() == info.Identity() {
			a.logger.Debug("dataset cache current", "filename", info.Name)
			return false
		}
	}
	a.Invalidate(name)
	return true
}

// Warm loads every stored dataset in parallel. Datasets that fail to load
// are logged and skipped.
func (a *Analytics) Warm(ctx context.Context) error {
	files, err := a.Files(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmWorkers)
	for _, f := range files {
		g.Go(func() error {
			if _, _, err := a.table(gctx, f.Name); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				a.logger.Warn("failed to warm dataset", "filename", f.Name, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("warm datasets: %w", err)
	}
	a.logger.Info("datasets warmed", "count", len(files))
	return nil
}

// Cache management
func (a *Analytics) cacheFilename(info models.DatasetInfo) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(info.Identity()))
	return filepath.Join(a.cacheDir, fmt.Sprintf("%s_%016x_%s.gob", info.Name, h.Sum64(), cacheVersion))
}

func (a *Analytics) saveToCache(info models.DatasetInfo, table *dataset.Table) error {
	if a.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(a.cacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.CreateTemp(a.cacheDir, ".gob-*")
	if err != nil {
		return err
	}
	defer os.Remove(file.Name())

	if err := gob.NewEncoder(file).Encode(table); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(file.Name(), a.cacheFilename(info))
}

func (a *Analytics) loadFromCache(info models.DatasetInfo) (*dataset.Table, error) {
	if a.cacheDir == "" {
		return nil, os.ErrNotExist
	}
	file, err := os.Open(a.cacheFilename(info))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var table dataset.Table
	if err := gob.NewDecoder(file).Decode(&table); err != nil {
		return nil, err
	}
	return &table, nil
}

// removeCacheFiles deletes the gob files of every identity of name.
func (a *Analytics) removeCacheFiles(name string) {
	if a.cacheDir == "" {
		return
	}
	entries, err := os.ReadDir(a.cacheDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("failed to read cache dir", "dir", a.cacheDir, "error", err)
		}
		return
	}
	suffix := "_" + cacheVersion + ".gob"
	for _, e := range entries {
		base, ok := strings.CutSuffix(e.Name(), suffix)
		if !ok {
			continue
		}
		i := strings.LastIndexByte(base, '_')
		if i < 0 || base[:i] != name {
			continue
		}
		if err := os.Remove(filepath.Join(a.cacheDir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("failed to remove cache file", "file", e.Name(), "error", err)
		}
	}
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	datasets := len(a.tables)
	rows := 0
	for _, c := range a.tables {
		rows += c.table.Len()
	}
	a.mu.RUnlock()

	var lastLoaded any
	if ns := a.lastLoaded.Load(); ns > 0 {
		lastLoaded = time.Unix(0, ns).UTC()
	}

	return map[string]any{
		"datasets_cached": datasets,
		"rows_cached":     rows,
		"tables_loaded":   a.tablesLoaded.Load(),
		"disk_cache_hits": a.diskHits.Load(),
		"rows_processed":  a.rowsProcessed.Load(),
		"reports_served":  a.reportsServed.Load(),
		"report_errors":   a.reportErrors.Load(),
		"uploads":         a.uploads.Load(),
		"last_loaded":     lastLoaded,
		"map_params":      a.mapParams,
		"zone_params":     a.zoneParams,
		"label_cache":     a.labels.Stats(),
	}
}
