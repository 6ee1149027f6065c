package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"geosales-dashboard/internal/analytics"
	"geosales-dashboard/internal/errors"
	"geosales-dashboard/internal/geo"
	"geosales-dashboard/internal/observability"
	"geosales-dashboard/internal/services"
	"geosales-dashboard/internal/temporal"
)

const uploadField = "file"

var reportHeaders = map[string]string{
	"Cache-Control": "private, max-age=60",
}

type APIHandlers struct {
	analytics      *services.Analytics
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, maxUploadBytes int64) *APIHandlers {
	return &APIHandlers{
		analytics:      analytics,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.fail(w, r, err)
			return
		}
		h.fail(w, r, errors.BadRequestWrap(err, "expected a multipart form with a file"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.fail(w, r, errors.BadRequestWrap(err, "no file was sent"))
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.fail(w, r, errors.BadRequest("no file was selected"))
		return
	}

	result, err := h.analytics.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, result)
}

func (h *APIHandlers) HandleFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.analytics.Files(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccess(w, map[string]any{"files": files})
}

func (h *APIHandlers) HandleMapData(w http.ResponseWriter, r *http.Request) {
	p, err := clusterParams(r, h.analytics.MapParams())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := h.analytics.MapData(r.Context(), r.PathValue("filename"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, reportHeaders)
}

func (h *APIHandlers) HandleProductAnalytics(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.ProductAnalytics(r.Context(), r.PathValue("filename"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, reportHeaders)
}

func (h *APIHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	p, err := clusterParams(r, h.analytics.ZoneParams())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := h.analytics.Charts(r.Context(), r.PathValue("filename"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, reportHeaders)
}

func (h *APIHandlers) HandleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	period := temporal.Monthly
	if v := q.Get("period"); v != "" {
		p, err := temporal.ParsePeriod(v)
		if err != nil {
			h.fail(w, r, errors.BadRequestWrap(err, err.Error()))
			return
		}
		period = p
	}

	metric := analytics.MetricRevenue
	if v := q.Get("metric"); v != "" {
		m, err := analytics.ParseMetric(v)
		if err != nil {
			h.fail(w, r, errors.BadRequestWrap(err, err.Error()))
			return
		}
		metric = m
	}

	limit := analytics.DefaultTrendLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.fail(w, r, errors.BadRequest("limit must be a positive integer"))
			return
		}
		limit = n
	}

	data, err := h.analytics.Trend(r.Context(), r.PathValue("filename"), period, metric, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, reportHeaders)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.Categories(r.Context(), r.PathValue("filename"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, reportHeaders)
}

func (h *APIHandlers) HandleZones(w http.ResponseWriter, r *http.Request) {
	p, err := clusterParams(r, h.analytics.ZoneParams())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := h.analytics.Zones(r.Context(), r.PathValue("filename"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, data, reportHeaders)
}

func (h *APIHandlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	data, err := h.analytics.Heatmap(r.Context(), r.PathValue("filename"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, localizeHeatmap(data, r.URL.Query().Get("locale")), reportHeaders)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	p, err := clusterParams(r, h.analytics.MapParams())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := h.analytics.Summary(r.Context(), r.PathValue("filename"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	errors.WriteSuccessWithHeaders(w, localizeSummary(data, r.URL.Query().Get("locale")), reportHeaders)
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := clusterParams(r, h.analytics.ZoneParams())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := h.analytics.Dashboard(r.Context(), r.PathValue("filename"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data.Heatmap = localizeHeatmap(data.Heatmap, r.URL.Query().Get("locale"))
	errors.WriteSuccessWithHeaders(w, data, reportHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats()

	errors.WriteSuccess(w, stats)
}

// clusterParams applies the eps and min_samples query overrides to defaults.
func clusterParams(r *http.Request, defaults geo.Params) (geo.Params, error) {
	p := defaults
	q := r.URL.Query()

	if v := q.Get("eps"); v != "" {
		eps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, errors.Validation("eps must be a number")
		}
		p.Eps = eps
	}
	if v := q.Get("min_samples"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.Validation("min_samples must be an integer")
		}
		p.MinSamples = n
	}

	if err := p.Validate(); err != nil {
		return p, errors.ValidationWrap(err, err.Error())
	}
	return p, nil
}
