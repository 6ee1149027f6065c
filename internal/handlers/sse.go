package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"geosales-dashboard/internal/errors"
	"geosales-dashboard/internal/models"
	"geosales-dashboard/internal/observability"
	"geosales-dashboard/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

const maxTableRows = 50

var zoneTableTemplate = template.Must(template.New("zoneTable").Parse(`
<div id="zones-content">
<p class="zone-params">eps {{.Report.Eps}} · min_samples {{.Report.MinSamples}} · noise {{.Report.NoisePoints}}</p>
<table class="modern-table">
<thead><tr><th>Zone</th><th>Sales</th><th>Revenue</th><th>Avg ticket</th><th>Top category</th><th>Radius (m)</th></tr></thead>
<tbody>
{{range $i, $z := .Report.Zones}}{{if lt $i $.MaxRows}}<tr>
<td>#{{$z.Zone}}</td>
<td>{{$z.Transactions}}</td>
<td><strong>${{printf "%.2f" $z.Revenue}}</strong></td>
<td>${{printf "%.2f" $z.AverageRevenuePerSale}}</td>
<td><span class="category-badge">{{$z.DominantCategory}}</span></td>
<td>{{printf "%.0f" $z.RadiusMeters}}</td>
</tr>{{end}}{{else}}<tr><td colspan="6">No zones found with these parameters</td></tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type zoneTableData struct {
	Report  models.ZoneReport
	MaxRows int
}

func (h *SSEHandlers) renderZoneTable(report models.ZoneReport) (string, error) {
	var buf strings.Builder
	err := zoneTableTemplate.Execute(&buf, zoneTableData{Report: report, MaxRows: maxTableRows})
	return buf.String(), err
}

// Errors are reported as JSON before the stream opens; once datastar has
// written the event-stream headers only logging is possible.
func (h *SSEHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, html string, signals map[string]any) {
	if html != "" {
		if err := sse.PatchElements(html); err != nil {
			h.logger.Warn("patch elements", "error", err)
			return
		}
	}
	if len(signals) == 0 {
		return
	}
	jsonData, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Warn("patch signals", "error", err)
	}
}

func (h *SSEHandlers) HandleZones(w http.ResponseWriter, r *http.Request) {
	p, err := clusterParams(r, h.analytics.ZoneParams())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.analytics.Zones(r.Context(), r.PathValue("filename"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	html, err := h.renderZoneTable(report)
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "render zone table"))
		return
	}

	sse := datastar.NewSSE(w, r)
	h.patch(sse, html, map[string]any{"zoneRankings": report.Rankings})
}

func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	p, err := clusterParams(r, h.analytics.ZoneParams())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	charts, err := h.analytics.Charts(r.Context(), r.PathValue("filename"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	sse := datastar.NewSSE(w, r)
	h.patch(sse, `<div id="charts-content">Charts data loaded</div>`, map[string]any{
		"trendsData":     charts.Trends,
		"categoriesData": charts.Categories,
		"statisticsData": charts.Statistics,
	})
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	p, err := clusterParams(r, h.analytics.ZoneParams())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dashboard, err := h.analytics.Dashboard(r.Context(), r.PathValue("filename"), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	html, err := h.renderZoneTable(dashboard.Zones)
	if err != nil {
		h.fail(w, r, errors.InternalWrap(err, "render zone table"))
		return
	}

	heatmap := localizeHeatmap(dashboard.Heatmap, r.URL.Query().Get("locale"))

	sse := datastar.NewSSE(w, r)
	h.patch(sse, html, map[string]any{
		"trendsData":     dashboard.Trends,
		"categoriesData": dashboard.Categories,
		"statisticsData": dashboard.Statistics,
		"zoneRankings":   dashboard.Zones.Rankings,
		"heatmapData":    heatmap,
	})
}
