package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"geosales-dashboard/internal/models"
	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
)

const initialSignals = `{trendsData: null, categoriesData: null, statisticsData: null, zoneRankings: null, heatmapData: null}`

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#0f172a}
header{padding:1rem 2rem;background:#1e3a8a;color:#fff}
main{display:grid;grid-template-columns:280px 1fr;gap:1.5rem;padding:1.5rem 2rem}
.card{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.files a{display:block;padding:.4rem 0;color:#1d4ed8;text-decoration:none}
.files a.active{font-weight:700}
.files small{color:#64748b}
.modern-table{width:100%;border-collapse:collapse}
.modern-table th,.modern-table td{padding:.4rem;border-bottom:1px solid #e2e8f0;text-align:left}
.category-badge{background:#e0e7ff;border-radius:4px;padding:0 .4rem}
`

// Dashboard renders the single page of the app. The selected dataset's
// reports are streamed in over SSE once the page loads.
func Dashboard(files []models.DatasetInfo, selected string) templ.Component {
	if selected == "" && len(files) > 0 {
		selected = files[0].Name
	}
	return layout("Geo Sales Dashboard",
		sidebar(files, selected),
		reportPanel(selected),
	)
}

// layout wraps the page chrome around a sidebar and a main section.
func layout(title string, aside, section templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
				`<meta name="viewport" content="width=device-width, initial-scale=1">`+
				`<title>%s</title><script type="module" src="%s"></script><script src="%s"></script>`+
				`<style>%s</style></head><body><header><h1>%s</h1></header><main>`,
			templ.EscapeString(title), datastarScript, chartScript, styles, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := aside.Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<section>`); err != nil {
			return err
		}
		if err := section.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</section></main>`+chartScriptInline+`</body></html>`)
		return err
	})
}

func sidebar(files []models.DatasetInfo, selected string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<aside class="card"><h2>Datasets</h2>`+
			`<form action="/api/upload" method="post" enctype="multipart/form-data">`+
			`<input type="file" name="file" accept=".csv,.xlsx" required> <button type="submit">Upload</button></form>`+
			`<nav class="files">`); err != nil {
			return err
		}
		if len(files) == 0 {
			if _, err := io.WriteString(w, `<p>No datasets uploaded yet.</p>`); err != nil {
				return err
			}
		}
		for _, f := range files {
			if err := fileLink(f, f.Name == selected).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</nav></aside>`)
		return err
	})
}

func fileLink(f models.DatasetInfo, active bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := ""
		if active {
			class = ` class="active"`
		}
		href := templ.URL("/?file=" + url.QueryEscape(f.Name))
		_, err := fmt.Fprintf(w, `<a href="%s"%s>%s</a><small>%s · %s</small>`,
			templ.EscapeString(string(href)), class,
			templ.EscapeString(f.Name),
			humanize.Bytes(uint64(f.Size)),
			humanize.Time(f.ModTime),
		)
		return err
	})
}

// reportPanel opens the refresh-all stream for the selected dataset.
func reportPanel(selected string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if selected == "" {
			_, err := io.WriteString(w, `<div class="card"><p>Upload a sales sheet with latitud, longitud, producto and cantidad columns to begin.</p></div>`)
			return err
		}
		onLoad := fmt.Sprintf("@get('/sse/refresh-all/%s')", url.PathEscape(selected))
		_, err := fmt.Fprintf(w,
			`<div class="card" data-signals="%s" data-on-load="%s"><h2>%s</h2>`+
				`<div id="zones-content">Loading zones…</div>`+
				`<canvas id="trend-chart" data-effect="window.drawTrend &amp;&amp; window.drawTrend($trendsData)"></canvas>`+
				`<canvas id="category-chart" data-effect="window.drawCategories &amp;&amp; window.drawCategories($categoriesData)"></canvas>`+
				`</div>`,
			templ.EscapeString(initialSignals), templ.EscapeString(onLoad), templ.EscapeString(selected))
		return err
	})
}

const chartScriptInline = `<script>
const charts = {};
function draw(id, type, labels, data, label) {
  if (charts[id]) charts[id].destroy();
  charts[id] = new Chart(document.getElementById(id), {type, data: {labels, datasets: [{label, data}]}});
}
window.drawTrend = (t) => { if (!t || !t.monthly) return; draw('trend-chart', 'line', t.monthly.map(p => p.period), t.monthly.map(p => p.revenue), 'Revenue'); };
window.drawCategories = (c) => { if (!c || !c.per_category) return; draw('category-chart', 'doughnut', c.per_category.map(x => x.category), c.per_category.map(x => x.revenue), 'Revenue'); };
</script>`
