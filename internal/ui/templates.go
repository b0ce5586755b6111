package ui

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

// Templates are parsed once at startup. Chart payloads are embedded as
// JSON signals; datastar picks them up client-side and the per-page
// render functions hand them to Plotly.

var funcs = template.FuncMap{
	"json": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(b), nil
	},
	"has": func(list []string, s string) bool {
		for _, item := range list {
			if item == s {
				return true
			}
		}
		return false
	},
}

type page struct {
	Title  string
	Active string
	View   any
}

var pageTemplates = template.Must(template.New("pages").Funcs(funcs).Parse(shellHTML +
	overviewHTML + driversHTML + customersHTML + strategyHTML + actionsHTML))

func renderPage(w io.Writer, name, title, active string, view any) error {
	if err := pageTemplates.ExecuteTemplate(w, name, page{Title: title, Active: active, View: view}); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

func RenderOverview(w io.Writer, view OverviewView) error {
	return renderPage(w, "overview", "Executive Overview", "/", view)
}

func RenderDrivers(w io.Writer, view DriversView) error {
	return renderPage(w, "drivers", "Profitability Drivers", "/drivers", view)
}

func RenderCustomers(w io.Writer, view TrustView) error {
	return renderPage(w, "customers", "Customer Trust", "/customers", view)
}

func RenderStrategy(w io.Writer, view StrategyView) error {
	return renderPage(w, "strategy", "Seller Strategy", "/strategy", view)
}

func RenderActions(w io.Writer, view ActionsView) error {
	return renderPage(w, "actions", "Next Steps", "/actions", view)
}

const shellHTML = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · Olist Performance</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/plotly.js-dist-min@2.35.2/plotly.min.js"></script>
<style>
:root { --bg:#0f172a; --card:#1e293b; --ink:#e2e8f0; --muted:#94a3b8; --accent:#38bdf8; --good:#34d399; --bad:#f87171; }
body { margin:0; font-family:system-ui,-apple-system,sans-serif; background:var(--bg); color:var(--ink); }
nav { display:flex; gap:1.5rem; padding:1rem 2rem; background:var(--card); align-items:baseline; }
nav .brand { font-weight:700; color:var(--accent); margin-right:1rem; }
nav a { color:var(--muted); text-decoration:none; }
nav a.active, nav a:hover { color:var(--ink); }
main { padding:1.5rem 2rem; max-width:1200px; margin:0 auto; }
.kpi-grid { display:grid; grid-template-columns:repeat(auto-fit,minmax(220px,1fr)); gap:1rem; margin-bottom:1.5rem; }
.card { background:var(--card); border-radius:12px; padding:1rem 1.25rem; }
.card h3 { margin:0 0 .25rem; font-size:.8rem; text-transform:uppercase; color:var(--muted); }
.card .value { font-size:1.5rem; font-weight:700; }
.card .caption { color:var(--muted); font-size:.8rem; }
.chart { background:var(--card); border-radius:12px; padding:1rem; margin-bottom:1.5rem; min-height:320px; }
.controls { display:flex; flex-wrap:wrap; gap:1rem; margin-bottom:1rem; align-items:end; }
.controls label { display:flex; flex-direction:column; gap:.25rem; font-size:.8rem; color:var(--muted); }
.controls select, .controls input { background:var(--bg); color:var(--ink); border:1px solid #334155; border-radius:8px; padding:.4rem .6rem; }
table.data { width:100%; border-collapse:collapse; }
table.data th, table.data td { text-align:left; padding:.4rem .6rem; border-bottom:1px solid #334155; font-size:.85rem; }
table.data th { color:var(--muted); text-transform:uppercase; font-size:.7rem; }
.placeholder { color:var(--muted); padding:2rem; text-align:center; }
ul.recs li { margin-bottom:.75rem; line-height:1.5; }
.low-confidence { opacity:.5; }
</style>
</head>
<body>
<nav>
<span class="brand">Olist Performance</span>
<a href="/" {{if eq .Active "/"}}class="active"{{end}}>Overview</a>
<a href="/drivers" {{if eq .Active "/drivers"}}class="active"{{end}}>Drivers</a>
<a href="/customers" {{if eq .Active "/customers"}}class="active"{{end}}>Customers</a>
<a href="/strategy" {{if eq .Active "/strategy"}}class="active"{{end}}>Strategy</a>
<a href="/actions" {{if eq .Active "/actions"}}class="active"{{end}}>Actions</a>
</nav>
<main>
<h1>{{.Title}}</h1>
{{end}}

{{define "foot"}}</main>
</body>
</html>{{end}}

{{define "kpis"}}<div class="kpi-grid">
{{range .}}<div class="card"><h3>{{.Title}}</h3><div class="value">{{.Value}}</div><div class="caption">{{.Caption}}</div></div>
{{end}}</div>{{end}}

{{define "nodata"}}<div class="card placeholder">No data matches the current selection.</div>{{end}}
`

const overviewHTML = `
{{define "overview"}}{{template "head" .}}
{{with .View}}{{if not .HasData}}{{template "nodata"}}{{else}}
{{template "kpis" .KPIs}}
<div id="waterfall" class="chart"></div>
<script>
Plotly.newPlot("waterfall", [{
  type: "waterfall",
  orientation: "v",
  x: {{json .Waterfall.Labels}},
  measure: {{json .Waterfall.Measures}},
  y: {{json .Waterfall.Values}},
  text: {{json .Waterfall.Text}},
  connector: { line: { color: "#334155" } },
  increasing: { marker: { color: "#34d399" } },
  decreasing: { marker: { color: "#f87171" } },
  totals: { marker: { color: "#38bdf8" } }
}], { paper_bgcolor: "#1e293b", plot_bgcolor: "#1e293b", font: { color: "#e2e8f0" }, margin: { t: 20 } }, { displayModeBar: false });
</script>
<div class="card">
<h3>What the numbers say</h3>
<ul class="recs">{{range .Insights}}<li>{{.}}</li>{{end}}</ul>
</div>
{{end}}{{end}}
{{template "foot" .}}{{end}}
`

const driversHTML = `
{{define "drivers"}}{{template "head" .}}
{{with .View}}
<div class="controls" data-signals='{"from": "{{.FromMonth}}", "to": "{{.ToMonth}}", "topn": {{.TopN}}}'>
<label>From month
<select data-bind-from data-on-change="@get('/sse/monthly-metrics')">
<option value="">All</option>
{{$from := .FromMonth}}{{range .Months}}<option value="{{.}}" {{if eq . $from}}selected{{end}}>{{.}}</option>{{end}}
</select></label>
<label>To month
<select data-bind-to data-on-change="@get('/sse/monthly-metrics')">
<option value="">All</option>
{{$to := .ToMonth}}{{range .Months}}<option value="{{.}}" {{if eq . $to}}selected{{end}}>{{.}}</option>{{end}}
</select></label>
<label>Metrics
<select multiple data-bind-metrics data-on-change="@get('/sse/monthly-metrics')">
{{$sel := .Selected}}{{range .Metrics}}<option value="{{.Key}}" {{if has $sel .Key}}selected{{end}}>{{.Label}}</option>{{end}}
</select></label>
<label>Top categories
<input type="number" min="1" max="50" value="{{.TopN}}" data-bind-topn data-on-change="@get('/sse/category-profit')">
</label>
</div>
{{if not .HasData}}{{template "nodata"}}{{else}}
<div id="monthly-chart" class="chart"></div>
<div id="monthly-content"></div>
<div id="category-chart" class="chart"></div>
<div id="category-content"></div>
<script>
const monthly = {{json .Monthly}};
Plotly.newPlot("monthly-chart", monthly.series.map(s => ({
  type: "scatter", mode: "lines+markers", name: s.name, x: monthly.labels, y: s.values
})), { paper_bgcolor: "#1e293b", plot_bgcolor: "#1e293b", font: { color: "#e2e8f0" }, margin: { t: 20 } }, { displayModeBar: false });

const categories = {{json .Categories}};
Plotly.newPlot("category-chart", [{
  type: "bar", orientation: "h", x: categories.values, y: categories.labels,
  hovertext: categories.hover, marker: { color: "#38bdf8" }
}], { paper_bgcolor: "#1e293b", plot_bgcolor: "#1e293b", font: { color: "#e2e8f0" }, margin: { t: 20, l: 180 } }, { displayModeBar: false });
</script>
{{end}}{{end}}
{{template "foot" .}}{{end}}
`

const customersHTML = `
{{define "customers"}}{{template "head" .}}
{{with .View}}
{{if .Spotlights}}{{template "kpis" .Spotlights}}{{end}}
<div class="controls" data-signals='{"minorders": {{.MinOrders}}}'>
<label>Minimum orders per state
<input type="number" min="0" step="50" value="{{.MinOrders}}" data-bind-minorders data-on-change="@get('/sse/state-trust')">
</label>
</div>
{{if not .HasData}}{{template "nodata"}}{{else}}
<div id="trust-chart" class="chart"></div>
<div id="trust-content"></div>
<script>
const points = {{json .Points}};
Plotly.newPlot("trust-chart", [{
  type: "scatter", mode: "markers+text",
  x: points.map(p => p.x), y: points.map(p => p.y),
  text: points.map(p => p.label), textposition: "top center",
  marker: {
    size: points.map(p => Math.max(8, Math.sqrt(p.size) / 20)),
    color: points.map(p => p.low_confidence ? "#64748b" : "#38bdf8")
  }
}], {
  paper_bgcolor: "#1e293b", plot_bgcolor: "#1e293b", font: { color: "#e2e8f0" },
  xaxis: { title: "Avg delivery delay (days, negative = early)" },
  yaxis: { title: "Avg review score" }, margin: { t: 20 }
}, { displayModeBar: false });
</script>
{{end}}{{end}}
{{template "foot" .}}{{end}}
`

const strategyHTML = `
{{define "strategy"}}{{template "head" .}}
{{with .View}}{{if not .HasData}}{{template "nodata"}}{{else}}
{{template "kpis" .Highlights}}
<div class="controls" data-signals='{"removed": {{.Selected.SellersRemoved}}}'>
<label>Sellers to remove (least profitable first)
<input type="number" min="0" value="{{.Selected.SellersRemoved}}" data-bind-removed data-on-change="@get('/sse/seller-strategy')">
</label>
</div>
<div id="strategy-chart" class="chart"></div>
<div id="strategy-content" class="card">
<h3>Scenario</h3>
<ul class="recs">{{range .Summary}}<li>{{.}}</li>{{end}}</ul>
</div>
<script>
const curve = {{json .Chart}};
Plotly.newPlot("strategy-chart", curve.series.map(s => ({
  type: "scatter", mode: "lines", name: s.name, x: curve.labels, y: s.values
})), {
  paper_bgcolor: "#1e293b", plot_bgcolor: "#1e293b", font: { color: "#e2e8f0" },
  xaxis: { title: "Sellers removed" }, margin: { t: 20 }
}, { displayModeBar: false });
</script>
{{end}}{{end}}
{{template "foot" .}}{{end}}
`

const actionsHTML = `
{{define "actions"}}{{template "head" .}}
{{with .View}}{{if not .HasData}}{{template "nodata"}}{{else}}
{{template "kpis" .KPIs}}
<div class="card">
<h3>Recommended next steps</h3>
<ul class="recs">{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul>
</div>
{{end}}{{end}}
{{template "foot" .}}{{end}}
`
