package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/rkassila/dashboard-olist/internal/analytics"
	"github.com/rkassila/dashboard-olist/internal/ui"
)

const maxTableRows = 24

var monthlyTableTemplate = template.Must(template.New("monthlyTable").Parse(`
<div id="monthly-content">
<table class="data">
<thead><tr><th>Month</th><th>Net revenue</th><th>Platform revenue</th><th>Reputation cost</th><th>Orders</th><th>Sellers</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Month}}</td>
<td><strong>{{.NetRevenue}}</strong></td>
<td>{{.PlatformRevenue}}</td>
<td>{{.ReputationCost}}</td>
<td>{{.Orders}}</td>
<td>{{.Sellers}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var categoryTableTemplate = template.Must(template.New("categoryTable").Parse(`
<div id="category-content">
<table class="data">
<thead><tr><th>Category</th><th>Net profit</th><th>Commission</th><th>Reputation cost</th><th>Orders</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Category}}</td>
<td><strong>{{.NetProfit}}</strong></td>
<td>{{.Commission}}</td>
<td>{{.ReputationCost}}</td>
<td>{{.Orders}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var trustTableTemplate = template.Must(template.New("trustTable").Parse(`
<div id="trust-content">
<table class="data">
<thead><tr><th>State</th><th>Avg delay (days)</th><th>Avg review</th><th>Orders</th><th>Commission</th></tr></thead>
<tbody>
{{range .}}<tr{{if .LowConfidence}} class="low-confidence"{{end}}>
<td>{{.State}}</td>
<td>{{printf "%+.1f" .AvgDelayDays}}</td>
<td>{{printf "%.2f" .AvgReviewScore}}</td>
<td>{{.Orders}}</td>
<td>{{.Commission}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var strategyCardTemplate = template.Must(template.New("strategyCard").Parse(`
<div id="strategy-content" class="card">
<h3>Scenario</h3>
<ul class="recs">{{range .}}<li>{{.}}</li>{{end}}</ul>
</div>`))

// pageSignals mirrors the datastar signals the page controls bind to.
type pageSignals struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	Metrics   []string `json:"metrics"`
	TopN      int      `json:"topn"`
	MinOrders int      `json:"minorders"`
	Removed   int      `json:"removed"`
}

type SSEHandlers struct {
	analytics *analytics.Service
	logger    *slog.Logger
}

func NewSSEHandlers(svc *analytics.Service, logger *slog.Logger) *SSEHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSEHandlers{
		analytics: svc,
		logger:    logger,
	}
}

func (h *SSEHandlers) readSignals(r *http.Request) pageSignals {
	signals := pageSignals{TopN: defaultTopCategories}
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read signals", "error", err, "path", r.URL.Path)
	}
	return signals
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf strings.Builder
	err := tmpl.Execute(&buf, data)
	return buf.String(), err
}

func placeholder(id string) string {
	return `<div id="` + id + `" class="card placeholder">No data matches the current selection.</div>`
}

func (h *SSEHandlers) HandleMonthlyMetrics(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	signals := h.readSignals(r)

	filter := analytics.Filter{FromMonth: signals.From, ToMonth: signals.To}
	metrics := h.analytics.MonthlyMetrics(filter)

	chart, err := json.Marshal(map[string]any{
		"monthly": ui.BuildMonthlyChart(metrics, signals.Metrics),
	})
	if err != nil {
		h.logger.Error("marshal monthly chart", "error", err)
		return
	}
	sse.PatchSignals(chart)

	if len(metrics) == 0 {
		sse.PatchElements(placeholder("monthly-content"))
		return
	}

	type row struct {
		Month, NetRevenue, PlatformRevenue, ReputationCost, Orders, Sellers string
	}
	rows := make([]row, 0, len(metrics))
	for i, m := range metrics {
		if i == maxTableRows {
			break
		}
		rows = append(rows, row{
			Month:           m.Month,
			NetRevenue:      ui.FormatBRL(m.NetRevenue),
			PlatformRevenue: ui.FormatBRL(m.PlatformRevenue),
			ReputationCost:  ui.FormatBRL(m.ReputationCost),
			Orders:          ui.FormatCount(m.OrderCount),
			Sellers:         ui.FormatCount(m.ActiveSellers),
		})
	}

	html, err := render(monthlyTableTemplate, rows)
	if err != nil {
		h.logger.Error("render monthly table", "error", err)
		return
	}
	sse.PatchElements(html)
}

func (h *SSEHandlers) HandleCategoryProfit(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	signals := h.readSignals(r)

	topN := signals.TopN
	if topN < 1 || topN > maxTopCategories {
		topN = defaultTopCategories
	}

	filter := analytics.Filter{FromMonth: signals.From, ToMonth: signals.To}
	categories := h.analytics.CategoryProfit(filter, topN)

	chart, err := json.Marshal(map[string]any{
		"categories": ui.BuildCategoryChart(categories),
	})
	if err != nil {
		h.logger.Error("marshal category chart", "error", err)
		return
	}
	sse.PatchSignals(chart)

	if len(categories) == 0 {
		sse.PatchElements(placeholder("category-content"))
		return
	}

	type row struct {
		Category, NetProfit, Commission, ReputationCost, Orders string
	}
	rows := make([]row, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, row{
			Category:       ui.FormatCategoryName(c.Category),
			NetProfit:      ui.FormatBRL(c.NetProfit),
			Commission:     ui.FormatBRL(c.Commission),
			ReputationCost: ui.FormatBRL(c.ReputationCost),
			Orders:         ui.FormatCount(c.OrderCount),
		})
	}

	html, err := render(categoryTableTemplate, rows)
	if err != nil {
		h.logger.Error("render category table", "error", err)
		return
	}
	sse.PatchElements(html)
}

func (h *SSEHandlers) HandleStateTrust(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	signals := h.readSignals(r)

	trust := h.analytics.TrustByState(analytics.Filter{FromMonth: signals.From, ToMonth: signals.To})
	view := ui.BuildTrust(trust, h.analytics.Spotlight(), signals.MinOrders)

	chart, err := json.Marshal(map[string]any{
		"points": view.Points,
	})
	if err != nil {
		h.logger.Error("marshal trust points", "error", err)
		return
	}
	sse.PatchSignals(chart)

	if !view.HasData {
		sse.PatchElements(placeholder("trust-content"))
		return
	}

	type row struct {
		State                        string
		AvgDelayDays, AvgReviewScore float64
		Orders, Commission           string
		LowConfidence                bool
	}
	rows := make([]row, 0, len(trust))
	for _, t := range trust {
		if t.OrderCount < signals.MinOrders {
			continue
		}
		rows = append(rows, row{
			State:          ui.StateName(t.State),
			AvgDelayDays:   t.AvgDelayDays,
			AvgReviewScore: t.AvgReviewScore,
			Orders:         ui.FormatCount(t.OrderCount),
			Commission:     ui.FormatBRL(t.Commission),
			LowConfidence:  t.LowConfidence,
		})
	}

	html, err := render(trustTableTemplate, rows)
	if err != nil {
		h.logger.Error("render trust table", "error", err)
		return
	}
	sse.PatchElements(html)
}

func (h *SSEHandlers) HandleSellerStrategy(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	signals := h.readSignals(r)

	points, highlights := h.analytics.SellerStrategy()
	view := ui.BuildStrategy(points, highlights, signals.Removed)

	if !view.HasData {
		sse.PatchElements(placeholder("strategy-content"))
		return
	}

	html, err := render(strategyCardTemplate, view.Summary)
	if err != nil {
		h.logger.Error("render strategy card", "error", err)
		return
	}
	sse.PatchElements(html)
}
