package ui

import (
	"fmt"
	"strings"

	"github.com/rkassila/dashboard-olist/internal/models"
)

// View models are pure projections of derived tables into what the
// templates and chart signals need. All ratio/float conversion happens
// here, at presentation time.

type KPI struct {
	Title   string
	Value   string
	Caption string
}

// ChartSeries is one named line/bar series with float values the chart
// renderer can consume directly.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

type LineChart struct {
	Labels []string      `json:"labels"`
	Series []ChartSeries `json:"series"`
}

type BarChart struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Hover  []string  `json:"hover,omitempty"`
}

type ScatterPoint struct {
	Label         string  `json:"label"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Size          float64 `json:"size"`
	LowConfidence bool    `json:"low_confidence"`
}

type WaterfallChart struct {
	Labels   []string  `json:"labels"`
	Measures []string  `json:"measures"`
	Values   []float64 `json:"values"`
	Text     []string  `json:"text"`
}

// OverviewView backs the executive overview page.
type OverviewView struct {
	KPIs      []KPI
	Waterfall WaterfallChart
	Insights  []string
	HasData   bool
}

func BuildOverview(ov models.FinancialOverview) OverviewView {
	dominant, other := "Sales fees", "Subscriptions"
	dominantValue, otherValue := ov.SalesFeeRevenue, ov.SubscriptionRevenue
	if ov.SubscriptionRevenue.GreaterThan(ov.SalesFeeRevenue) {
		dominant, other = other, dominant
		dominantValue, otherValue = otherValue, dominantValue
	}

	return OverviewView{
		HasData: ov.ItemCount > 0,
		KPIs: []KPI{
			{Title: "Total revenue", Value: FormatBRL(ov.TotalRevenue), Caption: "Full period cumulative"},
			{Title: "Net profit", Value: FormatBRL(ov.NetProfit), Caption: "After reputation and IT costs"},
			{Title: "Net margin", Value: FormatPercent(ov.Margin), Caption: "Net profit / revenue"},
			{Title: "Active sellers", Value: FormatCount(ov.SellerCount), Caption: "With delivered items"},
		},
		Waterfall: WaterfallChart{
			Labels:   []string{"Subscriptions", "Sales fees", "Total revenues", "Review costs", "Gross profit", "IT costs", "Net profit"},
			Measures: []string{"relative", "relative", "total", "relative", "total", "relative", "total"},
			Values: []float64{
				ov.SubscriptionRevenue.InexactFloat64(),
				ov.SalesFeeRevenue.InexactFloat64(),
				0,
				-ov.ReviewCost.InexactFloat64(),
				0,
				-ov.ITCost.InexactFloat64(),
				0,
			},
			Text: []string{
				FormatBRL(ov.SubscriptionRevenue),
				FormatBRL(ov.SalesFeeRevenue),
				FormatBRL(ov.TotalRevenue),
				FormatBRL(ov.ReviewCost.Neg()),
				FormatBRL(ov.GrossProfit),
				FormatBRL(ov.ITCost.Neg()),
				FormatBRL(ov.NetProfit),
			},
		},
		Insights: []string{
			fmt.Sprintf("%s now contribute %s, compared with %s from the complementary stream.",
				dominant, FormatBRL(dominantValue), FormatBRL(otherValue)),
			fmt.Sprintf("Reputation costs eroded %s of earnings; keeping delivery promises tight protects the margin. (%s stream: %s)",
				FormatBRL(ov.ReviewCost), other, FormatBRL(otherValue)),
		},
	}
}

// BuildMonthlyChart projects the monthly series onto the selected
// metric keys. Unknown keys are ignored; an empty selection falls back
// to net revenue.
func BuildMonthlyChart(metrics []models.MonthlyMetric, selected []string) LineChart {
	keys := make([]string, 0, len(selected))
	for _, key := range selected {
		if ValidMetric(key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		keys = []string{"net_revenue"}
	}

	chart := LineChart{Labels: make([]string, 0, len(metrics))}
	for _, m := range metrics {
		chart.Labels = append(chart.Labels, m.Month)
	}

	for _, key := range keys {
		series := ChartSeries{Name: MetricLabel(key), Values: make([]float64, 0, len(metrics))}
		for _, m := range metrics {
			var v float64
			switch key {
			case "net_revenue":
				v = m.NetRevenue.InexactFloat64()
			case "olist_revenue":
				v = m.PlatformRevenue.InexactFloat64()
			case "reputation_cost":
				v = m.ReputationCost.InexactFloat64()
			case "gmv":
				v = m.GMV.InexactFloat64()
			}
			series.Values = append(series.Values, v)
		}
		chart.Series = append(chart.Series, series)
	}

	return chart
}

// BuildCategoryChart renders the Top-N profit ranking as a horizontal
// bar chart, least profitable of the selection first so the leader
// lands on top.
func BuildCategoryChart(categories []models.CategoryProfit) BarChart {
	chart := BarChart{}
	for i := len(categories) - 1; i >= 0; i-- {
		c := categories[i]
		margin := 0.0
		if !c.Commission.IsZero() {
			margin = c.NetProfit.Div(c.Commission).InexactFloat64()
		}
		chart.Labels = append(chart.Labels, FormatCategoryName(c.Category))
		chart.Values = append(chart.Values, c.NetProfit.InexactFloat64())
		chart.Hover = append(chart.Hover, fmt.Sprintf("net %s · commission %s · reputation %s · %d orders · margin %s",
			FormatBRL(c.NetProfit), FormatBRL(c.Commission), FormatBRL(c.ReputationCost), c.OrderCount, FormatPercent(margin)))
	}
	return chart
}

// DriversView backs the profitability drivers page.
type DriversView struct {
	Metrics    []MetricOption
	Selected   []string
	FromMonth  string
	ToMonth    string
	Months     []string
	TopN       int
	Monthly    LineChart
	Categories BarChart
	HasData    bool
}

func BuildDrivers(metrics []models.MonthlyMetric, categories []models.CategoryProfit, selected []string, from, to string, topN int) DriversView {
	view := DriversView{
		Metrics:    MetricLabels,
		Selected:   selected,
		FromMonth:  from,
		ToMonth:    to,
		TopN:       topN,
		Monthly:    BuildMonthlyChart(metrics, selected),
		Categories: BuildCategoryChart(categories),
		HasData:    len(metrics) > 0,
	}
	for _, m := range metrics {
		view.Months = append(view.Months, m.Month)
	}
	return view
}

// TrustView backs the customer trust page.
type TrustView struct {
	Spotlights []KPI
	Points     []ScatterPoint
	MinOrders  int
	HasData    bool
}

// BuildTrust filters states to the min-orders threshold and shapes the
// delay/satisfaction scatter. Below-threshold entries in the remaining
// set keep their low-confidence flag so the renderer can grey them out.
func BuildTrust(trust []models.StateTrust, spotlight models.Spotlight, minOrders int) TrustView {
	view := TrustView{MinOrders: minOrders}

	if s := spotlight.WorstDelayState; s != nil {
		view.Spotlights = append(view.Spotlights, KPI{
			Title:   fmt.Sprintf("%s: %+.1f days", StateName(s.State), s.AvgDelayDays),
			Caption: "Heaviest delivery delays; prioritize logistics review and proactive comms.",
		})
	}
	if s := spotlight.BestDelayState; s != nil {
		view.Spotlights = append(view.Spotlights, KPI{
			Title:   fmt.Sprintf("%s: %.1f days", StateName(s.State), s.AvgDelayDays),
			Caption: "Fastest fulfilment; capture learnings for broader rollout.",
		})
	}
	if s := spotlight.BestReviewState; s != nil {
		view.Spotlights = append(view.Spotlights, KPI{
			Title:   fmt.Sprintf("%s: %.2f ★", StateName(s.State), s.AvgReviewScore),
			Caption: "Highest customer advocacy; consider local upsell pilots.",
		})
	}

	for _, row := range trust {
		if row.OrderCount < minOrders {
			continue
		}
		view.Points = append(view.Points, ScatterPoint{
			Label:         StateName(row.State),
			X:             row.AvgDelayDays,
			Y:             row.AvgReviewScore,
			Size:          row.Commission.InexactFloat64(),
			LowConfidence: row.LowConfidence,
		})
	}

	view.HasData = len(view.Points) > 0
	return view
}

// StrategyView backs the seller what-if page.
type StrategyView struct {
	Highlights []KPI
	Chart      LineChart
	Selected   models.StrategyPoint
	Summary    []string
	HasData    bool
}

// BuildStrategy shapes the pruning curve and the scenario summary for
// the requested removal count, snapped to the nearest curve point.
func BuildStrategy(points []models.StrategyPoint, highlights models.StrategyHighlights, removed int) StrategyView {
	if len(points) == 0 {
		return StrategyView{}
	}

	selected := points[0]
	for _, p := range points {
		if abs(p.SellersRemoved-removed) < abs(selected.SellersRemoved-removed) {
			selected = p
		}
	}

	chart := LineChart{
		Labels: make([]string, 0, len(points)),
		Series: []ChartSeries{
			{Name: "Net profit"},
			{Name: "Revenues"},
			{Name: "Total costs"},
		},
	}
	for _, p := range points {
		chart.Labels = append(chart.Labels, FormatCount(p.SellersRemoved))
		chart.Series[0].Values = append(chart.Series[0].Values, p.NetProfit.InexactFloat64())
		chart.Series[1].Values = append(chart.Series[1].Values, p.Revenue.InexactFloat64())
		chart.Series[2].Values = append(chart.Series[2].Values, p.TotalCost.InexactFloat64())
	}

	return StrategyView{
		Highlights: []KPI{
			{
				Title:   "Profit-max scenario",
				Value:   FormatBRL(highlights.MaxProfit.NetProfit),
				Caption: fmt.Sprintf("Remove %s sellers (retain %s)", FormatCount(highlights.MaxProfit.SellersRemoved), FormatCount(highlights.MaxProfit.SellersRemaining)),
			},
			{
				Title:   "Margin-max scenario",
				Value:   FormatPercent(highlights.MaxMargin.Margin),
				Caption: fmt.Sprintf("Remove %s sellers", FormatCount(highlights.MaxMargin.SellersRemoved)),
			},
		},
		Chart:    chart,
		Selected: selected,
		Summary: []string{
			fmt.Sprintf("Scenario: remove %s sellers", FormatCount(selected.SellersRemoved)),
			fmt.Sprintf("Net profit: %s", FormatBRL(selected.NetProfit)),
			fmt.Sprintf("Revenue retained: %s", FormatBRL(selected.Revenue)),
			fmt.Sprintf("Total costs: %s", FormatBRL(selected.TotalCost)),
			fmt.Sprintf("Remaining sellers: %s", FormatCount(selected.SellersRemaining)),
			fmt.Sprintf("Net margin: %s", FormatPercent(selected.Margin)),
		},
		HasData: true,
	}
}

// ActionsView backs the recommended next steps page.
type ActionsView struct {
	KPIs            []KPI
	Recommendations []string
	HasData         bool
}

func BuildActions(spotlight models.Spotlight, highlights models.StrategyHighlights) ActionsView {
	trend := "Flat vs. last month"
	switch {
	case spotlight.NetRevenueChange.IsPositive():
		trend = fmt.Sprintf("▲ %s vs. last month", FormatBRL(spotlight.NetRevenueChange))
	case spotlight.NetRevenueChange.IsNegative():
		trend = fmt.Sprintf("▼ %s vs. last month", FormatBRL(spotlight.NetRevenueChange.Abs()))
	}

	profitUplift := highlights.MaxProfit.NetProfit.Sub(highlights.Baseline.NetProfit)

	view := ActionsView{
		HasData: highlights.Baseline.SellersRemaining > 0,
		KPIs: []KPI{
			{Title: "Latest monthly net revenue", Value: FormatBRL(spotlight.LatestNetRevenue), Caption: trend},
			{
				Title:   "Profit uplift on table",
				Value:   FormatBRL(profitUplift),
				Caption: fmt.Sprintf("Remove %s low performers", FormatCount(highlights.MaxProfit.SellersRemoved)),
			},
			{
				Title:   "Lean margin scenario",
				Value:   FormatPercent(highlights.MaxMargin.Margin),
				Caption: fmt.Sprintf("From %s at baseline", FormatPercent(highlights.Baseline.Margin)),
			},
		},
	}

	view.Recommendations = append(view.Recommendations,
		fmt.Sprintf("Keep revenue momentum: %s in the latest month (%s). Lock the growth calendar with marketing and CRM leads.",
			FormatBRL(spotlight.LatestNetRevenue), trend))

	if worst, best := spotlight.WorstDelayState, spotlight.BestDelayState; worst != nil && best != nil {
		view.Recommendations = append(view.Recommendations,
			fmt.Sprintf("Stabilize the delivery promise in %s (currently %+.1f days) by applying the playbook from %s (at %.1f days).",
				StateName(worst.State), worst.AvgDelayDays, StateName(best.State), best.AvgDelayDays))
	}

	if len(spotlight.TopCategories) > 0 {
		names := make([]string, 0, len(spotlight.TopCategories))
		for _, c := range spotlight.TopCategories {
			names = append(names, FormatCategoryName(c.Category))
		}
		view.Recommendations = append(view.Recommendations,
			fmt.Sprintf("Double down on hero categories: %s deliver %s net profit after reputation costs.",
				joinAnd(names), FormatBRL(spotlight.TopCategoryTotal)))
	}

	view.Recommendations = append(view.Recommendations,
		fmt.Sprintf("Initiate the pruning plan: removing %s underperforming sellers keeps %s partners engaged and unlocks %s incremental profit.",
			FormatCount(highlights.MaxProfit.SellersRemoved), FormatCount(highlights.MaxProfit.SellersRemaining), FormatBRL(profitUplift)))

	if best := spotlight.BestReviewState; best != nil {
		view.Recommendations = append(view.Recommendations,
			fmt.Sprintf("Amplify promoters: %s averages %.2f★. Capture the CX rituals there and export them to the delayed states.",
				StateName(best.State), best.AvgReviewScore))
	}

	return view
}

func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return "key categories"
	case 1:
		return items[0]
	default:
		return fmt.Sprintf("%s and %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
