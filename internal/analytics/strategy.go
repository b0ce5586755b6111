package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/rkassila/dashboard-olist/internal/models"
)

// FinancialOverview computes the full-period profit and loss: sales
// fees plus subscriptions, minus review handling and IT costs.
func (s *Service) FinancialOverview() models.FinancialOverview {
	var overview models.FinancialOverview
	items := 0

	for _, f := range s.base.sellers {
		overview.SalesFeeRevenue = overview.SalesFeeRevenue.Add(f.commission)
		overview.SubscriptionRevenue = overview.SubscriptionRevenue.Add(f.subscription)
		overview.TotalRevenue = overview.TotalRevenue.Add(f.revenue)
		overview.ReviewCost = overview.ReviewCost.Add(f.repCost)
		overview.GrossProfit = overview.GrossProfit.Add(f.profit)
		items += f.items
	}

	overview.SellerCount = len(s.base.sellers)
	overview.ItemCount = items
	overview.ITCost = itCost(overview.SellerCount, items)
	overview.NetProfit = overview.GrossProfit.Sub(overview.ITCost)
	if !overview.TotalRevenue.IsZero() {
		overview.Margin = overview.NetProfit.Div(overview.TotalRevenue).InexactFloat64()
	}

	return overview
}

// SellerStrategy builds the pruning curve: point k removes the k least
// profitable sellers and recomputes platform financials, including the
// square-root IT cost for the remaining base. The last seller is never
// removed.
func (s *Service) SellerStrategy() ([]models.StrategyPoint, models.StrategyHighlights) {
	n := len(s.base.sellers)
	if n == 0 {
		return nil, models.StrategyHighlights{}
	}

	var revenue, reviewCost, grossProfit decimal.Decimal
	items := 0
	for _, f := range s.base.sellers {
		revenue = revenue.Add(f.revenue)
		reviewCost = reviewCost.Add(f.repCost)
		grossProfit = grossProfit.Add(f.profit)
		items += f.items
	}

	points := make([]models.StrategyPoint, 0, n)
	points = append(points, strategyPoint(0, n, revenue, reviewCost, grossProfit, items))

	// Sellers are already sorted ascending by profit; peel them off
	// one by one and re-derive the totals.
	for k := 1; k < n; k++ {
		removed := s.base.sellers[k-1]
		revenue = revenue.Sub(removed.revenue)
		reviewCost = reviewCost.Sub(removed.repCost)
		grossProfit = grossProfit.Sub(removed.profit)
		items -= removed.items

		points = append(points, strategyPoint(k, n-k, revenue, reviewCost, grossProfit, items))
	}

	highlights := models.StrategyHighlights{
		Baseline:  points[0],
		MaxProfit: points[0],
		MaxMargin: points[0],
	}
	for _, p := range points[1:] {
		if p.NetProfit.GreaterThan(highlights.MaxProfit.NetProfit) {
			highlights.MaxProfit = p
		}
		if p.Margin > highlights.MaxMargin.Margin {
			highlights.MaxMargin = p
		}
	}

	return points, highlights
}

func strategyPoint(removed, remaining int, revenue, reviewCost, grossProfit decimal.Decimal, items int) models.StrategyPoint {
	it := itCost(remaining, items)
	net := grossProfit.Sub(it)

	point := models.StrategyPoint{
		SellersRemoved:   removed,
		SellersRemaining: remaining,
		Revenue:          revenue,
		ReviewCost:       reviewCost,
		ITCost:           it,
		TotalCost:        reviewCost.Add(it),
		NetProfit:        net,
	}
	if !revenue.IsZero() {
		point.Margin = net.Div(revenue).InexactFloat64()
	}
	return point
}

// Spotlight gathers the headline facts for the trust and actions
// pages: delay and satisfaction extremes, the latest month's net
// revenue and its change, and the top three categories.
func (s *Service) Spotlight() models.Spotlight {
	var spotlight models.Spotlight

	trust := s.TrustByState(Filter{})
	for i := range trust {
		row := &trust[i]
		if spotlight.WorstDelayState == nil || row.AvgDelayDays > spotlight.WorstDelayState.AvgDelayDays {
			spotlight.WorstDelayState = row
		}
		if spotlight.BestDelayState == nil || row.AvgDelayDays < spotlight.BestDelayState.AvgDelayDays {
			spotlight.BestDelayState = row
		}
		if spotlight.BestReviewState == nil || row.AvgReviewScore > spotlight.BestReviewState.AvgReviewScore {
			spotlight.BestReviewState = row
		}
	}

	monthly := s.MonthlyMetrics(Filter{})
	if len(monthly) > 0 {
		last := monthly[len(monthly)-1]
		spotlight.LatestNetRevenue = last.NetRevenue
		if len(monthly) > 1 {
			spotlight.NetRevenueChange = last.NetRevenue.Sub(monthly[len(monthly)-2].NetRevenue)
		}
	}

	spotlight.TopCategories = s.CategoryProfit(Filter{}, 3)
	for _, c := range spotlight.TopCategories {
		spotlight.TopCategoryTotal = spotlight.TopCategoryTotal.Add(c.NetProfit)
	}

	return spotlight
}
