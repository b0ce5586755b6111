package analytics

import (
	"testing"
)

func TestFinancialOverview(t *testing.T) {
	svc := fixtureService(t)
	overview := svc.FinancialOverview()

	if !overview.SalesFeeRevenue.Equal(money("20")) {
		t.Errorf("sales fees = %s, want 20", overview.SalesFeeRevenue)
	}
	if !overview.SubscriptionRevenue.Equal(money("320")) {
		t.Errorf("subscriptions = %s, want 320 (s1 two months, s2 and s3 one)", overview.SubscriptionRevenue)
	}
	if !overview.TotalRevenue.Equal(money("340")) {
		t.Errorf("total revenue = %s, want 340", overview.TotalRevenue)
	}
	if !overview.ReviewCost.Equal(money("150")) {
		t.Errorf("review cost = %s, want 150", overview.ReviewCost)
	}
	if !overview.GrossProfit.Equal(money("190")) {
		t.Errorf("gross profit = %s, want 190", overview.GrossProfit)
	}
	if overview.SellerCount != 3 || overview.ItemCount != 4 {
		t.Errorf("counts = %d sellers %d items, want 3/4", overview.SellerCount, overview.ItemCount)
	}
	if !overview.NetProfit.Equal(overview.GrossProfit.Sub(overview.ITCost)) {
		t.Errorf("net profit %s does not equal gross %s minus IT %s",
			overview.NetProfit, overview.GrossProfit, overview.ITCost)
	}
}

func TestSellerStrategyCurve(t *testing.T) {
	svc := fixtureService(t)
	points, highlights := svc.SellerStrategy()

	if len(points) != 3 {
		t.Fatalf("curve points = %d, want 3 (never removes the last seller)", len(points))
	}

	baseline := points[0]
	overview := svc.FinancialOverview()
	if !baseline.Revenue.Equal(overview.TotalRevenue) {
		t.Errorf("baseline revenue = %s, want overview total %s", baseline.Revenue, overview.TotalRevenue)
	}
	if !baseline.ReviewCost.Equal(overview.ReviewCost) {
		t.Errorf("baseline review cost = %s, want %s", baseline.ReviewCost, overview.ReviewCost)
	}
	if !baseline.NetProfit.Equal(overview.NetProfit) {
		t.Errorf("baseline net profit = %s, want %s", baseline.NetProfit, overview.NetProfit)
	}

	// s2 is the least profitable seller and goes first.
	second := points[1]
	if second.SellersRemoved != 1 || second.SellersRemaining != 2 {
		t.Fatalf("second point = remove %d retain %d, want 1/2", second.SellersRemoved, second.SellersRemaining)
	}
	if !second.Revenue.Equal(money("255")) {
		t.Errorf("revenue after removing s2 = %s, want 255", second.Revenue)
	}
	if !second.ReviewCost.Equal(money("87.5")) {
		t.Errorf("review cost after removing s2 = %s, want 87.5", second.ReviewCost)
	}

	third := points[2]
	if !third.Revenue.Equal(money("173")) {
		t.Errorf("revenue after removing s2 and s3 = %s, want 173", third.Revenue)
	}

	for i := 1; i < len(points); i++ {
		if points[i].SellersRemaining >= points[i-1].SellersRemaining {
			t.Errorf("sellers remaining not decreasing at point %d", i)
		}
	}

	for _, p := range points {
		if p.NetProfit.GreaterThan(highlights.MaxProfit.NetProfit) {
			t.Errorf("point removing %d beats the max-profit highlight", p.SellersRemoved)
		}
		if p.Margin > highlights.MaxMargin.Margin {
			t.Errorf("point removing %d beats the max-margin highlight", p.SellersRemoved)
		}
	}
	if !highlights.Baseline.Revenue.Equal(baseline.Revenue) {
		t.Errorf("highlight baseline revenue = %s, want %s", highlights.Baseline.Revenue, baseline.Revenue)
	}
}

func TestSpotlight(t *testing.T) {
	svc := fixtureService(t)
	spotlight := svc.Spotlight()

	if spotlight.WorstDelayState == nil || spotlight.WorstDelayState.State != "SP" {
		t.Errorf("worst delay state = %+v, want SP", spotlight.WorstDelayState)
	}
	if spotlight.BestDelayState == nil || spotlight.BestDelayState.State != "RJ" {
		t.Errorf("best delay state = %+v, want RJ", spotlight.BestDelayState)
	}
	if spotlight.BestReviewState == nil || spotlight.BestReviewState.State != "RJ" {
		t.Errorf("best review state = %+v, want RJ", spotlight.BestReviewState)
	}

	if !spotlight.LatestNetRevenue.Equal(money("90")) {
		t.Errorf("latest net revenue = %s, want 90", spotlight.LatestNetRevenue)
	}
	if !spotlight.NetRevenueChange.IsZero() {
		t.Errorf("net revenue change = %s, want 0", spotlight.NetRevenueChange)
	}

	if len(spotlight.TopCategories) != 3 {
		t.Fatalf("top categories = %d, want 3", len(spotlight.TopCategories))
	}
	if !spotlight.TopCategoryTotal.Equal(money("-130")) {
		t.Errorf("top category total = %s, want -130", spotlight.TopCategoryTotal)
	}
}
