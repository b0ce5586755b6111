package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rkassila/dashboard-olist/internal/config"
	"github.com/rkassila/dashboard-olist/internal/dataset"
	"github.com/rkassila/dashboard-olist/internal/models"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return parsed
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixtureTables builds three delivered orders across two months plus a
// shipped order that must never enter any metric:
//
//	o1 2017-10, SP, s1/p1 100+10, 3 days late, review 2 (cost 50)
//	o2 2017-11, RJ, s2/p2 50+5 and s1/p1 30+3, 2 days early,
//	   reviews 5 and 1 (mean 3, cost 100 split 62.5 / 37.5)
//	o3 2017-11, SP, s3/p3 20+2, on time, no review
func fixtureTables(t *testing.T) *dataset.Tables {
	t.Helper()
	return &dataset.Tables{
		Orders: []models.Order{
			{ID: "o1", CustomerID: "c1", Status: "delivered",
				PurchasedAt: ts(t, "2017-10-02 10:00:00"),
				DeliveredAt: ts(t, "2017-10-13 00:00:00"),
				EstimatedAt: ts(t, "2017-10-10 00:00:00")},
			{ID: "o2", CustomerID: "c2", Status: "delivered",
				PurchasedAt: ts(t, "2017-11-05 09:00:00"),
				DeliveredAt: ts(t, "2017-11-13 00:00:00"),
				EstimatedAt: ts(t, "2017-11-15 00:00:00")},
			{ID: "o3", CustomerID: "c3", Status: "delivered",
				PurchasedAt: ts(t, "2017-11-20 08:00:00"),
				DeliveredAt: ts(t, "2017-11-28 00:00:00"),
				EstimatedAt: ts(t, "2017-11-28 00:00:00")},
			{ID: "o4", CustomerID: "c1", Status: "shipped",
				PurchasedAt: ts(t, "2017-12-01 10:00:00"),
				EstimatedAt: ts(t, "2017-12-20 00:00:00")},
		},
		OrderItems: []models.OrderItem{
			{OrderID: "o1", ItemID: 1, ProductID: "p1", SellerID: "s1", Price: money("100"), FreightValue: money("10")},
			{OrderID: "o2", ItemID: 1, ProductID: "p2", SellerID: "s2", Price: money("50"), FreightValue: money("5")},
			{OrderID: "o2", ItemID: 2, ProductID: "p1", SellerID: "s1", Price: money("30"), FreightValue: money("3")},
			{OrderID: "o3", ItemID: 1, ProductID: "p3", SellerID: "s3", Price: money("20"), FreightValue: money("2")},
			{OrderID: "o4", ItemID: 1, ProductID: "p1", SellerID: "s1", Price: money("999"), FreightValue: money("99")},
		},
		Reviews: []models.Review{
			{ID: "r1", OrderID: "o1", Score: 2},
			{ID: "r2", OrderID: "o2", Score: 5},
			{ID: "r3", OrderID: "o2", Score: 1},
		},
		Products: []models.Product{
			{ID: "p1", Category: "informatica_acessorios"},
			{ID: "p2", Category: "beleza_saude"},
			{ID: "p3", Category: ""},
		},
		Customers: []models.Customer{
			{ID: "c1", State: "SP"},
			{ID: "c2", State: "RJ"},
			{ID: "c3", State: "SP"},
		},
		Sellers: []models.Seller{
			{ID: "s1", State: "SP"},
			{ID: "s2", State: "PR"},
			{ID: "s3", State: "MG"},
		},
		CategoryTranslations: map[string]string{
			"informatica_acessorios": "computers_accessories",
			"beleza_saude":           "health_beauty",
		},
		Quality: dataset.QualityReport{SkippedRows: map[string]int{}},
	}
}

func fixtureService(t *testing.T) *Service {
	t.Helper()
	return NewService(fixtureTables(t), config.AnalyticsConfig{MinStateOrders: 2}, nil)
}

func TestMonthlyMetrics(t *testing.T) {
	svc := fixtureService(t)
	metrics := svc.MonthlyMetrics(Filter{})

	if len(metrics) != 2 {
		t.Fatalf("months = %d, want 2", len(metrics))
	}
	for i := 1; i < len(metrics); i++ {
		if metrics[i].Month <= metrics[i-1].Month {
			t.Errorf("months not strictly ascending: %s then %s", metrics[i-1].Month, metrics[i].Month)
		}
	}

	oct := metrics[0]
	if oct.Month != "2017-10" {
		t.Fatalf("first month = %s, want 2017-10", oct.Month)
	}
	if !oct.NetRevenue.Equal(money("90")) {
		t.Errorf("oct net revenue = %s, want 90", oct.NetRevenue)
	}
	if !oct.GMV.Equal(money("110")) {
		t.Errorf("oct gmv = %s, want 110", oct.GMV)
	}
	if !oct.Commission.Equal(money("10")) {
		t.Errorf("oct commission = %s, want 10", oct.Commission)
	}
	if !oct.PlatformRevenue.Equal(money("90")) {
		t.Errorf("oct platform revenue = %s, want 90", oct.PlatformRevenue)
	}
	if !oct.ReputationCost.Equal(money("50")) {
		t.Errorf("oct reputation cost = %s, want 50", oct.ReputationCost)
	}
	if oct.OrderCount != 1 || oct.ActiveSellers != 1 {
		t.Errorf("oct counts = %d orders %d sellers, want 1/1", oct.OrderCount, oct.ActiveSellers)
	}

	nov := metrics[1]
	if !nov.GrossSales.Equal(money("100")) {
		t.Errorf("nov gross = %s, want 100", nov.GrossSales)
	}
	if !nov.ReputationCost.Equal(money("100")) {
		t.Errorf("nov reputation cost = %s, want 100", nov.ReputationCost)
	}
	if nov.OrderCount != 2 || nov.ActiveSellers != 3 || nov.ItemCount != 3 {
		t.Errorf("nov counts = %d orders %d sellers %d items, want 2/3/3",
			nov.OrderCount, nov.ActiveSellers, nov.ItemCount)
	}
	if !nov.SubscriptionRevenue.Equal(money("240")) {
		t.Errorf("nov subscriptions = %s, want 240", nov.SubscriptionRevenue)
	}
}

func TestMonthlyMetricsFilters(t *testing.T) {
	svc := fixtureService(t)

	metrics := svc.MonthlyMetrics(Filter{FromMonth: "2017-11", ToMonth: "2017-11"})
	if len(metrics) != 1 || metrics[0].Month != "2017-11" {
		t.Fatalf("filtered months = %v, want just 2017-11", metrics)
	}

	metrics = svc.MonthlyMetrics(Filter{ExcludeSellers: map[string]struct{}{"s1": {}, "s2": {}, "s3": {}}})
	if len(metrics) != 0 {
		t.Errorf("all sellers excluded, months = %d, want 0", len(metrics))
	}
}

func TestCategoryProfitRanking(t *testing.T) {
	svc := fixtureService(t)
	profits := svc.CategoryProfit(Filter{}, 0)

	if len(profits) != 3 {
		t.Fatalf("categories = %d, want 3", len(profits))
	}

	// Unknown (p3) is the only category in the black.
	if profits[0].Category != "Unknown" {
		t.Errorf("top category = %s, want Unknown", profits[0].Category)
	}
	if !profits[0].NetProfit.Equal(money("2")) {
		t.Errorf("top net profit = %s, want 2", profits[0].NetProfit)
	}
	if profits[1].Category != "health_beauty" {
		t.Errorf("second category = %s, want health_beauty", profits[1].Category)
	}
	if !profits[1].ReputationCost.Equal(money("62.5")) {
		t.Errorf("health_beauty reputation = %s, want 62.5", profits[1].ReputationCost)
	}
	if profits[2].Category != "computers_accessories" {
		t.Errorf("third category = %s, want computers_accessories", profits[2].Category)
	}
	if !profits[2].ReputationCost.Equal(money("87.5")) {
		t.Errorf("computers reputation = %s, want 87.5", profits[2].ReputationCost)
	}

	top := svc.CategoryProfit(Filter{}, 2)
	if len(top) != 2 {
		t.Errorf("top_n=2 returned %d categories", len(top))
	}
}

func TestTrustByState(t *testing.T) {
	svc := fixtureService(t)
	trust := svc.TrustByState(Filter{})

	if len(trust) != 2 {
		t.Fatalf("states = %d, want 2", len(trust))
	}

	sp := trust[0]
	if sp.State != "SP" {
		t.Fatalf("first state = %s, want SP (most orders)", sp.State)
	}
	if sp.AvgDelayDays != 1.5 {
		t.Errorf("SP avg delay = %v, want 1.5", sp.AvgDelayDays)
	}
	if sp.AvgReviewScore != 2 {
		t.Errorf("SP avg review = %v, want 2", sp.AvgReviewScore)
	}
	if sp.LowConfidence {
		t.Error("SP flagged low-confidence at the threshold boundary")
	}

	rj := trust[1]
	if rj.AvgDelayDays != -2 {
		t.Errorf("RJ avg delay = %v, want -2", rj.AvgDelayDays)
	}
	if rj.AvgReviewScore != 3 {
		t.Errorf("RJ avg review = %v, want 3", rj.AvgReviewScore)
	}
	if !rj.LowConfidence {
		t.Error("RJ below threshold not flagged low-confidence")
	}
}

func TestSellerWhatIf(t *testing.T) {
	svc := fixtureService(t)

	all := svc.SellerWhatIf(nil)
	if !all.Revenue.Equal(money("200")) {
		t.Errorf("revenue = %s, want 200", all.Revenue)
	}
	if !all.Cost.Equal(money("170")) {
		t.Errorf("cost = %s, want 170 (freight 20 + reputation 150)", all.Cost)
	}
	if !all.NetProfit.Equal(money("30")) {
		t.Errorf("net profit = %s, want 30", all.NetProfit)
	}
	if all.SellersRemaining != 3 || all.ItemCount != 4 {
		t.Errorf("counts = %d sellers %d items, want 3/4", all.SellersRemaining, all.ItemCount)
	}

	withoutS1 := svc.SellerWhatIf(map[string]struct{}{"s1": {}})
	if !withoutS1.Revenue.Equal(money("70")) {
		t.Errorf("revenue without s1 = %s, want 70", withoutS1.Revenue)
	}
	if !withoutS1.Cost.Equal(money("69.5")) {
		t.Errorf("cost without s1 = %s, want 69.5", withoutS1.Cost)
	}
	if withoutS1.SellersRemaining != 2 || withoutS1.ItemCount != 2 {
		t.Errorf("counts without s1 = %d sellers %d items, want 2/2",
			withoutS1.SellersRemaining, withoutS1.ItemCount)
	}

	none := svc.SellerWhatIf(map[string]struct{}{"s1": {}, "s2": {}, "s3": {}})
	if !none.Revenue.IsZero() || !none.NetProfit.IsZero() || none.SellersRemaining != 0 {
		t.Errorf("all excluded = %+v, want zeros", none)
	}
}

// Reputation cost allocated across an order's items must sum back to
// the per-order cost exactly, whatever the price split.
func TestReputationAllocationExact(t *testing.T) {
	svc := fixtureService(t)

	var allocated decimal.Decimal
	for _, it := range svc.base.items {
		if it.orderID == "o2" {
			allocated = allocated.Add(it.allocRep)
		}
	}
	if !allocated.Equal(money("100")) {
		t.Errorf("o2 allocation sum = %s, want exactly 100", allocated)
	}
}

// The behavior pinned down end to end: one delivered order, one item at
// price 100 freight 10, delivered three days late, reviewed at 2.
func TestSingleOrderEndToEnd(t *testing.T) {
	tables := &dataset.Tables{
		Orders: []models.Order{
			{ID: "o1", CustomerID: "c1", Status: "delivered",
				PurchasedAt: ts(t, "2018-01-05 10:00:00"),
				DeliveredAt: ts(t, "2018-01-20 00:00:00"),
				EstimatedAt: ts(t, "2018-01-17 00:00:00")},
		},
		OrderItems: []models.OrderItem{
			{OrderID: "o1", ItemID: 1, ProductID: "p1", SellerID: "s1", Price: money("100"), FreightValue: money("10")},
		},
		Reviews:   []models.Review{{ID: "r1", OrderID: "o1", Score: 2}},
		Products:  []models.Product{{ID: "p1", Category: "cool_stuff"}},
		Customers: []models.Customer{{ID: "c1", State: "SP"}},
		Sellers:   []models.Seller{{ID: "s1", State: "SP"}},
		Quality:   dataset.QualityReport{SkippedRows: map[string]int{}},
	}
	svc := NewService(tables, config.AnalyticsConfig{MinStateOrders: 500}, nil)

	metrics := svc.MonthlyMetrics(Filter{})
	if len(metrics) != 1 {
		t.Fatalf("months = %d, want 1", len(metrics))
	}
	if !metrics[0].NetRevenue.Equal(money("90")) {
		t.Errorf("net revenue = %s, want 90", metrics[0].NetRevenue)
	}
	if !metrics[0].ReputationCost.Equal(money("50")) {
		t.Errorf("reputation cost = %s, want 50", metrics[0].ReputationCost)
	}

	trust := svc.TrustByState(Filter{})
	if len(trust) != 1 {
		t.Fatalf("states = %d, want 1", len(trust))
	}
	if trust[0].AvgDelayDays != 3 {
		t.Errorf("avg delay = %v, want 3", trust[0].AvgDelayDays)
	}
	if trust[0].AvgReviewScore != 2 {
		t.Errorf("avg review = %v, want 2", trust[0].AvgReviewScore)
	}
	if trust[0].OrderCount != 1 {
		t.Errorf("order count = %d, want 1", trust[0].OrderCount)
	}
	if !trust[0].LowConfidence {
		t.Error("single order not flagged low-confidence under default threshold")
	}
}

func TestSellerIDsSorted(t *testing.T) {
	svc := fixtureService(t)
	ids := svc.SellerIDs()

	if len(ids) != 3 {
		t.Fatalf("seller ids = %d, want 3", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] < ids[i-1] {
			t.Errorf("ids not sorted: %s before %s", ids[i-1], ids[i])
		}
	}
}
