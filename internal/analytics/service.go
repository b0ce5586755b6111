// Package analytics derives every metric the dashboard pages consume
// from the raw Olist tables. Queries are pure: they read the immutable
// table context plus a caller-supplied filter and return fresh derived
// rows, so concurrent sessions share the data without locking.
package analytics

import (
	"log/slog"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rkassila/dashboard-olist/internal/config"
	"github.com/rkassila/dashboard-olist/internal/dataset"
	"github.com/rkassila/dashboard-olist/internal/models"
)

// Platform economics, fixed by the Olist business model.
var (
	commissionRate  = decimal.RequireFromString("0.10")
	subscriptionFee = decimal.NewFromInt(80)
)

// IT cost scales with the square root of active sellers and items.
const (
	alphaIT = 3157.27
	betaIT  = 978.23
)

// reputationCostByScore maps a review score to the BRL cost of handling
// its fallout. Scores of 4 and 5 cost nothing.
var reputationCostByScore = map[int]int64{
	1: 100,
	2: 50,
	3: 40,
	4: 0,
	5: 0,
}

type Service struct {
	tables         *dataset.Tables
	base           *baseline
	minStateOrders int
	logger         *slog.Logger
}

// itemFact is one delivered order item with everything a query needs
// precomputed: its month, customer state, display category, and its
// price-share slice of the order's reputation cost.
type itemFact struct {
	orderID  string
	sellerID string
	category string
	month    string
	state    string
	price    decimal.Decimal
	freight  decimal.Decimal
	allocRep decimal.Decimal
}

// orderFact is one delivered order with its review and delay rollup.
type orderFact struct {
	id         string
	month      string
	state      string
	priceTotal decimal.Decimal
	repCost    decimal.Decimal
	delayDays  int
	scoreSum   int
	scoreCount int
}

// sellerFact mirrors one row of the seller economics table: platform
// revenue (commission plus subscription) against allocated review cost.
type sellerFact struct {
	id           string
	sales        decimal.Decimal
	freight      decimal.Decimal
	repCost      decimal.Decimal
	commission   decimal.Decimal
	subscription decimal.Decimal
	revenue      decimal.Decimal
	profit       decimal.Decimal
	items        int
	monthsActive int
}

type baseline struct {
	orders  []orderFact
	items   []itemFact
	sellers []sellerFact // ascending by platform profit

	stateCentroid map[string][2]float64
}

func NewService(tables *dataset.Tables, cfg config.AnalyticsConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	base := buildBaseline(tables)

	logger.Info("analytics baseline ready",
		"delivered_orders", len(base.orders),
		"delivered_items", len(base.items),
		"sellers", len(base.sellers),
		"duration", time.Since(start),
	)

	return &Service{
		tables:         tables,
		base:           base,
		minStateOrders: cfg.MinStateOrders,
		logger:         logger,
	}
}

func buildBaseline(t *dataset.Tables) *baseline {
	// Per-order review rollup: mean score for satisfaction, max cost
	// for reputation. Orders without reviews keep zero counts.
	type reviewAcc struct {
		scoreSum   int
		scoreCount int
		maxCost    int64
	}
	reviews := make(map[string]*reviewAcc)
	for _, r := range t.Reviews {
		acc := reviews[r.OrderID]
		if acc == nil {
			acc = &reviewAcc{}
			reviews[r.OrderID] = acc
		}
		acc.scoreSum += r.Score
		acc.scoreCount++
		if cost := reputationCostByScore[r.Score]; cost > acc.maxCost {
			acc.maxCost = cost
		}
	}

	customerState := make(map[string]string, len(t.Customers))
	for _, c := range t.Customers {
		customerState[c.ID] = c.State
	}

	productCategory := make(map[string]string, len(t.Products))
	for _, p := range t.Products {
		productCategory[p.ID] = displayCategory(p.Category, t.CategoryTranslations)
	}

	delivered := make(map[string]*orderFact)
	orderIDs := make([]string, 0, len(t.Orders))
	base := &baseline{}
	for _, o := range t.Orders {
		if !o.Delivered() {
			continue
		}

		fact := &orderFact{
			id:    o.ID,
			month: o.MonthKey(),
			state: customerState[o.CustomerID],
		}
		if !o.EstimatedAt.IsZero() {
			fact.delayDays = int(o.DeliveredAt.Sub(o.EstimatedAt) / (24 * time.Hour))
		}
		if acc := reviews[o.ID]; acc != nil {
			fact.scoreSum = acc.scoreSum
			fact.scoreCount = acc.scoreCount
			fact.repCost = decimal.NewFromInt(acc.maxCost)
		}

		delivered[o.ID] = fact
		orderIDs = append(orderIDs, o.ID)
	}

	// Group delivered items per order so reputation cost can be
	// allocated by price share with the remainder on the last item,
	// keeping per-order allocations exact.
	itemsByOrder := make(map[string][]models.OrderItem)
	for _, item := range t.OrderItems {
		if delivered[item.OrderID] == nil {
			continue
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	for orderID, items := range itemsByOrder {
		order := delivered[orderID]

		priceTotal := decimal.Zero
		for _, item := range items {
			priceTotal = priceTotal.Add(item.Price)
		}
		order.priceTotal = priceTotal

		allocated := decimal.Zero
		for i, item := range items {
			fact := itemFact{
				orderID:  orderID,
				sellerID: item.SellerID,
				category: productCategory[item.ProductID],
				month:    order.month,
				state:    order.state,
				price:    item.Price,
				freight:  item.FreightValue,
			}
			if fact.category == "" {
				fact.category = "Unknown"
			}

			if order.repCost.IsPositive() && priceTotal.IsPositive() {
				if i == len(items)-1 {
					fact.allocRep = order.repCost.Sub(allocated)
				} else {
					fact.allocRep = order.repCost.Mul(item.Price).Div(priceTotal)
					allocated = allocated.Add(fact.allocRep)
				}
			}

			base.items = append(base.items, fact)
		}
	}

	base.orders = make([]orderFact, 0, len(orderIDs))
	for _, id := range orderIDs {
		base.orders = append(base.orders, *delivered[id])
	}

	base.sellers = buildSellerFacts(base.items)
	base.stateCentroid = buildStateCentroids(t.Geolocation)

	return base
}

func buildSellerFacts(items []itemFact) []sellerFact {
	type sellerAcc struct {
		sellerFact
		months map[string]struct{}
	}
	accs := make(map[string]*sellerAcc)
	for _, it := range items {
		acc := accs[it.sellerID]
		if acc == nil {
			acc = &sellerAcc{sellerFact: sellerFact{id: it.sellerID}, months: make(map[string]struct{})}
			accs[it.sellerID] = acc
		}
		acc.sales = acc.sales.Add(it.price)
		acc.freight = acc.freight.Add(it.freight)
		acc.repCost = acc.repCost.Add(it.allocRep)
		acc.items++
		acc.months[it.month] = struct{}{}
	}

	sellers := make([]sellerFact, 0, len(accs))
	for _, acc := range accs {
		f := acc.sellerFact
		f.monthsActive = len(acc.months)
		f.commission = f.sales.Mul(commissionRate)
		f.subscription = subscriptionFee.Mul(decimal.NewFromInt(int64(f.monthsActive)))
		f.revenue = f.commission.Add(f.subscription)
		f.profit = f.revenue.Sub(f.repCost)
		sellers = append(sellers, f)
	}

	slices.SortFunc(sellers, func(a, b sellerFact) int {
		if c := a.profit.Cmp(b.profit); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})

	return sellers
}

func buildStateCentroids(points []models.GeolocationPoint) map[string][2]float64 {
	type acc struct {
		lat, lng float64
		n        int
	}
	byState := make(map[string]*acc)
	for _, p := range points {
		if p.State == "" {
			continue
		}
		a := byState[p.State]
		if a == nil {
			a = &acc{}
			byState[p.State] = a
		}
		a.lat += p.Lat
		a.lng += p.Lng
		a.n++
	}

	centroids := make(map[string][2]float64, len(byState))
	for state, a := range byState {
		centroids[state] = [2]float64{a.lat / float64(a.n), a.lng / float64(a.n)}
	}
	return centroids
}

func displayCategory(raw string, translations map[string]string) string {
	if english, ok := translations[raw]; ok {
		return english
	}
	return raw
}

func itCost(sellers, items int) decimal.Decimal {
	cost := alphaIT*math.Sqrt(float64(sellers)) + betaIT*math.Sqrt(float64(items))
	return decimal.NewFromFloat(cost).Round(2)
}

// Stats reports loader and baseline counters for the admin endpoint.
func (s *Service) Stats() map[string]any {
	months := make(map[string]struct{})
	categories := make(map[string]struct{})
	for _, it := range s.base.items {
		months[it.month] = struct{}{}
		categories[it.category] = struct{}{}
	}

	return map[string]any{
		"delivered_orders":   len(s.base.orders),
		"delivered_items":    len(s.base.items),
		"sellers":            len(s.base.sellers),
		"months":             len(months),
		"categories":         len(categories),
		"skipped_rows":       s.tables.Quality.TotalSkipped(),
		"payment_mismatches": s.tables.Quality.PaymentMismatches,
		"loaded_at":          s.tables.Quality.LoadedAt,
	}
}

// SellerIDs returns every seller with at least one delivered item,
// sorted ascending, for the what-if multi-select.
func (s *Service) SellerIDs() []string {
	ids := make([]string, 0, len(s.base.sellers))
	for _, f := range s.base.sellers {
		ids = append(ids, f.id)
	}
	sort.Strings(ids)
	return ids
}
