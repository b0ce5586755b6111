package analytics

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rkassila/dashboard-olist/internal/models"
)

// Filter narrows a query to a purchase-month range, a seller exclusion
// set, and a category set. The zero value selects everything.
type Filter struct {
	FromMonth      string // inclusive, "2006-01"
	ToMonth        string // inclusive
	ExcludeSellers map[string]struct{}
	Categories     map[string]struct{}
}

func (f Filter) matchMonth(month string) bool {
	if f.FromMonth != "" && month < f.FromMonth {
		return false
	}
	if f.ToMonth != "" && month > f.ToMonth {
		return false
	}
	return true
}

func (f Filter) sellerExcluded(id string) bool {
	_, ok := f.ExcludeSellers[id]
	return ok
}

func (f Filter) matchCategory(category string) bool {
	if len(f.Categories) == 0 {
		return true
	}
	_, ok := f.Categories[category]
	return ok
}

func (f Filter) matchItem(it itemFact) bool {
	return f.matchMonth(it.month) && !f.sellerExcluded(it.sellerID) && f.matchCategory(it.category)
}

// MonthlyMetrics aggregates the financial series by purchase month.
// Months come back strictly ascending with no duplicates.
func (s *Service) MonthlyMetrics(f Filter) []models.MonthlyMetric {
	type monthAcc struct {
		gross, freight, rep decimal.Decimal
		items               int
		sellers             map[string]struct{}
		orders              map[string]struct{}
	}

	byMonth := make(map[string]*monthAcc)
	for _, it := range s.base.items {
		if !f.matchItem(it) {
			continue
		}

		acc := byMonth[it.month]
		if acc == nil {
			acc = &monthAcc{
				sellers: make(map[string]struct{}),
				orders:  make(map[string]struct{}),
			}
			byMonth[it.month] = acc
		}
		acc.gross = acc.gross.Add(it.price)
		acc.freight = acc.freight.Add(it.freight)
		acc.rep = acc.rep.Add(it.allocRep)
		acc.items++
		acc.sellers[it.sellerID] = struct{}{}
		acc.orders[it.orderID] = struct{}{}
	}

	metrics := make([]models.MonthlyMetric, 0, len(byMonth))
	for month, acc := range byMonth {
		commission := acc.gross.Mul(commissionRate)
		subscription := subscriptionFee.Mul(decimal.NewFromInt(int64(len(acc.sellers))))

		metrics = append(metrics, models.MonthlyMetric{
			Month:               month,
			GrossSales:          acc.gross,
			Freight:             acc.freight,
			GMV:                 acc.gross.Add(acc.freight),
			NetRevenue:          acc.gross.Sub(acc.freight),
			Commission:          commission,
			SubscriptionRevenue: subscription,
			PlatformRevenue:     commission.Add(subscription),
			ReputationCost:      acc.rep,
			ITCost:              itCost(len(acc.sellers), acc.items),
			OrderCount:          len(acc.orders),
			ItemCount:           acc.items,
			ActiveSellers:       len(acc.sellers),
		})
	}

	slices.SortFunc(metrics, func(a, b models.MonthlyMetric) int {
		return strings.Compare(a.Month, b.Month)
	})

	return metrics
}

// CategoryProfit ranks categories by commission minus allocated
// reputation cost, descending, ties broken by category name ascending,
// truncated to topN when topN is positive.
func (s *Service) CategoryProfit(f Filter, topN int) []models.CategoryProfit {
	type categoryAcc struct {
		gross, rep decimal.Decimal
		orders     map[string]struct{}
	}

	byCategory := make(map[string]*categoryAcc)
	for _, it := range s.base.items {
		if !f.matchItem(it) {
			continue
		}

		acc := byCategory[it.category]
		if acc == nil {
			acc = &categoryAcc{orders: make(map[string]struct{})}
			byCategory[it.category] = acc
		}
		acc.gross = acc.gross.Add(it.price)
		acc.rep = acc.rep.Add(it.allocRep)
		acc.orders[it.orderID] = struct{}{}
	}

	profits := make([]models.CategoryProfit, 0, len(byCategory))
	for category, acc := range byCategory {
		commission := acc.gross.Mul(commissionRate)
		profits = append(profits, models.CategoryProfit{
			Category:       category,
			GrossSales:     acc.gross,
			Commission:     commission,
			ReputationCost: acc.rep,
			NetProfit:      commission.Sub(acc.rep),
			OrderCount:     len(acc.orders),
		})
	}

	slices.SortFunc(profits, func(a, b models.CategoryProfit) int {
		if c := b.NetProfit.Cmp(a.NetProfit); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})

	if topN > 0 && len(profits) > topN {
		profits = profits[:topN]
	}

	return profits
}

// TrustByState summarises delivery delay and satisfaction per customer
// state. States under the confidence threshold are flagged, not
// dropped; states without a single scored order are omitted because
// their satisfaction average is undefined. Sorted by order count
// descending.
func (s *Service) TrustByState(f Filter) []models.StateTrust {
	type stateAcc struct {
		delaySum   int
		scoreSum   int
		scoreCount int
		orders     int
		commission decimal.Decimal
	}

	byState := make(map[string]*stateAcc)
	for _, o := range s.base.orders {
		if o.state == "" || !f.matchMonth(o.month) {
			continue
		}

		acc := byState[o.state]
		if acc == nil {
			acc = &stateAcc{}
			byState[o.state] = acc
		}
		acc.delaySum += o.delayDays
		acc.scoreSum += o.scoreSum
		acc.scoreCount += o.scoreCount
		acc.orders++
		acc.commission = acc.commission.Add(o.priceTotal.Mul(commissionRate))
	}

	trust := make([]models.StateTrust, 0, len(byState))
	for state, acc := range byState {
		if acc.scoreCount == 0 {
			continue
		}

		row := models.StateTrust{
			State:          state,
			AvgDelayDays:   float64(acc.delaySum) / float64(acc.orders),
			AvgReviewScore: float64(acc.scoreSum) / float64(acc.scoreCount),
			OrderCount:     acc.orders,
			Commission:     acc.commission,
			LowConfidence:  acc.orders < s.minStateOrders,
		}
		if centroid, ok := s.base.stateCentroid[state]; ok {
			row.Lat = centroid[0]
			row.Lng = centroid[1]
		}
		trust = append(trust, row)
	}

	slices.SortFunc(trust, func(a, b models.StateTrust) int {
		if a.OrderCount != b.OrderCount {
			return b.OrderCount - a.OrderCount
		}
		return strings.Compare(a.State, b.State)
	})

	return trust
}

// SellerWhatIf re-sums every delivered order item whose seller is not
// excluded. Always a full-table pass; the dataset is small enough that
// incremental updates would buy nothing.
func (s *Service) SellerWhatIf(excludedSellerIDs map[string]struct{}) models.WhatIfResult {
	var result models.WhatIfResult
	remaining := make(map[string]struct{})

	for _, it := range s.base.items {
		if _, excluded := excludedSellerIDs[it.sellerID]; excluded {
			continue
		}
		result.Revenue = result.Revenue.Add(it.price)
		result.Cost = result.Cost.Add(it.freight).Add(it.allocRep)
		result.ItemCount++
		remaining[it.sellerID] = struct{}{}
	}

	result.NetProfit = result.Revenue.Sub(result.Cost)
	result.SellersRemaining = len(remaining)
	return result
}
