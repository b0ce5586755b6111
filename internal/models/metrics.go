package models

import "github.com/shopspring/decimal"

// Derived rows produced by the aggregation layer. They are recomputed
// per request from the raw tables and never persisted.

// MonthlyMetric is one row of the monthly financial series, keyed by
// purchase month. Currency fields are exact decimals; ratios are only
// derived at presentation time.
type MonthlyMetric struct {
	Month               string          `json:"month"`
	GrossSales          decimal.Decimal `json:"gross_sales"`
	Freight             decimal.Decimal `json:"freight"`
	GMV                 decimal.Decimal `json:"gmv"`
	NetRevenue          decimal.Decimal `json:"net_revenue"`
	Commission          decimal.Decimal `json:"olist_commission"`
	SubscriptionRevenue decimal.Decimal `json:"subscription_revenue"`
	PlatformRevenue     decimal.Decimal `json:"olist_revenue"`
	ReputationCost      decimal.Decimal `json:"reputation_cost"`
	ITCost              decimal.Decimal `json:"it_cost"`
	OrderCount          int             `json:"order_count"`
	ItemCount           int             `json:"item_count"`
	ActiveSellers       int             `json:"active_sellers"`
}

// CategoryProfit ranks a product category by platform profit after the
// category's allocated share of reputation costs.
type CategoryProfit struct {
	Category       string          `json:"category"`
	GrossSales     decimal.Decimal `json:"gross_sales"`
	Commission     decimal.Decimal `json:"olist_commission"`
	ReputationCost decimal.Decimal `json:"reputation_cost"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	OrderCount     int             `json:"order_count"`
}

// StateTrust summarises delivery reliability and satisfaction for one
// customer state. LowConfidence marks states below the minimum order
// count; they are flagged, never dropped, so the UI can grey them out.
type StateTrust struct {
	State          string          `json:"state"`
	AvgDelayDays   float64         `json:"avg_delay_days"`
	AvgReviewScore float64         `json:"avg_review_score"`
	OrderCount     int             `json:"order_count"`
	Commission     decimal.Decimal `json:"olist_commission"`
	LowConfidence  bool            `json:"low_confidence"`
	Lat            float64         `json:"lat,omitempty"`
	Lng            float64         `json:"lng,omitempty"`
}

// WhatIfResult is the outcome of re-summing all delivered order items
// whose seller is not excluded.
type WhatIfResult struct {
	Revenue          decimal.Decimal `json:"revenue"`
	Cost             decimal.Decimal `json:"cost"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	SellersRemaining int             `json:"sellers_remaining"`
	ItemCount        int             `json:"item_count"`
}

// StrategyPoint is one step of the seller-pruning curve: the k least
// profitable sellers removed, platform financials recomputed in full.
type StrategyPoint struct {
	SellersRemoved   int             `json:"sellers_removed"`
	SellersRemaining int             `json:"sellers_remaining"`
	Revenue          decimal.Decimal `json:"revenues"`
	ReviewCost       decimal.Decimal `json:"review_costs"`
	ITCost           decimal.Decimal `json:"it_costs"`
	TotalCost        decimal.Decimal `json:"total_costs"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	Margin           float64         `json:"margin"`
}

// StrategyHighlights carries the scenarios the executive pages call out.
type StrategyHighlights struct {
	Baseline  StrategyPoint `json:"baseline"`
	MaxProfit StrategyPoint `json:"max_profit"`
	MaxMargin StrategyPoint `json:"max_margin"`
}

// FinancialOverview is the full-period profit and loss powering the
// overview waterfall.
type FinancialOverview struct {
	SalesFeeRevenue     decimal.Decimal `json:"revenues_sales"`
	SubscriptionRevenue decimal.Decimal `json:"revenues_subscription"`
	TotalRevenue        decimal.Decimal `json:"revenues_total"`
	ReviewCost          decimal.Decimal `json:"costs_reviews"`
	ITCost              decimal.Decimal `json:"costs_it"`
	GrossProfit         decimal.Decimal `json:"profits_gross"`
	NetProfit           decimal.Decimal `json:"profits_net"`
	Margin              float64         `json:"margin"`
	SellerCount         int             `json:"seller_count"`
	ItemCount           int             `json:"item_count"`
}

// Spotlight collects the headline facts shared by the trust and actions
// pages.
type Spotlight struct {
	WorstDelayState  *StateTrust      `json:"worst_delay,omitempty"`
	BestDelayState   *StateTrust      `json:"best_delay,omitempty"`
	BestReviewState  *StateTrust      `json:"best_review,omitempty"`
	LatestNetRevenue decimal.Decimal  `json:"latest_net_revenue"`
	NetRevenueChange decimal.Decimal  `json:"net_revenue_change"`
	TopCategories    []CategoryProfit `json:"top_categories"`
	TopCategoryTotal decimal.Decimal  `json:"top_category_profit"`
}
