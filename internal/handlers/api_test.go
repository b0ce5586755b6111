package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rkassila/dashboard-olist/internal/analytics"
	"github.com/rkassila/dashboard-olist/internal/config"
	"github.com/rkassila/dashboard-olist/internal/dataset"
	"github.com/rkassila/dashboard-olist/internal/models"
)

func testService(t *testing.T) *analytics.Service {
	t.Helper()

	day := func(s string) time.Time {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return parsed
	}
	money := decimal.RequireFromString

	tables := &dataset.Tables{
		Orders: []models.Order{
			{ID: "o1", CustomerID: "c1", Status: "delivered",
				PurchasedAt: day("2017-10-02"), DeliveredAt: day("2017-10-13"), EstimatedAt: day("2017-10-10")},
			{ID: "o2", CustomerID: "c2", Status: "delivered",
				PurchasedAt: day("2017-11-05"), DeliveredAt: day("2017-11-13"), EstimatedAt: day("2017-11-15")},
		},
		OrderItems: []models.OrderItem{
			{OrderID: "o1", ItemID: 1, ProductID: "p1", SellerID: "s1", Price: money("100"), FreightValue: money("10")},
			{OrderID: "o2", ItemID: 1, ProductID: "p2", SellerID: "s2", Price: money("50"), FreightValue: money("5")},
		},
		Reviews: []models.Review{
			{ID: "r1", OrderID: "o1", Score: 2},
			{ID: "r2", OrderID: "o2", Score: 5},
		},
		Products: []models.Product{
			{ID: "p1", Category: "cool_stuff"},
			{ID: "p2", Category: "beleza_saude"},
		},
		Customers: []models.Customer{
			{ID: "c1", State: "SP"},
			{ID: "c2", State: "RJ"},
		},
		Sellers: []models.Seller{
			{ID: "s1", State: "SP"},
			{ID: "s2", State: "PR"},
		},
		Quality: dataset.QualityReport{SkippedRows: map[string]int{}},
	}

	return analytics.NewService(tables, config.AnalyticsConfig{MinStateOrders: 2}, nil)
}

func testHandlers(t *testing.T) *APIHandlers {
	t.Helper()
	return NewAPIHandlers(testService(t), nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
	return env
}

func TestHandleHealth(t *testing.T) {
	h := testHandlers(t)
	rec := httptest.NewRecorder()

	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	env := decode(t, rec)
	if !env.Success {
		t.Error("success = false")
	}
}

func TestHandleMonthlyMetrics(t *testing.T) {
	h := testHandlers(t)
	rec := httptest.NewRecorder()

	h.HandleMonthlyMetrics(rec, httptest.NewRequest(http.MethodGet, "/api/monthly-metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != cacheMaxAge {
		t.Errorf("Cache-Control = %q, want %q", got, cacheMaxAge)
	}

	var metrics []models.MonthlyMetric
	if err := json.Unmarshal(decode(t, rec).Data, &metrics); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("months = %d, want 2", len(metrics))
	}
	if metrics[0].Month != "2017-10" || metrics[1].Month != "2017-11" {
		t.Errorf("months = %s, %s", metrics[0].Month, metrics[1].Month)
	}
}

func TestHandleMonthlyMetricsValidation(t *testing.T) {
	h := testHandlers(t)

	tests := []string{
		"/api/monthly-metrics?from=2017",
		"/api/monthly-metrics?to=October",
		"/api/monthly-metrics?from=2017-12&to=2017-01",
	}
	for _, target := range tests {
		rec := httptest.NewRecorder()
		h.HandleMonthlyMetrics(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
			continue
		}
		env := decode(t, rec)
		if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("%s: error = %+v, want VALIDATION_ERROR", target, env.Error)
		}
	}
}

func TestHandleMonthlyMetricsRange(t *testing.T) {
	h := testHandlers(t)
	rec := httptest.NewRecorder()

	h.HandleMonthlyMetrics(rec, httptest.NewRequest(http.MethodGet, "/api/monthly-metrics?from=2017-11&to=2017-11", nil))

	var metrics []models.MonthlyMetric
	if err := json.Unmarshal(decode(t, rec).Data, &metrics); err != nil {
		t.Fatal(err)
	}
	if len(metrics) != 1 || metrics[0].Month != "2017-11" {
		t.Errorf("filtered months = %+v, want just 2017-11", metrics)
	}
}

func TestHandleCategoryProfitValidation(t *testing.T) {
	h := testHandlers(t)

	for _, target := range []string{
		"/api/category-profit?top_n=0",
		"/api/category-profit?top_n=-3",
		"/api/category-profit?top_n=999",
		"/api/category-profit?top_n=ten",
	} {
		rec := httptest.NewRecorder()
		h.HandleCategoryProfit(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.HandleCategoryProfit(rec, httptest.NewRequest(http.MethodGet, "/api/category-profit?top_n=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var profits []models.CategoryProfit
	if err := json.Unmarshal(decode(t, rec).Data, &profits); err != nil {
		t.Fatal(err)
	}
	if len(profits) != 1 {
		t.Errorf("top_n=1 returned %d categories", len(profits))
	}
}

func TestHandleStateTrustMinOrders(t *testing.T) {
	h := testHandlers(t)

	rec := httptest.NewRecorder()
	h.HandleStateTrust(rec, httptest.NewRequest(http.MethodGet, "/api/state-trust", nil))
	var trust []models.StateTrust
	if err := json.Unmarshal(decode(t, rec).Data, &trust); err != nil {
		t.Fatal(err)
	}
	if len(trust) != 2 {
		t.Fatalf("states = %d, want 2", len(trust))
	}

	rec = httptest.NewRecorder()
	h.HandleStateTrust(rec, httptest.NewRequest(http.MethodGet, "/api/state-trust?min_orders=2", nil))
	if err := json.Unmarshal(decode(t, rec).Data, &trust); err != nil {
		t.Fatal(err)
	}
	if len(trust) != 0 {
		t.Errorf("states above threshold = %d, want 0 (single-order states)", len(trust))
	}

	rec = httptest.NewRecorder()
	h.HandleStateTrust(rec, httptest.NewRequest(http.MethodGet, "/api/state-trust?min_orders=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative min_orders: status = %d, want 400", rec.Code)
	}
}

func TestHandleSellerWhatIf(t *testing.T) {
	h := testHandlers(t)

	rec := httptest.NewRecorder()
	h.HandleSellerWhatIf(rec, httptest.NewRequest(http.MethodGet, "/api/seller-whatif?exclude=s1", nil))

	var result models.WhatIfResult
	if err := json.Unmarshal(decode(t, rec).Data, &result); err != nil {
		t.Fatal(err)
	}
	if result.SellersRemaining != 1 || result.ItemCount != 1 {
		t.Errorf("result = %+v, want 1 seller 1 item", result)
	}
}

func TestHandleSellerStrategy(t *testing.T) {
	h := testHandlers(t)

	rec := httptest.NewRecorder()
	h.HandleSellerStrategy(rec, httptest.NewRequest(http.MethodGet, "/api/seller-strategy", nil))

	var payload struct {
		Curve      []models.StrategyPoint   `json:"curve"`
		Highlights models.StrategyHighlights `json:"highlights"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Curve) != 2 {
		t.Errorf("curve points = %d, want 2", len(payload.Curve))
	}
	if payload.Highlights.Baseline.SellersRemaining != 2 {
		t.Errorf("baseline sellers = %d, want 2", payload.Highlights.Baseline.SellersRemaining)
	}
}
