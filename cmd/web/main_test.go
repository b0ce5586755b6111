package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rkassila/dashboard-olist/internal/analytics"
	"github.com/rkassila/dashboard-olist/internal/config"
	"github.com/rkassila/dashboard-olist/internal/dataset"
	"github.com/rkassila/dashboard-olist/internal/models"
)

func testPageHandlers(t *testing.T) *pageHandlers {
	t.Helper()

	day := func(s string) time.Time {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatal(err)
		}
		return parsed
	}

	tables := &dataset.Tables{
		Orders: []models.Order{
			{ID: "o1", CustomerID: "c1", Status: "delivered",
				PurchasedAt: day("2017-10-02"), DeliveredAt: day("2017-10-13"), EstimatedAt: day("2017-10-10")},
			{ID: "o2", CustomerID: "c2", Status: "delivered",
				PurchasedAt: day("2017-11-05"), DeliveredAt: day("2017-11-10"), EstimatedAt: day("2017-11-15")},
		},
		OrderItems: []models.OrderItem{
			{OrderID: "o1", ItemID: 1, ProductID: "p1", SellerID: "s1",
				Price: decimal.NewFromInt(100), FreightValue: decimal.NewFromInt(10)},
			{OrderID: "o2", ItemID: 1, ProductID: "p2", SellerID: "s2",
				Price: decimal.NewFromInt(50), FreightValue: decimal.NewFromInt(5)},
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

	return &pageHandlers{
		analytics: analytics.NewService(tables, config.AnalyticsConfig{MinStateOrders: 500}, nil),
		minOrders: 0,
		logger:    slog.Default(),
	}
}

func TestPageHandlers(t *testing.T) {
	pages := testPageHandlers(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		marker  string
	}{
		{"overview", pages.overview, "waterfall"},
		{"drivers", pages.drivers, "monthly-chart"},
		{"customers", pages.customers, "trust-chart"},
		{"strategy", pages.strategy, "strategy-chart"},
		{"actions", pages.actions, "Recommended next steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
				t.Errorf("Content-Type = %q, want text/html", ct)
			}
			if !strings.Contains(rec.Body.String(), tt.marker) {
				t.Errorf("page body missing %q", tt.marker)
			}
		})
	}
}
