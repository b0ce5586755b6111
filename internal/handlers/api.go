package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rkassila/dashboard-olist/internal/analytics"
	"github.com/rkassila/dashboard-olist/internal/errors"
	"github.com/rkassila/dashboard-olist/internal/models"
	"github.com/rkassila/dashboard-olist/internal/observability"
)

const (
	defaultTopCategories = 10
	maxTopCategories     = 50
	cacheMaxAge          = "public, max-age=300"
)

type APIHandlers struct {
	analytics *analytics.Service
	logger    *slog.Logger
}

func NewAPIHandlers(svc *analytics.Service, logger *slog.Logger) *APIHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandlers{
		analytics: svc,
		logger:    logger,
	}
}

var cacheHeaders = map[string]string{
	"Cache-Control": cacheMaxAge,
}

// parseFilter reads the shared query parameters: from/to month bounds
// and a comma-separated seller exclusion list.
func parseFilter(r *http.Request) (analytics.Filter, error) {
	var f analytics.Filter

	if from := r.URL.Query().Get("from"); from != "" {
		if _, err := time.Parse("2006-01", from); err != nil {
			return f, errors.Validation("from must be a YYYY-MM month")
		}
		f.FromMonth = from
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if _, err := time.Parse("2006-01", to); err != nil {
			return f, errors.Validation("to must be a YYYY-MM month")
		}
		f.ToMonth = to
	}
	if f.FromMonth != "" && f.ToMonth != "" && f.FromMonth > f.ToMonth {
		return f, errors.Validation("from must not be after to")
	}

	f.ExcludeSellers = parseSellerList(r.URL.Query().Get("exclude"))
	return f, nil
}

func parseSellerList(raw string) map[string]struct{} {
	if raw == "" {
		return nil
	}
	set := make(map[string]struct{})
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (h *APIHandlers) HandleMonthlyMetrics(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	data := h.analytics.MonthlyMetrics(filter)
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleCategoryProfit(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	topN := defaultTopCategories
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 || n > maxTopCategories {
			errors.WriteError(w, h.logger,
				errors.Validation("top_n must be an integer between 1 and 50"),
				observability.GetRequestID(r.Context()))
			return
		}
		topN = n
	}

	data := h.analytics.CategoryProfit(filter, topN)
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleStateTrust(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	minOrders := 0
	if raw := r.URL.Query().Get("min_orders"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			errors.WriteError(w, h.logger,
				errors.Validation("min_orders must be a non-negative integer"),
				observability.GetRequestID(r.Context()))
			return
		}
		minOrders = n
	}

	data := h.analytics.TrustByState(filter)
	if minOrders > 0 {
		filtered := make([]models.StateTrust, 0, len(data))
		for _, row := range data {
			if row.OrderCount >= minOrders {
				filtered = append(filtered, row)
			}
		}
		data = filtered
	}

	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleSellerWhatIf(w http.ResponseWriter, r *http.Request) {
	excluded := parseSellerList(r.URL.Query().Get("exclude"))
	data := h.analytics.SellerWhatIf(excluded)
	errors.WriteSuccess(w, data)
}

func (h *APIHandlers) HandleSellerStrategy(w http.ResponseWriter, r *http.Request) {
	points, highlights := h.analytics.SellerStrategy()

	errors.WriteSuccessWithHeaders(w, map[string]any{
		"curve":      points,
		"highlights": highlights,
	}, cacheHeaders)
}

func (h *APIHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	data := h.analytics.FinancialOverview()
	errors.WriteSuccessWithHeaders(w, data, cacheHeaders)
}

func (h *APIHandlers) HandleSellers(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.SellerIDs(), cacheHeaders)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
