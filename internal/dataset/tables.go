package dataset

import (
	"time"

	"github.com/rkassila/dashboard-olist/internal/models"
)

// Tables is the immutable raw-table context loaded once at startup.
// Every aggregation query takes it (directly or through the analytics
// service) instead of reaching for process-global state.
type Tables struct {
	Orders      []models.Order
	OrderItems  []models.OrderItem
	Payments    []models.Payment
	Reviews     []models.Review
	Sellers     []models.Seller
	Products    []models.Product
	Customers   []models.Customer
	Geolocation []models.GeolocationPoint

	// CategoryTranslations maps the Portuguese category name to its
	// English display name. Empty when the translation file is absent.
	CategoryTranslations map[string]string

	Quality QualityReport
}

// QualityReport counts the data-quality issues found during loading.
// They are informational, never fatal.
type QualityReport struct {
	SkippedRows       map[string]int `json:"skipped_rows"`
	PaymentMismatches int            `json:"payment_mismatches"`
	LoadedAt          time.Time      `json:"loaded_at"`
}

// TotalSkipped sums skipped rows across all input files.
func (q QualityReport) TotalSkipped() int {
	total := 0
	for _, n := range q.SkippedRows {
		total += n
	}
	return total
}
