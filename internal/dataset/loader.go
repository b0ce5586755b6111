package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rkassila/dashboard-olist/internal/models"
)

// Input file names, fixed by the Olist public dataset export.
const (
	OrdersFile       = "olist_orders_dataset.csv"
	OrderItemsFile   = "olist_order_items_dataset.csv"
	PaymentsFile     = "olist_order_payments_dataset.csv"
	ReviewsFile      = "olist_order_reviews_dataset.csv"
	SellersFile      = "olist_sellers_dataset.csv"
	ProductsFile     = "olist_products_dataset.csv"
	CustomersFile    = "olist_customers_dataset.csv"
	GeolocationFile  = "olist_geolocation_dataset.csv"
	TranslationsFile = "product_category_name_translation.csv"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// paymentTolerance is the largest per-order gap between payment totals
// and item totals still considered consistent.
var paymentTolerance = decimal.RequireFromString("0.01")

type Loader struct {
	dir    string
	logger *slog.Logger
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, logger: logger}
}

// Load reads every raw table into memory. Malformed rows are skipped
// and counted; a missing required file, or a required table empty after
// coercion, is a fatal configuration error.
func (l *Loader) Load(ctx context.Context) (*Tables, error) {
	start := time.Now()

	tables := &Tables{
		CategoryTranslations: make(map[string]string),
		Quality: QualityReport{
			SkippedRows: make(map[string]int),
		},
	}

	var mu sync.Mutex
	record := func(file string, skipped int) {
		if skipped == 0 {
			return
		}
		mu.Lock()
		tables.Quality.SkippedRows[file] += skipped
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, skipped, err := l.loadOrders(ctx)
		if err != nil {
			return err
		}
		tables.Orders = rows
		record(OrdersFile, skipped)
		return nil
	})
	g.Go(func() error {
		rows, skipped, err := l.loadOrderItems(ctx)
		if err != nil {
			return err
		}
		tables.OrderItems = rows
		record(OrderItemsFile, skipped)
		return nil
	})
	g.Go(func() error {
		rows, skipped, err := l.loadPayments(ctx)
		if err != nil {
			return err
		}
		tables.Payments = rows
		record(PaymentsFile, skipped)
		return nil
	})
	g.Go(func() error {
		rows, skipped, err := l.loadReviews(ctx)
		if err != nil {
			return err
		}
		tables.Reviews = rows
		record(ReviewsFile, skipped)
		return nil
	})
	g.Go(func() error {
		rows, skipped, err := l.loadSellers(ctx)
		if err != nil {
			return err
		}
		tables.Sellers = rows
		record(SellersFile, skipped)
		return nil
	})
	g.Go(func() error {
		rows, skipped, err := l.loadProducts(ctx)
		if err != nil {
			return err
		}
		tables.Products = rows
		record(ProductsFile, skipped)
		return nil
	})
	g.Go(func() error {
		rows, skipped, err := l.loadCustomers(ctx)
		if err != nil {
			return err
		}
		tables.Customers = rows
		record(CustomersFile, skipped)
		return nil
	})
	g.Go(func() error {
		rows, skipped, err := l.loadGeolocation(ctx)
		if err != nil {
			return err
		}
		tables.Geolocation = rows
		record(GeolocationFile, skipped)
		return nil
	})
	g.Go(func() error {
		translations, skipped, err := l.loadTranslations(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		tables.CategoryTranslations = translations
		mu.Unlock()
		record(TranslationsFile, skipped)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for file, n := range map[string]int{
		OrdersFile:     len(tables.Orders),
		OrderItemsFile: len(tables.OrderItems),
		PaymentsFile:   len(tables.Payments),
		ReviewsFile:    len(tables.Reviews),
		SellersFile:    len(tables.Sellers),
		ProductsFile:   len(tables.Products),
		CustomersFile:  len(tables.Customers),
	} {
		if n == 0 {
			return nil, fmt.Errorf("%s: no valid rows after coercion", file)
		}
	}

	tables.Quality.PaymentMismatches = crossCheckPayments(tables)
	tables.Quality.LoadedAt = time.Now()

	l.logger.Info("dataset loaded",
		"orders", len(tables.Orders),
		"order_items", len(tables.OrderItems),
		"payments", len(tables.Payments),
		"reviews", len(tables.Reviews),
		"sellers", len(tables.Sellers),
		"products", len(tables.Products),
		"customers", len(tables.Customers),
		"geolocation", len(tables.Geolocation),
		"skipped_rows", tables.Quality.TotalSkipped(),
		"payment_mismatches", tables.Quality.PaymentMismatches,
		"duration", time.Since(start),
	)

	return tables, nil
}

// field accessor bound to one CSV record and its header.
type row func(column string) string

// readTable streams one CSV file, invoking fn per record. fn returning
// an error means the row failed coercion: it is skipped and counted.
func (l *Loader) readTable(ctx context.Context, name string, required bool, fn func(get row) error) (int, error) {
	path := filepath.Join(l.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			l.logger.Warn("optional input file missing", "file", name)
			return 0, nil
		}
		return 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read %s header: %w", name, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	skipped := 0
	for {
		select {
		case <-ctx.Done():
			return skipped, ctx.Err()
		default:
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		get := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		if err := fn(get); err != nil {
			skipped++
		}
	}

	return skipped, nil
}

func (l *Loader) loadOrders(ctx context.Context) ([]models.Order, int, error) {
	var rows []models.Order
	skipped, err := l.readTable(ctx, OrdersFile, true, func(get row) error {
		id := get("order_id")
		customerID := get("customer_id")
		status := get("order_status")
		if id == "" || customerID == "" || status == "" {
			return fmt.Errorf("missing key column")
		}

		purchasedAt, err := parseTimestamp(get("order_purchase_timestamp"))
		if err != nil {
			return err
		}
		approvedAt, _ := parseTimestamp(get("order_approved_at"))
		deliveredAt, _ := parseTimestamp(get("order_delivered_customer_date"))
		estimatedAt, _ := parseTimestamp(get("order_estimated_delivery_date"))

		// Delivered-before-purchase rows are corrupt, not late.
		if !deliveredAt.IsZero() && deliveredAt.Before(purchasedAt) {
			return fmt.Errorf("delivered before purchase")
		}

		rows = append(rows, models.Order{
			ID:          id,
			CustomerID:  customerID,
			Status:      status,
			PurchasedAt: purchasedAt,
			ApprovedAt:  approvedAt,
			DeliveredAt: deliveredAt,
			EstimatedAt: estimatedAt,
		})
		return nil
	})
	return rows, skipped, err
}

func (l *Loader) loadOrderItems(ctx context.Context) ([]models.OrderItem, int, error) {
	var rows []models.OrderItem
	skipped, err := l.readTable(ctx, OrderItemsFile, true, func(get row) error {
		orderID := get("order_id")
		productID := get("product_id")
		sellerID := get("seller_id")
		if orderID == "" || productID == "" || sellerID == "" {
			return fmt.Errorf("missing key column")
		}

		itemID, err := strconv.Atoi(get("order_item_id"))
		if err != nil {
			return err
		}
		price, err := parseMoney(get("price"))
		if err != nil {
			return err
		}
		freight, err := parseMoney(get("freight_value"))
		if err != nil {
			return err
		}
		shippingLimit, _ := parseTimestamp(get("shipping_limit_date"))

		rows = append(rows, models.OrderItem{
			OrderID:       orderID,
			ItemID:        itemID,
			ProductID:     productID,
			SellerID:      sellerID,
			ShippingLimit: shippingLimit,
			Price:         price,
			FreightValue:  freight,
		})
		return nil
	})
	return rows, skipped, err
}

func (l *Loader) loadPayments(ctx context.Context) ([]models.Payment, int, error) {
	var rows []models.Payment
	skipped, err := l.readTable(ctx, PaymentsFile, true, func(get row) error {
		orderID := get("order_id")
		if orderID == "" {
			return fmt.Errorf("missing order id")
		}
		sequential, err := strconv.Atoi(get("payment_sequential"))
		if err != nil {
			return err
		}
		installments, err := strconv.Atoi(get("payment_installments"))
		if err != nil {
			return err
		}
		value, err := parseMoney(get("payment_value"))
		if err != nil {
			return err
		}

		rows = append(rows, models.Payment{
			OrderID:      orderID,
			Sequential:   sequential,
			Type:         get("payment_type"),
			Installments: installments,
			Value:        value,
		})
		return nil
	})
	return rows, skipped, err
}

func (l *Loader) loadReviews(ctx context.Context) ([]models.Review, int, error) {
	var rows []models.Review
	skipped, err := l.readTable(ctx, ReviewsFile, true, func(get row) error {
		orderID := get("order_id")
		if orderID == "" {
			return fmt.Errorf("missing order id")
		}
		score, err := strconv.Atoi(get("review_score"))
		if err != nil {
			return err
		}
		if score < 1 || score > 5 {
			return fmt.Errorf("review score %d out of range", score)
		}
		createdAt, _ := parseTimestamp(get("review_creation_date"))
		answeredAt, _ := parseTimestamp(get("review_answer_timestamp"))

		rows = append(rows, models.Review{
			ID:         get("review_id"),
			OrderID:    orderID,
			Score:      score,
			CreatedAt:  createdAt,
			AnsweredAt: answeredAt,
		})
		return nil
	})
	return rows, skipped, err
}

func (l *Loader) loadSellers(ctx context.Context) ([]models.Seller, int, error) {
	var rows []models.Seller
	skipped, err := l.readTable(ctx, SellersFile, true, func(get row) error {
		id := get("seller_id")
		if id == "" {
			return fmt.Errorf("missing seller id")
		}
		rows = append(rows, models.Seller{
			ID:        id,
			ZipPrefix: get("seller_zip_code_prefix"),
			City:      get("seller_city"),
			State:     get("seller_state"),
		})
		return nil
	})
	return rows, skipped, err
}

func (l *Loader) loadProducts(ctx context.Context) ([]models.Product, int, error) {
	var rows []models.Product
	skipped, err := l.readTable(ctx, ProductsFile, true, func(get row) error {
		id := get("product_id")
		if id == "" {
			return fmt.Errorf("missing product id")
		}
		rows = append(rows, models.Product{
			ID:       id,
			Category: get("product_category_name"),
		})
		return nil
	})
	return rows, skipped, err
}

func (l *Loader) loadCustomers(ctx context.Context) ([]models.Customer, int, error) {
	var rows []models.Customer
	skipped, err := l.readTable(ctx, CustomersFile, true, func(get row) error {
		id := get("customer_id")
		if id == "" {
			return fmt.Errorf("missing customer id")
		}
		rows = append(rows, models.Customer{
			ID:        id,
			UniqueID:  get("customer_unique_id"),
			ZipPrefix: get("customer_zip_code_prefix"),
			City:      get("customer_city"),
			State:     get("customer_state"),
		})
		return nil
	})
	return rows, skipped, err
}

func (l *Loader) loadGeolocation(ctx context.Context) ([]models.GeolocationPoint, int, error) {
	var rows []models.GeolocationPoint
	skipped, err := l.readTable(ctx, GeolocationFile, false, func(get row) error {
		lat, err := strconv.ParseFloat(get("geolocation_lat"), 64)
		if err != nil {
			return err
		}
		lng, err := strconv.ParseFloat(get("geolocation_lng"), 64)
		if err != nil {
			return err
		}
		rows = append(rows, models.GeolocationPoint{
			ZipPrefix: get("geolocation_zip_code_prefix"),
			Lat:       lat,
			Lng:       lng,
			City:      get("geolocation_city"),
			State:     get("geolocation_state"),
		})
		return nil
	})
	return rows, skipped, err
}

func (l *Loader) loadTranslations(ctx context.Context) (map[string]string, int, error) {
	translations := make(map[string]string)
	skipped, err := l.readTable(ctx, TranslationsFile, false, func(get row) error {
		name := get("product_category_name")
		english := get("product_category_name_english")
		if name == "" || english == "" {
			return fmt.Errorf("missing translation column")
		}
		translations[name] = english
		return nil
	})
	return translations, skipped, err
}

// crossCheckPayments counts orders whose payment total disagrees with
// the sum of item price and freight beyond the tolerance. Used as a
// data-quality signal only.
func crossCheckPayments(t *Tables) int {
	paid := make(map[string]decimal.Decimal, len(t.Orders))
	for _, p := range t.Payments {
		paid[p.OrderID] = paid[p.OrderID].Add(p.Value)
	}

	charged := make(map[string]decimal.Decimal, len(t.Orders))
	for _, item := range t.OrderItems {
		charged[item.OrderID] = charged[item.OrderID].Add(item.Price).Add(item.FreightValue)
	}

	mismatches := 0
	for orderID, total := range charged {
		if total.Sub(paid[orderID]).Abs().GreaterThan(paymentTolerance) {
			mismatches++
		}
	}
	return mismatches
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative amount %s", s)
	}
	return d, nil
}
