package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkassila/dashboard-olist/internal/analytics"
	"github.com/rkassila/dashboard-olist/internal/config"
	"github.com/rkassila/dashboard-olist/internal/dataset"
	"github.com/rkassila/dashboard-olist/internal/middleware"
	"github.com/rkassila/dashboard-olist/internal/observability"
	"github.com/rkassila/dashboard-olist/internal/server"
	"github.com/rkassila/dashboard-olist/internal/ui"
)

const (
	dataLoadTimeout = 2 * time.Minute
	cacheMaxAge     = "public, max-age=300"
)

var (
	flagHost    string
	flagPort    int
	flagDataDir string
)

func main() {
	root := &cobra.Command{
		Use:          "olist-dashboard",
		Short:        "Business performance dashboard for the Olist marketplace dataset",
		Long:         "Loads the Olist CSV exports, derives the platform financials, and serves the interactive dashboard pages.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	root.Flags().StringVar(&flagHost, "host", "", "bind address (overrides SERVER_HOST)")
	root.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides SERVER_PORT)")
	root.Flags().StringVar(&flagDataDir, "data-dir", "", "directory holding the Olist CSV files (overrides DATA_DIR)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}
	if flagHost != "" {
		cfg.Server.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagDataDir != "" {
		cfg.Data.Dir = flagDataDir
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"data_dir", cfg.Data.Dir,
	)

	loadCtx, cancel := context.WithTimeout(ctx, dataLoadTimeout)
	defer cancel()

	tables, err := dataset.NewLoader(cfg.Data.Dir, logger).Load(loadCtx)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		return err
	}

	svc := analytics.NewService(tables, cfg.Analytics, logger)

	pages := &pageHandlers{
		analytics: svc,
		minOrders: cfg.Analytics.MinStateOrders,
		logger:    logger,
	}

	srv := server.NewServer(svc, logger, &server.TemplateHandlers{
		Overview:  pages.overview,
		Drivers:   pages.drivers,
		Customers: pages.customers,
		Strategy:  pages.strategy,
		Actions:   pages.actions,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.RegisterShutdownHook(func(context.Context) error {
		logger.Info("analytics service stopped")
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

// pageHandlers render the dashboard pages. Views are built fresh per
// request and written through a buffer so a render error never leaks a
// half-written page.
type pageHandlers struct {
	analytics *analytics.Service
	minOrders int
	logger    *slog.Logger
}

var defaultMetrics = []string{"net_revenue", "olist_revenue"}

func (p *pageHandlers) render(w http.ResponseWriter, name string, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		p.logger.Error("render page", "page", name, "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	_, _ = buf.WriteTo(w)
}

func (p *pageHandlers) overview(w http.ResponseWriter, _ *http.Request) {
	view := ui.BuildOverview(p.analytics.FinancialOverview())
	p.render(w, "overview", func(buf *bytes.Buffer) error {
		return ui.RenderOverview(buf, view)
	})
}

func (p *pageHandlers) drivers(w http.ResponseWriter, _ *http.Request) {
	metrics := p.analytics.MonthlyMetrics(analytics.Filter{})
	categories := p.analytics.CategoryProfit(analytics.Filter{}, 10)
	view := ui.BuildDrivers(metrics, categories, defaultMetrics, "", "", 10)
	p.render(w, "drivers", func(buf *bytes.Buffer) error {
		return ui.RenderDrivers(buf, view)
	})
}

func (p *pageHandlers) customers(w http.ResponseWriter, _ *http.Request) {
	trust := p.analytics.TrustByState(analytics.Filter{})
	view := ui.BuildTrust(trust, p.analytics.Spotlight(), p.minOrders)
	p.render(w, "customers", func(buf *bytes.Buffer) error {
		return ui.RenderCustomers(buf, view)
	})
}

func (p *pageHandlers) strategy(w http.ResponseWriter, _ *http.Request) {
	points, highlights := p.analytics.SellerStrategy()
	view := ui.BuildStrategy(points, highlights, highlights.MaxProfit.SellersRemoved)
	p.render(w, "strategy", func(buf *bytes.Buffer) error {
		return ui.RenderStrategy(buf, view)
	})
}

func (p *pageHandlers) actions(w http.ResponseWriter, _ *http.Request) {
	_, highlights := p.analytics.SellerStrategy()
	view := ui.BuildActions(p.analytics.Spotlight(), highlights)
	p.render(w, "actions", func(buf *bytes.Buffer) error {
		return ui.RenderActions(buf, view)
	})
}
