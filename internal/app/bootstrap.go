package app

import (
	"log/slog"
	"os"

	"cryptodash/internal/domain"
	apphttp "cryptodash/internal/http"
	"cryptodash/internal/infra"
	"cryptodash/internal/infra/storage"
	"cryptodash/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config *infra.Config
	Server *apphttp.Server
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize wires config, logging, stores, the market client and the web
// server. History and icon failures are downgraded to warnings; the core
// dashboard runs without them.
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping CryptoDash...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Data directory
	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		return err
	}

	// 4. User entry store
	store := storage.NewUserStore(cfg.UserFilePath())

	// 5. Refresh history
	var history domain.RefreshLog
	if h, err := storage.NewHistory(cfg.HistoryDBPath()); err != nil {
		slog.Warn("Refresh history disabled", slog.Any("error", err))
	} else {
		history = h
		slog.Info("✅ Refresh history ready")
	}

	// 6. Icon cache
	var icons *infra.IconCache
	if c, err := infra.NewIconCache(cfg); err != nil {
		slog.Warn("Icon cache disabled", slog.Any("error", err))
	} else {
		icons = c
		slog.Info("✅ Icon cache ready")
	}

	// 7. Market client, hub and dashboard service
	fetcher := infra.NewCoinGeckoClient(cfg)
	hub := apphttp.NewHub()

	var iconSyncer service.IconSyncer
	if icons != nil {
		iconSyncer = icons
	}
	dash := service.NewDashboard(fetcher, store, history, iconSyncer, hub, cfg.API.Limit)

	// 8. Web server
	var resolver apphttp.IconResolver
	if icons != nil {
		resolver = icons
	}
	b.Server = apphttp.NewServer(cfg, dash, hub, resolver)

	slog.Info("✅ Server configured", slog.String("addr", cfg.Server.Addr))
	return nil
}
