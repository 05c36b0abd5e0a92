package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Adda-Baaj/solcast-pv/internal/config"
	"github.com/Adda-Baaj/solcast-pv/internal/logger"
	"github.com/Adda-Baaj/solcast-pv/internal/monitor"
	"github.com/Adda-Baaj/solcast-pv/internal/storage"
	"github.com/Adda-Baaj/solcast-pv/pkg/accounts"
	"github.com/Adda-Baaj/solcast-pv/pkg/publishers"
)

// Monitor is the long-running runtime. It polls every enabled account on a fixed
// interval and publishes rate limit and rooftop site events to the configured sinks.
type Monitor struct {
	cfg          *config.Config
	accounts     []accounts.Account
	fanout       *publishers.Fanout
	service      *monitor.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewMonitor builds the monitor runtime from config files.
func NewMonitor(ctx context.Context, cfg *config.Config, log logger.Logger) (*Monitor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	accountReg, err := loadAccounts(cfg)
	if err != nil {
		return nil, err
	}
	enabled := accountReg.Enabled()
	accountIDs := make([]string, 0, len(enabled))
	for _, a := range enabled {
		accountIDs = append(accountIDs, a.ID)
	}
	log.InfoObj("accounts registry loaded", "accounts_meta", map[string]any{
		"count": len(accountIDs),
		"ids":   accountIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	summaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		SnapshotTTL:     cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init storage: %w", err), fanout.Close())
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"snapshot_ttl_seconds":     int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Monitor{
		cfg:          cfg,
		accounts:     enabled,
		fanout:       fanout,
		service:      monitor.NewService(monitor.SolcastConnector(log), fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// loadAccounts reads the accounts file, falling back to SOLCAST_API_KEY when the file does not exist.
func loadAccounts(cfg *config.Config) (*accounts.Registry, error) {
	reg, err := accounts.LoadRegistry(cfg.AccountsFile)
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || cfg.SolcastAPIKey == "" {
		return nil, fmt.Errorf("load accounts registry: %w", err)
	}
	return accounts.FromToken(cfg.SolcastAPIKey, cfg.RequestTimeout)
}

// Run starts the poll loop until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	if m == nil || m.service == nil {
		return fmt.Errorf("monitor is not initialized")
	}
	defer m.close()

	if len(m.accounts) == 0 {
		m.log.WarnObj("no enabled accounts; monitor idle", "accounts_file", m.cfg.AccountsFile)
		<-ctx.Done()
		return nil
	}

	m.log.InfoObj("monitor loop starting", "monitor_state", map[string]any{
		"accounts_count":   len(m.accounts),
		"publishers_count": m.fanout.Size(),
		"poll_interval":    m.pollInterval.String(),
	})

	if err := m.runOnce(ctx); err != nil {
		m.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.log.InfoObj("monitor loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := m.runOnce(ctx); err != nil {
				m.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) error {
	start := time.Now()
	m.log.InfoObj("poll started", "poll_meta", map[string]any{
		"accounts_count": len(m.accounts),
		"started_at":     start.UTC(),
	})
	if err := m.service.Run(ctx, m.accounts); err != nil {
		return err
	}
	m.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"accounts_count": len(m.accounts),
		"elapsed_ms":     time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases publishers and the storage backend, logging failures.
func (m *Monitor) close() {
	if err := m.fanout.Close(); err != nil {
		m.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if m.store == nil {
		return
	}
	if err := m.store.Close(); err != nil {
		m.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
