package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"secondbrain/internal/amqp"
	"secondbrain/internal/crm"
	applog "secondbrain/internal/log"
	"secondbrain/internal/settings"
	"secondbrain/internal/sheets"
	gsheet "secondbrain/internal/sheets/google"
	sheetsmem "secondbrain/internal/sheets/memory"
	"secondbrain/internal/storage"
	"secondbrain/internal/storage/memory"
	"secondbrain/internal/wallet"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(applog.FieldComponent, applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store   storage.Store
		cleanup []func() error
	)
	switch config.Type {
	case SQLiteBackend:
		sqliteStore, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		store = sqliteStore
		cleanup = append(cleanup, sqliteStore.Close)
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		if config.DataDirectory != "" {
			store = memory.NewFromDir(config.DataDirectory)
		} else {
			store = memory.New()
		}
		f.logger.Info("Initialized memory store", "data_directory", config.DataDirectory)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	closeAll := func() error {
		var errs []error
		for i := len(cleanup) - 1; i >= 0; i-- {
			errs = append(errs, cleanup[i]())
		}
		return errors.Join(errs...)
	}

	// AMQP is optional: without it mutations are committed locally only
	var walletOpts []wallet.Option
	var crmOpts []crm.Option
	if !config.SeedDefaults {
		walletOpts = append(walletOpts, wallet.WithoutSeed())
		crmOpts = append(crmOpts, crm.WithoutSeed())
	}
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		} else {
			walletOpts = append(walletOpts, wallet.WithPublisher(amqpClient))
			cleanup = append(cleanup, amqpClient.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	ledger, err := wallet.New(ctx, store, walletOpts...)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	tracker, err := crm.NewTracker(ctx, store, crmOpts...)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("load tracker: %w", err)
	}

	return &BackendResult{
		Services: &Services{
			Store:    store,
			Ledger:   ledger,
			Tracker:  tracker,
			Settings: settings.NewService(store),
		},
		Cleanup: closeAll,
	}, nil
}

// CreateJournal returns the Google Sheets journal when a spreadsheet is
// configured and an in-memory journal otherwise.
func (f *DefaultFactory) CreateJournal(ctx context.Context, config Config) (sheets.Journal, error) {
	if config.GoogleSpreadsheetID == "" {
		f.logger.Warn("No spreadsheet configured, mirroring the journal in memory")
		return sheetsmem.New(), nil
	}
	client, err := gsheet.Open(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets journal", "sheet", config.GoogleSheetName)
	return client, nil
}
