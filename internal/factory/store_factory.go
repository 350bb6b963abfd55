package factory

import (
	"context"
	"fmt"

	"github.com/mikey/app-tracker/internal/adapters/store"
	"github.com/mikey/app-tracker/internal/config"
	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates record stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	google *GoogleFactory

	closers []func() error
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger, google *GoogleFactory) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
		google: google,
	}
}

// StoreType returns the configured store name
func (f *StoreFactory) StoreType() string {
	return f.cfg.GetStore().Type
}

// CreateRecordStore creates a record store based on the configuration
func (f *StoreFactory) CreateRecordStore(ctx context.Context) (core.RecordStore, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "memory":
		return store.NewMemoryStore(f.logger), nil
	case "sqlite":
		return f.track(store.NewSQLiteStore(storeCfg.SQLitePath, f.logger))
	case "mysql":
		return f.track(store.NewMySQLStore(storeCfg.MySQLDSN, f.logger))
	case "postgres":
		return f.track(store.NewPostgresStore(storeCfg.PostgresDSN, f.logger))
	case "sheets":
		sheetsCfg := f.cfg.GetSheets()
		if sheetsCfg.SpreadsheetID == "" {
			return nil, fmt.Errorf("sheets store requires sheets.spreadsheet_id")
		}
		svc, err := f.google.CreateSheetsService(ctx)
		if err != nil {
			return nil, err
		}
		return store.NewSheetsStore(svc, sheetsCfg.SpreadsheetID, sheetsCfg.SheetName, f.logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}

func (f *StoreFactory) track(s *store.SQLStore, err error) (core.RecordStore, error) {
	if err != nil {
		return nil, err
	}
	f.closers = append(f.closers, s.Close)
	return s, nil
}

// Close closes any database handles opened by the factory
func (f *StoreFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
