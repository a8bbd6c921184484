package backend

import (
	"context"

	"secondbrain/internal/crm"
	"secondbrain/internal/settings"
	"secondbrain/internal/sheets"
	"secondbrain/internal/storage"
	"secondbrain/internal/wallet"
)

// Services is the assembled application: the persisted store and the
// domain services running on it.
type Services struct {
	Store    storage.Store
	Ledger   *wallet.Ledger
	Tracker  *crm.Tracker
	Settings *settings.Service
}

// Ready reports whether the store can serve requests. Stores without a
// health check are always ready.
func (s *Services) Ready(ctx context.Context) error {
	if p, ok := s.Store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the services and optional cleanup function
type BackendResult struct {
	Services *Services
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend builds the store and the services on top of it
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateJournal builds the transaction journal mirrored by the worker
	CreateJournal(ctx context.Context, config Config) (sheets.Journal, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	SeedDefaults bool

	// Ledger events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets journal, optional
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType represents the type of store backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
