package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/internal/config"
	"secondbrain/internal/core"
	sheetsmem "secondbrain/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{StoreBackend: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	cfg, err := FromAppConfig(&config.Config{
		StoreBackend:    "sqlite",
		SQLiteDBPath:    "x.db",
		SeedDefaults:    true,
		GoogleSheetName: "Journal",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.True(t, cfg.SeedDefaults)
	assert.Equal(t, "Journal", cfg.GoogleSheetName)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: MemoryBackend, AMQPURL: "amqp://localhost/"}.Validate())
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, SeedDefaults: true})
	require.NoError(t, err)
	defer res.Cleanup()

	svc := res.Services
	assert.NoError(t, svc.Ready(ctx))
	accounts := svc.Ledger.Accounts()
	require.Len(t, accounts, 3)
	card, err := svc.Ledger.Account("card")
	require.NoError(t, err)
	assert.False(t, card.IncludeInBudget)
	assert.NotEmpty(t, svc.Tracker.Projects())

	prefs, err := svc.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "USD", prefs.Currency)
}

func TestCreateSQLiteBackendPersists(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "sb.db")}

	res, err := f.CreateBackend(ctx, cfg)
	require.NoError(t, err)
	acc, err := res.Services.Ledger.CreateAccount(ctx, "Savings", core.Cents(5000))
	require.NoError(t, err)
	require.NoError(t, res.Services.Ready(ctx))
	require.NoError(t, res.Cleanup())

	res, err = f.CreateBackend(ctx, cfg)
	require.NoError(t, err)
	defer res.Cleanup()

	got, err := res.Services.Ledger.Account(acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got.Balance.Cents)
	assert.Empty(t, res.Services.Tracker.Projects())
}

func TestCreateJournalDefaultsToMemory(t *testing.T) {
	j, err := NewFactory(nil).CreateJournal(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &sheetsmem.Journal{}, j)
}
