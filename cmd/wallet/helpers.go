package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"

	"secondbrain/internal/backend"
	"secondbrain/internal/config"
	"secondbrain/internal/core"
	"secondbrain/internal/settings"
)

// session is an opened backend plus the formatter for the preferred
// currency.
type session struct {
	*backend.Services
	money   settings.Formatter
	cleanup backend.CleanupFunc
}

func (s *session) Close() {
	if s.cleanup == nil {
		return
	}
	if err := s.cleanup(); err != nil {
		slog.Warn("Backend cleanup failed", "error", err)
	}
}

func openSession(ctx context.Context) (*session, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(slog.Default()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	prefs, err := res.Services.Settings.Get(ctx)
	if err != nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &session{
		Services: res.Services,
		money:    settings.NewFormatter(prefs.Currency, language.English),
		cleanup:  res.Cleanup,
	}, nil
}

// parseAmount reads a positive decimal such as "12.50".
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(s))
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return core.Cents(cents), nil
}

// parseDay reads YYYY-MM-DD, defaulting to today in UTC.
func parseDay(s string, now time.Time) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		now = now.UTC()
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	d, err := core.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// monthBounds returns the first and last day of the month containing now.
func monthBounds(now time.Time) (core.Date, core.Date) {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 12, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return core.NewDate(first.Year(), int(first.Month()), first.Day()),
		core.NewDate(last.Year(), int(last.Month()), last.Day())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
