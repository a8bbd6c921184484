// Package settings stores user preferences: the display currency and the
// color theme.
package settings

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"secondbrain/internal/core"
	"secondbrain/internal/storage"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const DefaultCurrency = "USD"

// Preferences is the full settings document.
type Preferences struct {
	Currency string `json:"currency"`
	Theme    Theme  `json:"theme"`
}

type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Get returns the stored preferences, falling back to USD and the light
// theme for missing or unusable values.
func (s *Service) Get(ctx context.Context) (Preferences, error) {
	prefs := Preferences{Currency: DefaultCurrency, Theme: ThemeLight}

	var code string
	found, err := s.store.Get(ctx, storage.KeyCurrency, &code)
	if err != nil {
		return Preferences{}, fmt.Errorf("load currency: %w", err)
	}
	if found {
		if unit, err := currency.ParseISO(code); err == nil {
			prefs.Currency = unit.String()
		}
	}

	var theme Theme
	found, err = s.store.Get(ctx, storage.KeyTheme, &theme)
	if err != nil {
		return Preferences{}, fmt.Errorf("load theme: %w", err)
	}
	if found && (theme == ThemeLight || theme == ThemeDark) {
		prefs.Theme = theme
	}
	return prefs, nil
}

// SetCurrency stores an ISO 4217 code, normalized to upper case.
func (s *Service) SetCurrency(ctx context.Context, code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", core.Invalid("currency", fmt.Errorf("%q is not an ISO 4217 code", code))
	}
	if err := s.store.Set(ctx, storage.KeyCurrency, unit.String()); err != nil {
		return "", fmt.Errorf("save currency: %w", err)
	}
	return unit.String(), nil
}

func (s *Service) SetTheme(ctx context.Context, theme Theme) error {
	theme = Theme(strings.ToLower(strings.TrimSpace(string(theme))))
	if theme != ThemeLight && theme != ThemeDark {
		return core.Invalid("theme", fmt.Errorf("unknown theme %q", theme))
	}
	if err := s.store.Set(ctx, storage.KeyTheme, theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// Formatter renders money in a currency for a language.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter builds a formatter for an ISO code, defaulting to USD when
// the code is unknown.
func NewFormatter(code string, tag language.Tag) Formatter {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	return Formatter{unit: unit, printer: message.NewPrinter(tag)}
}

// Format prints m with the currency symbol and the language's grouping.
func (f Formatter) Format(m core.Money) string {
	sign := ""
	if m.IsNegative() {
		sign = "-"
	}
	return sign + f.printer.Sprint(currency.Symbol(f.unit.Amount(m.Abs().Decimal().InexactFloat64())))
}

// Code returns the ISO code of the formatter's currency.
func (f Formatter) Code() string {
	return f.unit.String()
}
