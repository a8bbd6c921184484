package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"secondbrain/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, time.March, 15, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query string
		want  MonthParams
	}{
		{"defaults", "", MonthParams{Year: 2024, Month: 3}},
		{"explicit", "year=2023&month=12", MonthParams{Year: 2023, Month: 12}},
		{"month out of range", "month=13", MonthParams{Year: 2024, Month: 3}},
		{"not a number", "year=abc&month=x", MonthParams{Year: 2024, Month: 3}},
		{"whitespace", "year=%202022%20&month=%201", MonthParams{Year: 2022, Month: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if got := ParseMonthParams(q, now); got != tt.want {
				t.Errorf("ParseMonthParams(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	q := url.Values{"startDate": {"2024-07-01"}, "endDate": {"2024-07-31"}}
	rng, err := ParseDateRange(q)
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if rng.Start.String() != "2024-07-01" || rng.End.String() != "2024-07-31" {
		t.Errorf("unexpected range %v..%v", rng.Start, rng.End)
	}

	for _, bad := range []url.Values{
		{"startDate": {"2024-07-01"}},
		{"startDate": {"07/01/2024"}, "endDate": {"2024-07-31"}},
	} {
		_, err := ParseDateRange(bad)
		if !errors.Is(err, core.ErrValidation) {
			t.Errorf("ParseDateRange(%v) error = %v, want validation error", bad, err)
		}
	}
}

func TestOptionalInt(t *testing.T) {
	if n, err := optionalInt(url.Values{}, "limit"); n != 0 || err != nil {
		t.Errorf("absent: %d, %v", n, err)
	}
	if n, err := optionalInt(url.Values{"limit": {"25"}}, "limit"); n != 25 || err != nil {
		t.Errorf("25: %d, %v", n, err)
	}
	if _, err := optionalInt(url.Values{"limit": {"-1"}}, "limit"); !errors.Is(err, core.ErrValidation) {
		t.Errorf("negative: %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"x"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"name":"x","extra":1}`, true},
		{"trailing data", `{"name":"x"}{"name":"y"}`, true},
		{"malformed", `{"name":`, true},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if tt.wantErr {
				if !errors.Is(err, core.ErrValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil || p.Name != "x" {
				t.Errorf("decode: %+v, %v", p, err)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line1\nline2\tend", "line1\nline2\tend"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
