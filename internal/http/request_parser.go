// Package http serves the wallet, CRM and settings operations as a JSON API.
//
// This file holds the helpers that read and validate request input: JSON
// bodies, month and date-range query parameters and path identifiers.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"secondbrain/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// maxUploadBytes bounds statement uploads.
const maxUploadBytes = 10 << 20

var errEmptyBody = errors.New("request body is empty")

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using the
// current UTC month as default. Out-of-range months fall back to the
// default as well.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	now = now.UTC()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y > 0 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start core.Date
	End   core.Date
}

// ParseDateRange reads the startDate and endDate query parameters. Both are
// required for reports.
func ParseDateRange(query url.Values) (DateRange, error) {
	start, err := requireDate(query, "startDate")
	if err != nil {
		return DateRange{}, err
	}
	end, err := requireDate(query, "endDate")
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: start, End: end}, nil
}

func requireDate(query url.Values, name string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return core.Date{}, core.Invalid(name, core.ErrMissingReference)
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid(name, err)
	}
	return d, nil
}

// optionalDate parses name when present and returns the zero date otherwise.
func optionalDate(query url.Values, name string) (core.Date, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid(name, err)
	}
	return d, nil
}

// optionalInt parses name as a non-negative integer, 0 when absent.
func optionalInt(query url.Values, name string) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, core.Invalid(name, fmt.Errorf("%q is not a non-negative integer", v))
	}
	return n, nil
}

// decodeJSON reads a single JSON document from the request body into dst.
// Unknown fields are rejected so typos surface as validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Invalid("body", errEmptyBody)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Invalid("body", fmt.Errorf("larger than %d bytes", tooLarge.Limit))
		}
		return core.Invalid("body", err)
	}
	if dec.More() {
		return core.Invalid("body", errors.New("unexpected data after JSON document"))
	}
	return nil
}

// pathID returns the named path wildcard with surrounding spaces removed.
func pathID(r *http.Request, name string) string {
	return strings.TrimSpace(r.PathValue(name))
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
