package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondbrain/internal/crm"
)

func TestParseAmount(t *testing.T) {
	m, err := parseAmount(" 12.50 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), m.Cents)

	_, err = parseAmount("abc")
	assert.Error(t, err)
}

func TestParseDay(t *testing.T) {
	now := time.Date(2024, time.July, 3, 23, 30, 0, 0, time.UTC)

	d, err := parseDay("", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-03", d.String())

	d, err = parseDay("2024-01-15", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", d.String())

	_, err = parseDay("15/01/2024", now)
	assert.Error(t, err)
}

func TestMonthBounds(t *testing.T) {
	first, last := monthBounds(time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", first.String())
	assert.Equal(t, "2024-02-29", last.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2h05m", formatDuration(crm.Duration{Hours: 2, Minutes: 5}))
}
