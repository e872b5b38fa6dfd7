package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMICFor(t *testing.T) {
	assert.Equal(t, "xnys", MICFor("AMZN"))
	assert.Equal(t, "xlon", MICFor("VOD.L"))
	assert.Equal(t, "xtks", MICFor("7203.t"))
	assert.Equal(t, "xtsx", MICFor("ABC.V"))
}

func TestGuardWeekend(t *testing.T) {
	g := NewTradingGuard()

	saturday := time.Date(2024, 7, 6, 15, 0, 0, 0, time.UTC)
	closed, reason := g.Closed("AMZN", saturday)
	assert.True(t, closed)
	assert.Contains(t, reason, "2024-07-06")

	monday := time.Date(2024, 7, 8, 15, 0, 0, 0, time.UTC)
	closed, reason = g.Closed("AMZN", monday)
	assert.False(t, closed)
	assert.Empty(t, reason)
}

func TestGuardHoliday(t *testing.T) {
	g := NewTradingGuard()
	if g.calendarFor("AMZN").Fallback {
		t.Skip("exchange calendar unavailable")
	}

	christmas := time.Date(2024, 12, 25, 15, 0, 0, 0, time.UTC)
	closed, _ := g.Closed("AMZN", christmas)
	assert.True(t, closed)
}
