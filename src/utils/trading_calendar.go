package utils

import (
	"strings"
	"sync"
	"time"

	"market-loader/src/logger"

	"github.com/scmhub/calendar"
)

// Symbol suffix to MIC code (ISO 10383). Symbols without a known suffix trade on NYSE.
var suffixMIC = []struct {
	suffix string
	mic    string
}{
	{".L", "xlon"}, {".PA", "xpar"}, {".DE", "xfra"}, {".AS", "xams"}, {".BR", "xbru"},
	{".MI", "xmil"}, {".MC", "xmad"}, {".ST", "xsto"}, {".CO", "xcse"}, {".HE", "xhel"},
	{".VI", "xwbo"}, {".SW", "xswx"}, {".TO", "xtse"}, {".V", "xtsx"}, {".T", "xtks"},
	{".HK", "xhkg"}, {".AX", "xasx"}, {".KS", "xkrx"}, {".TW", "xtai"}, {".SS", "xshg"},
	{".SZ", "xshe"},
}

// MICFor maps a ticker to its exchange calendar code.
func MICFor(symbol string) string {
	symbol = strings.ToUpper(symbol)
	for _, m := range suffixMIC {
		if strings.HasSuffix(symbol, m.suffix) {
			return m.mic
		}
	}
	return "xnys"
}

// -----------------------------------------------------------------------------

// TradingCalendar calculates trading days using scmhub/calendar.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

func GetCalendar(symbol string) *TradingCalendar {
	mic := MICFor(symbol)

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		mic = "xnys"
		cal = calendar.GetCalendar(mic)
	}
	if cal == nil {
		// Mon-Fri in New York time
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
}

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// TradingGuard decides whether a market-data run is worth doing today.
// Calendars are loaded once per symbol.
type TradingGuard struct {
	Logger    *logger.Logger
	calendars map[string]*TradingCalendar
	mu        sync.Mutex
}

func NewTradingGuard() *TradingGuard {
	return &TradingGuard{
		Logger:    logger.NewLogger("TradingGuard"),
		calendars: make(map[string]*TradingCalendar),
	}
}

func (g *TradingGuard) calendarFor(symbol string) *TradingCalendar {
	g.mu.Lock()
	defer g.mu.Unlock()

	cal, ok := g.calendars[symbol]
	if !ok {
		cal = GetCalendar(symbol)
		if cal.Fallback {
			g.Logger.Warning("No exchange calendar for %s, falling back to weekdays", symbol)
		}
		g.calendars[symbol] = cal
	}
	return cal
}

// Closed reports whether the symbol's exchange is closed on the day containing at,
// with a human-readable reason.
func (g *TradingGuard) Closed(symbol string, at time.Time) (bool, string) {
	cal := g.calendarFor(symbol)
	if cal.IsTradingDay(at) {
		return false, ""
	}
	day := at.In(cal.Timezone).Format("2006-01-02")
	return true, "exchange " + strings.ToUpper(cal.MIC) + " closed on " + day
}
