package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// swedishMonths maps full Swedish month names to month numbers.
var swedishMonths = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"mars":      time.March,
	"april":     time.April,
	"maj":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"augusti":   time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"december":  time.December,
}

var (
	isoDatePattern     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	swedishDatePattern = regexp.MustCompile(`(\d{1,2})\s+([a-zåäö]+)\s+(\d{4})`)
)

// dateParsers is the ordered list of recognized date shapes. The first
// parser to produce a valid calendar date wins.
var dateParsers = []func(string) (string, bool){
	parseISO,
	parseSwedish,
}

// Date normalizes a free-form date string to ISO YYYY-MM-DD. Unparseable
// input yields the empty string; a date is never guessed or defaulted.
func Date(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, parse := range dateParsers {
		if iso, ok := parse(s); ok {
			return iso
		}
	}
	return ""
}

// parseISO matches embedded ISO dates, including the date part of
// datetime attribute values like "2024-09-01T12:34".
func parseISO(s string) (string, bool) {
	m := isoDatePattern.FindString(s)
	if m == "" {
		return "", false
	}
	d, err := time.Parse("2006-01-02", m)
	if err != nil {
		return "", false
	}
	return d.Format("2006-01-02"), true
}

// parseSwedish matches dates like "28 augusti 2024".
func parseSwedish(s string) (string, bool) {
	m := swedishDatePattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return "", false
	}
	month, ok := swedishMonths[m[2]]
	if !ok {
		return "", false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(m[3])
	if err != nil {
		return "", false
	}
	// time.Date silently rolls invalid days over into the next month;
	// reject those instead of emitting a fabricated date.
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != month || d.Year() != year {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), true
}
