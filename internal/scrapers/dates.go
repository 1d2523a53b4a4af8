package scrapers

import (
	"regexp"
	"strconv"
	"time"
)

var (
	dateRe     = regexp.MustCompile(`(\d{1,2})[/.](\d{1,2})[/.](\d{2,4})`)
	yearRe     = regexp.MustCompile(`\b(20\d{2})\b`)
	untilRe    = regexp.MustCompile(`(?i)até\s+(\d{1,2}[/.]\d{1,2}[/.]\d{2,4})`)
	rangeRe    = regexp.MustCompile(`(\d{1,2}[/.]\d{1,2}[/.]\d{2,4})\s+a\s+(\d{1,2}[/.]\d{1,2}[/.]\d{2,4})`)
	deARangeRe = regexp.MustCompile(`(?i)de\s+\d{1,2}\s+a\s+(\d{1,2}[/.]\d{1,2}[/.]\d{2,4})`)
)

// parseDate reads DD/MM/YYYY or DD.MM.YYYY, with two-digit years taken
// as 20xx. Returns false when the string is not a plausible date.
func parseDate(s string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return buildDate(m[1], m[2], m[3])
}

// lastDate returns the final date mentioned in free text, the usual
// place listings put the submission deadline.
func lastDate(s string) (time.Time, bool) {
	matches := dateRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return time.Time{}, false
	}
	m := matches[len(matches)-1]
	return buildDate(m[1], m[2], m[3])
}

// deadlineFromText applies the phrasing used on FAPESQ listings:
// "até DD/MM/YYYY", "DD/MM/YYYY a DD/MM/YYYY" (closing date wins) and
// "de N a DD/MM/YYYY".
func deadlineFromText(s string) (time.Time, bool) {
	if m := untilRe.FindStringSubmatch(s); m != nil {
		return parseDate(m[1])
	}
	if m := rangeRe.FindStringSubmatch(s); m != nil {
		return parseDate(m[2])
	}
	if m := deARangeRe.FindStringSubmatch(s); m != nil {
		return parseDate(m[1])
	}
	return time.Time{}, false
}

// firstYear finds the first four-digit 20xx year in free text.
func firstYear(s string) int {
	m := yearRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	year, _ := strconv.Atoi(m[1])
	return year
}

func buildDate(dayStr, monthStr, yearStr string) (time.Time, bool) {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	year, _ := strconv.Atoi(yearStr)

	if len(yearStr) == 2 {
		year += 2000
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 2000 || year > 2100 {
		return time.Time{}, false
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow, so 31/02 would roll into March
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}
