package scrapers

import (
	"net/url"
	"strings"
)

// AbsoluteURL resolves href against base. Invalid input returns the
// href unchanged so callers can still record the raw link.
func AbsoluteURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// CleanURL strips the fragment and tracking query parameters
// (utm_*, fbclid, gclid) so dedupe keys are stable across campaigns.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") || lower == "fbclid" || lower == "gclid" {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// dedupe removes repeated PDF URLs within one run, keeping first wins.
func dedupe(rows []ScrapedEdital) []ScrapedEdital {
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, row := range rows {
		key := row.PDFURL
		if key == "" {
			key = row.PageURL
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}
