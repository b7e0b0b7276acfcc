// Package normalize provides the pure per-field normalization functions used
// during ingestion. Every function is total: no input string causes an error,
// and any unparsable input is reported as absence via the ok return.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	multiWS     = regexp.MustCompile(`\s+`)
	commaOrWS   = regexp.MustCompile(`[,\s]`)
	patentStrip = regexp.MustCompile(`[\s\-/,.]`)
	companyPunc = regexp.MustCompile(`[,.\-'"()\[\]]`)

	datePatterns = []*regexp.Regexp{
		// YYYY-MM-DD / YYYY/MM/DD / YYYY.MM.DD
		regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`),
		// DD-MM-YYYY / MM-DD-YYYY (disambiguated below)
		regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`),
		// YYYYMMDD
		regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`),
	}
)

var boolTrue = map[string]bool{"true": true, "yes": true, "1": true, "t": true, "y": true}
var boolFalse = map[string]bool{"false": true, "no": true, "0": true, "f": true, "n": true}

// Patent-number sentinel vocabulary. Exact matches are compared after
// lowercasing; the substring keywords catch spellings like "PENDING1" and
// "USPATENTAPPLICATIONPENDING".
var patentSentinels = map[string]bool{
	"pending": true, "-": true, "n/a": true, "na": true,
	"none": true, "unknown": true, "": true,
}
var patentSentinelSubstr = []string{"pending", "unknown"}

// Text trims and collapses internal whitespace. Empty results are absent.
func Text(s string) (string, bool) {
	s = multiWS.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return "", false
	}
	return s, true
}

// Int parses a thousands-separated integer. Decimal inputs are truncated.
func Int(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	cleaned := commaOrWS.ReplaceAllString(s, "")
	if n, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// Bool accepts the fixed vocabulary true/false/yes/no/1/0 (plus t/f/y/n),
// case-insensitive. Anything else is absent.
func Bool(s string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return false, false
	}
	if boolTrue[v] {
		return true, true
	}
	if boolFalse[v] {
		return false, true
	}
	return false, false
}

// Date extracts a calendar date from a date or timestamp-looking prefix and
// returns it as YYYY-MM-DD. Timestamps keep only the date part. Day-first
// ordering is assumed when a two-digit pair is ambiguous.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	// Timestamp forms: keep the date prefix only.
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = strings.TrimSpace(s[:i])
	}

	for _, pat := range datePatterns {
		m := pat.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		var y, mo, d int
		if len(m[1]) == 4 {
			y, _ = strconv.Atoi(m[1])
			mo, _ = strconv.Atoi(m[2])
			d, _ = strconv.Atoi(m[3])
		} else {
			a, _ := strconv.Atoi(m[1])
			b, _ := strconv.Atoi(m[2])
			y, _ = strconv.Atoi(m[3])
			switch {
			case a > 12:
				d, mo = a, b
			case b > 12:
				mo, d = a, b
			default:
				// Ambiguous pair: assume DD-MM-YYYY.
				d, mo = a, b
			}
		}
		if mo < 1 || mo > 12 || y < 1800 || y > 2100 {
			continue
		}
		if d < 1 || d > daysIn(y, mo) {
			continue
		}
		return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), true
	}
	return "", false
}

func daysIn(year, month int) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PatentNumber canonicalizes a patent identifier: multi-valued fields split
// on "|" keep only the first token, sentinel values (exact or substring
// match) become absent, and the survivor is uppercased with separators
// stripped.
func PatentNumber(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if i := strings.IndexByte(s, '|'); i >= 0 {
		s = strings.TrimSpace(s[:i])
		if s == "" {
			return "", false
		}
	}
	low := strings.ToLower(s)
	if patentSentinels[low] {
		return "", false
	}
	for _, kw := range patentSentinelSubstr {
		if strings.Contains(low, kw) {
			return "", false
		}
	}
	cleaned := patentStrip.ReplaceAllString(strings.ToUpper(s), "")
	if cleaned == "" {
		return "", false
	}
	return cleaned, true
}

// CompanyKey derives the case- and punctuation-normalized lookup key for a
// company legal name: upper-case, punctuation to spaces, whitespace
// collapsed. "NTT DOCOMO, INC." becomes "NTT DOCOMO INC".
func CompanyKey(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	s = companyPunc.ReplaceAllString(s, " ")
	s = strings.TrimSpace(multiWS.ReplaceAllString(s, " "))
	if s == "" {
		return "", false
	}
	return s, true
}

// CountryKey extracts the leading token of the free-text registration
// country and keeps it only when it is a two-letter alphabetic code.
// "JP JAPAN" becomes "JP"; "Japan" is absent.
func CountryKey(s string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", false
	}
	code := strings.ToUpper(fields[0])
	if len(code) != 2 || !isAlpha(code) {
		return "", false
	}
	return code, true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
