package sheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

var (
	serialRegex = regexp.MustCompile(`^\d+$`)
	mdyRegex    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoRegex    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// spreadsheet day-serial epoch (the classic 1900 date system)
	serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
)

// NormalizeDate converts a date cell to canonical YYYY-MM-DD form.
// Digit-only values are spreadsheet epoch-day serials, MM/DD/YYYY is
// reparsed, canonical values pass through, and anything else passes through
// verbatim as a lenient fallback. Empty input yields null.
func NormalizeDate(value string) null.String {
	value = strings.TrimSpace(value)
	if value == "" {
		return null.String{}
	}

	if serialRegex.MatchString(value) {
		serial, err := strconv.Atoi(value)
		if err != nil {
			return null.StringFrom(value)
		}
		return null.StringFrom(serialEpoch.AddDate(0, 0, serial).Format("2006-01-02"))
	}

	if m := mdyRegex.FindStringSubmatch(value); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return null.StringFrom(fmt.Sprintf("%s-%02d-%02d", m[3], month, day))
	}

	if isoRegex.MatchString(value) {
		return null.StringFrom(value)
	}

	// best effort: keep unrecognized values as-is
	return null.StringFrom(value)
}
