package util

import (
	"time"
)

// ChinaTZ is China Standard Time, used by the A-share upstreams for naive timestamps.
var ChinaTZ = time.FixedZone("CST", 8*60*60)

var marketLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"20060102150405",
	"20060102",
}

// ParseMarketTime parses the naive date/time layouts the quote upstreams emit,
// interpreted in loc.
func ParseMarketTime(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range marketLayouts {
		if len(layout) != len(s) {
			continue
		}
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
