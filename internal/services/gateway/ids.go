package gateway

import (
	"math/rand/v2"
	"time"
)

const (
	suffixMin = 11111
	suffixMax = 99999
)

// GenerateRequestID returns the local-time YYYYMMDDHHmmss of now in loc
// followed by a pseudo-random suffix in [11111, 99999].
//
// Two calls within the same second can collide. Callers that need strict
// uniqueness pass their own id through RequestOptions.
func GenerateRequestID(now time.Time, loc *time.Location) string {
	return generateRequestID(now, loc, func() int {
		return suffixMin + rand.IntN(suffixMax-suffixMin+1)
	})
}

func generateRequestID(now time.Time, loc *time.Location, suffix func() int) string {
	if loc != nil {
		now = now.In(loc)
	}
	n := suffix()
	buf := make([]byte, 0, len(requestIDLayout)+5)
	buf = now.AppendFormat(buf, requestIDLayout)
	return string(appendInt5(buf, n))
}

func appendInt5(buf []byte, n int) []byte {
	var digits [5]byte
	for i := 4; i >= 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return append(buf, digits[:]...)
}

// FormatTimestamp renders t in loc as ISO-8601 with milliseconds and offset.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimestampLayout)
}

// LoadLocation resolves a named zone, falling back to a fixed UTC+7 zone when
// the tz database lacks it.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

var gatewayTimeLayouts = []string{requestIDLayout, TimestampLayout, time.RFC3339Nano, "2006-01-02 15:04:05"}

// ParseTimestamp accepts the compact and ISO forms the gateway uses in
// notification bodies. Forms without an offset are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var lastErr error
	for _, layout := range gatewayTimeLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
