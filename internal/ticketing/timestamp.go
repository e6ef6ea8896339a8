package ticketing

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// epochSecondsCeiling splits bare epoch numbers: values below it are
// seconds, values at or above it are milliseconds.
const epochSecondsCeiling = 10_000_000_000

// RawTimestamp defers decoding of the ticketing API's heterogeneous
// timestamp encodings: a legacy calendar object (year offset 1900,
// zero-based month), an object carrying a raw epoch, a formatted
// "YYYY-MM-DD HH:MM:SS" string, or a bare epoch number.
type RawTimestamp struct {
	raw json.RawMessage
}

// legacyDate mirrors the API's pre-epoch calendar object.
type legacyDate struct {
	Year    *int   `json:"year"`
	Month   int    `json:"month"`
	Date    int    `json:"date"`
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
	Seconds int    `json:"seconds"`
	Time    *int64 `json:"time"`
}

// UnmarshalJSON stores the raw encoding for later normalization.
func (t *RawTimestamp) UnmarshalJSON(data []byte) error {
	t.raw = append(t.raw[:0], data...)
	return nil
}

// MarshalJSON re-emits the original encoding.
func (t RawTimestamp) MarshalJSON() ([]byte, error) {
	if len(t.raw) == 0 {
		return []byte("null"), nil
	}
	return t.raw, nil
}

// IsZero reports whether no value was decoded.
func (t RawTimestamp) IsZero() bool {
	return len(t.raw) == 0 || string(t.raw) == "null"
}

// Normalize resolves the raw value to an instant. A value that cannot be
// parsed resolves to now with ok=false so a missing timestamp never halts
// the pipeline; callers log the degradation.
func (t RawTimestamp) Normalize(now time.Time) (instant time.Time, ok bool) {
	if t.IsZero() {
		return now, false
	}

	var num float64
	if err := json.Unmarshal(t.raw, &num); err == nil {
		return fromEpoch(int64(num)), true
	}

	var str string
	if err := json.Unmarshal(t.raw, &str); err == nil {
		return normalizeString(str, now)
	}

	var obj legacyDate
	if err := json.Unmarshal(t.raw, &obj); err == nil {
		if obj.Time != nil {
			return fromEpoch(*obj.Time), true
		}
		if obj.Year != nil {
			return time.Date(1900+*obj.Year, time.Month(obj.Month+1), obj.Date,
				obj.Hours, obj.Minutes, obj.Seconds, 0, time.UTC), true
		}
	}

	return now, false
}

func fromEpoch(v int64) time.Time {
	if v < epochSecondsCeiling {
		return time.Unix(v, 0).UTC()
	}
	return time.UnixMilli(v).UTC()
}

// normalizeString handles "YYYY-MM-DD HH:MM:SS" via fixed-width field
// extraction (the source format is not ISO 8601) plus bare digit strings
// carrying an epoch.
func normalizeString(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, false
	}
	if isDigits(s) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return now, false
		}
		return fromEpoch(v), true
	}
	if len(s) < 19 {
		return now, false
	}
	year, err1 := strconv.Atoi(s[0:4])
	month, err2 := strconv.Atoi(s[5:7])
	day, err3 := strconv.Atoi(s[8:10])
	hour, err4 := strconv.Atoi(s[11:13])
	minute, err5 := strconv.Atoi(s[14:16])
	second, err6 := strconv.Atoi(s[17:19])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return now, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
