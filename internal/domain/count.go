package domain

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Count is an engagement counter. The stats service reports counts either as
// JSON numbers or as display text such as "1.5M", "234K" or "1,234".
type Count int64

// UnmarshalJSON accepts numbers, display strings and null.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = Count(ParseCount(text))
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*c = Count(clampCount(f))
	return nil
}

// ParseCount converts display text into a count. Unparsable text yields 0.
func ParseCount(text string) int64 {
	text = strings.ToUpper(strings.TrimSpace(text))
	text = strings.NewReplacer(",", "", " ", "").Replace(text)
	if text == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(text, "K"):
		multiplier = 1e3
	case strings.HasSuffix(text, "M"):
		multiplier = 1e6
	case strings.HasSuffix(text, "B"):
		multiplier = 1e9
	}
	if multiplier != 1 {
		text = text[:len(text)-1]
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return clampCount(f * multiplier)
}

func clampCount(f float64) int64 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}
