// Package ranges extracts numeric normal-range bounds from free text and
// classifies values against them.
package ranges

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// explicitRange matches "3.9-6.1", "3,9 – 6,1" and similar.
	explicitRange = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*[-–]\s*(\d+(?:[.,]\d+)?)`)
	numberToken   = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// Bounds is the numeric normal band [Low, High]. Bounds parsed from an explicit
// range keep document order, so Low > High is possible for malformed input.
type Bounds struct {
	Low  float64
	High float64
}

// String renders the canonical "low-high" form accepted by Parse.
func (b Bounds) String() string {
	return formatNumber(b.Low) + "-" + formatNumber(b.High)
}

// Inverted reports whether the bounds were written high-first.
func (b Bounds) Inverted() bool { return b.Low > b.High }

// Degenerate reports whether the bounds came from a single value.
func (b Bounds) Degenerate() bool { return b.Low == b.High }

// Parse extracts bounds from text. It tries, in order: an explicit
// "number-number" range, the first two numbers anywhere, a single number
// (Low == High). Text without usable numbers yields ok == false.
func Parse(text string) (b Bounds, ok bool) {
	if strings.TrimSpace(text) == "" {
		return Bounds{}, false
	}
	if m := explicitRange.FindStringSubmatch(text); m != nil {
		low, errLow := parseNumber(m[1])
		high, errHigh := parseNumber(m[2])
		if errLow == nil && errHigh == nil {
			return Bounds{Low: low, High: high}, true
		}
	}

	var nums []float64
	for _, tok := range numberToken.FindAllString(text, -1) {
		v, err := parseNumber(tok)
		if err != nil {
			continue
		}
		nums = append(nums, v)
		if len(nums) == 2 {
			break
		}
	}
	switch len(nums) {
	case 2:
		return Bounds{Low: nums[0], High: nums[1]}, true
	case 1:
		return Bounds{Low: nums[0], High: nums[0]}, true
	default:
		return Bounds{}, false
	}
}

func parseNumber(tok string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(tok, ",", ".", 1), 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
