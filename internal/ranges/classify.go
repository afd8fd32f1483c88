package ranges

import (
	"fmt"
	"math"
	"strings"
)

// Band is a classification region for a numeric result.
type Band string

const (
	BandNone   Band = "none" // no bounds: the value is only acknowledged
	BandBelow  Band = "below"
	BandNormal Band = "normal"
	BandAbove  Band = "above"
)

type operator int

const (
	opLess operator = iota
	opGreater
	opAlways
)

type boundRef int

const (
	boundLow boundRef = iota
	boundHigh
)

// rule is one step of the band decision. Classify interprets the table and
// ClientScript translates the same table to JavaScript.
type rule struct {
	band  Band
	op    operator
	bound boundRef
}

var bandRules = []rule{
	{band: BandBelow, op: opLess, bound: boundLow},
	{band: BandAbove, op: opGreater, bound: boundHigh},
	{band: BandNormal, op: opAlways},
}

func (r rule) matches(v float64, b Bounds) bool {
	ref := b.Low
	if r.bound == boundHigh {
		ref = b.High
	}
	switch r.op {
	case opLess:
		return v < ref
	case opGreater:
		return v > ref
	default:
		return true
	}
}

// Classify places v relative to the bounds. Without bounds (ok == false) or for
// NaN the result is BandNone.
func Classify(v float64, b Bounds, ok bool) Band {
	if !ok || math.IsNaN(v) {
		return BandNone
	}
	for _, r := range bandRules {
		if r.matches(v, b) {
			return r.band
		}
	}
	return BandNone
}

// ClientFuncName is the name of the generated JavaScript classifier.
const ClientFuncName = "classifyBand"

// ClientScript returns the JavaScript function equivalent of Classify:
// classifyBand(v, nl, nh) where nl/nh are numbers or null.
func ClientScript() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s(v, nl, nh) {\n", ClientFuncName)
	fmt.Fprintf(&sb, "  if (isNaN(v) || nl === null || nh === null) return %q;\n", string(BandNone))
	terminal := false
	for _, r := range bandRules {
		name := "nl"
		if r.bound == boundHigh {
			name = "nh"
		}
		switch r.op {
		case opLess:
			fmt.Fprintf(&sb, "  if (v < %s) return %q;\n", name, string(r.band))
		case opGreater:
			fmt.Fprintf(&sb, "  if (v > %s) return %q;\n", name, string(r.band))
		default:
			fmt.Fprintf(&sb, "  return %q;\n", string(r.band))
			terminal = true
		}
	}
	if !terminal {
		fmt.Fprintf(&sb, "  return %q;\n", string(BandNone))
	}
	sb.WriteString("}\n")
	return sb.String()
}

// SelfCheck probes the classifier just outside and on the edges of b and
// reports the first probe whose band contradicts the bounds as written.
func SelfCheck(b Bounds) error {
	if b.Inverted() {
		return fmt.Errorf("bounds %s are inverted: every value is below or above", b)
	}
	step := math.Max(math.Abs(b.High-b.Low), 1) / 2
	probes := []struct {
		v    float64
		want Band
	}{
		{b.Low - step, BandBelow},
		{b.Low, BandNormal},
		{b.High, BandNormal},
		{b.High + step, BandAbove},
	}
	for _, p := range probes {
		if got := Classify(p.v, b, true); got != p.want {
			return fmt.Errorf("value %s classified %s, expected %s", formatNumber(p.v), got, p.want)
		}
	}
	return nil
}
