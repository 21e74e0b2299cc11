// Package waveform generates the published signal.
//
// The signal is sin(counter), sent as a fixed-point decimal string with six
// fractional digits. The counter advances by Step per sample and is never reset.
package waveform

import (
	"math"
	"strconv"
)

// Step is the counter increment between two consecutive samples.
const Step = 0.1

// Precision is the number of fractional digits in a formatted sample.
const Precision = 6

// Value returns the signal value for counter.
func Value(counter float64) float64 {
	return math.Sin(counter)
}

// Format renders v as a fixed-point decimal with exactly Precision fractional digits.
func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', Precision, 64)
}

// Sample returns the formatted signal value for counter.
func Sample(counter float64) string {
	return Format(Value(counter))
}
