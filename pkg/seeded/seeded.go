// Package seeded generates reproducible pseudo-random numbers from facility
// codes. Fallback and mock data are built from it so the same code always
// yields the same figures.
package seeded

import (
	"hash/fnv"
	"math"
	"strings"
)

// DefaultSeed is used when a code carries no usable leading integer.
const DefaultSeed int64 = 1000

const (
	multiplier = 9301
	increment  = 49297
	modulus    = 233280
)

// Seed parses the leading integer of code (after optional whitespace and sign).
// Codes without digits, or that parse to zero, seed with DefaultSeed.
func Seed(code string) int64 {
	s := strings.TrimSpace(code)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		if n > math.MaxInt64/10-9 {
			break
		}
		n = n*10 + int64(r-'0')
		digits++
	}
	if digits == 0 || n == 0 {
		return DefaultSeed
	}
	if neg {
		n = -n
	}
	return n
}

// Fraction maps a seed onto [0,1) with a linear-congruential step.
// Negative seeds yield a negative fraction, mirroring a truncating modulo.
func Fraction(seed int64) float64 {
	return math.Mod(float64(seed)*multiplier+increment, modulus) / modulus
}

// Value returns floor(Fraction(seed)*(max-min) + min).
func Value(seed, min, max int64) int64 {
	return int64(math.Floor(Fraction(seed)*float64(max-min) + float64(min)))
}

// Derive mixes salt into seed so that related values drawn for the same code
// (one per gender or age band, say) differ from each other.
func Derive(seed int64, salt string) int64 {
	h := fnv.New32a()
	h.Write([]byte(salt))
	return seed*31 + int64(h.Sum32()%10007)
}
