package counter

import (
	"math"
	"math/big"
	"strconv"
)

const (
	thousand = 1000
	lakh     = 100000
	crore    = 10000000
)

// Format renders count for display: below a thousand as is, then in
// thousands (K), lakhs (L) and crores (Cr). Scaled values carry one decimal
// unless they are whole, so 1000 is "1K" and 1500 is "1.5K".
func Format(count int64) string {
	switch {
	case count >= crore:
		return scaled(count, crore, "Cr")
	case count >= lakh:
		return scaled(count, lakh, "L")
	case count >= thousand:
		return scaled(count, thousand, "K")
	}
	return strconv.FormatInt(count, 10)
}

func scaled(count, unit int64, suffix string) string {
	v := float64(count) / float64(unit)
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', -1, 64) + suffix
	}
	return fixed1(v) + suffix
}

// fixed1 formats v with one decimal, rounding halves up on the exact binary
// value of v. 1.25 gives "1.3" while 1.45 (stored as 1.4499...) gives "1.4".
func fixed1(v float64) string {
	r := new(big.Rat).SetFloat64(v)
	r.Mul(r, big.NewRat(10, 1))
	r.Add(r, big.NewRat(1, 2))
	tenths := new(big.Int).Quo(r.Num(), r.Denom()).Int64()
	return strconv.FormatInt(tenths/10, 10) + "." + strconv.FormatInt(tenths%10, 10)
}
