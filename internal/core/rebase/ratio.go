package rebase

import (
	"math"
	"math/bits"
)

// MulDiv returns floor(x*y/d) and the remainder. The product is formed in 128 bits,
// so only a quotient that itself exceeds 64 bits is reported as Overflow.
func MulDiv(x, y, d uint64) (q, rem uint64, err error) {
	if d == 0 {
		return 0, 0, Overflow.New("division by zero: %d * %d / 0", x, y)
	}

	hi, lo := bits.Mul64(x, y)
	if hi >= d {
		return 0, 0, Overflow.New("%d * %d / %d exceeds 64 bits", x, y, d)
	}

	q, rem = bits.Div64(hi, lo, d)
	return q, rem, nil
}

// ElasticToBase converts an elastic amount to base parts against the
// {elasticTotal, baseTotal} snapshot.
//
// When either total is zero the conversion is 1:1; that is how the first
// depositor is seeded and how a rebase drained on one side re-seeds.
// Otherwise the result is floor(elastic*baseTotal/elasticTotal). With roundUp,
// a non-zero result that converts back to less than elastic is incremented.
func ElasticToBase(elasticTotal, baseTotal, elastic uint64, roundUp bool) (uint64, error) {
	if elasticTotal == 0 || baseTotal == 0 {
		return elastic, nil
	}

	base, _, err := MulDiv(elastic, baseTotal, elasticTotal)
	if err != nil {
		return 0, err
	}

	if roundUp && base != 0 {
		back, _, err := MulDiv(base, elasticTotal, baseTotal)
		if err != nil {
			return 0, err
		}
		if back < elastic {
			if base == math.MaxUint64 {
				return 0, Overflow.New("rounding up %d base parts", base)
			}
			base++
		}
	}

	return base, nil
}

// BaseToElastic converts base parts to elastic against the {elasticTotal, baseTotal}
// snapshot. It mirrors ElasticToBase, except that only baseTotal == 0 is
// degenerate: with elasticTotal == 0 and outstanding base, shares are worth 0.
func BaseToElastic(elasticTotal, baseTotal, base uint64, roundUp bool) (uint64, error) {
	if baseTotal == 0 {
		return base, nil
	}

	elastic, _, err := MulDiv(base, elasticTotal, baseTotal)
	if err != nil {
		return 0, err
	}

	if roundUp && elastic != 0 {
		back, _, err := MulDiv(elastic, baseTotal, elasticTotal)
		if err != nil {
			return 0, err
		}
		if back < base {
			if elastic == math.MaxUint64 {
				return 0, Overflow.New("rounding up %d elastic", elastic)
			}
			elastic++
		}
	}

	return elastic, nil
}

func add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, Overflow.New("%d + %d", a, b)
	}
	return sum, nil
}

func sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, Underflow.New("%d - %d", a, b)
	}
	return diff, nil
}
