package engine

import "github.com/shopspring/decimal"

// maxSeriesTerms guards against pathological scales like {0, 1e12, 0.001}.
const maxSeriesTerms = 10000

// seriesEpsilon absorbs float noise in start/end/step so that an end value
// reached "almost exactly" is still included.
var seriesEpsilon = decimal.New(1, -9)

// NumericSeries expands a {start, end, step} scale into the concrete option
// values start, start+step, start+2*step, ... up to and including end.
//
// A step pointing away from end is silently flipped rather than rejected:
// {1, 5, -1} produces the same series as {1, 5, 1}. Values are rendered
// without float artifacts, and integral values without a decimal point.
func NumericSeries(start, end, step float64) ([]string, error) {
	if step == 0 {
		return nil, errf(InvalidScale, "step cannot be 0")
	}

	s := decimal.NewFromFloat(start)
	e := decimal.NewFromFloat(end)
	d := decimal.NewFromFloat(step)

	if s.LessThanOrEqual(e) && d.IsNegative() {
		d = d.Neg()
	}
	if s.GreaterThan(e) && d.IsPositive() {
		d = d.Neg()
	}

	ascending := d.IsPositive()
	lo := e.Sub(seriesEpsilon)
	hi := e.Add(seriesEpsilon)

	var values []string
	v := s
	for i := 0; i < maxSeriesTerms; i++ {
		if ascending && v.GreaterThan(hi) {
			break
		}
		if !ascending && v.LessThan(lo) {
			break
		}
		values = append(values, v.String())
		v = v.Add(d)
	}
	return values, nil
}

// FormatNumber renders a number the same way NumericSeries does, so values
// submitted as bare numbers compare exactly against generated option texts.
func FormatNumber(f float64) string {
	return decimal.NewFromFloat(f).String()
}
