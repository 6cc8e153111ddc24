package calculate

import "github.com/shopspring/decimal"

// Round rounds v to places decimals, half away from zero, on its shortest
// decimal representation so 102.39999999999999 style artefacts collapse.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
