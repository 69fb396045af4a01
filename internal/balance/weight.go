package balance

import "github.com/shopspring/decimal"

// SharingMethod selects how an amount is split among participants. It is
// either MethodEqual or the key of a weight type defined on the group.
type SharingMethod string

// MethodEqual splits equally: every participant weighs 1.
const MethodEqual SharingMethod = "equal"

var one = decimal.NewFromInt(1)

// WeightOf resolves a participant's share weight for the given sharing
// method. With MethodEqual every participant weighs 1. Otherwise the method
// names a weight type and the participant's stored weight for it is used.
// Missing weight data degrades to 1 rather than failing, so an incompletely
// configured group still splits equally.
func WeightOf(weights map[string]decimal.Decimal, method SharingMethod) decimal.Decimal {
	if method == MethodEqual || method == "" {
		return one
	}
	if w, ok := weights[string(method)]; ok {
		return w
	}
	return one
}
