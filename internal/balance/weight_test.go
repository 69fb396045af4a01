package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWeightOfEqualMethod(t *testing.T) {
	weights := map[string]decimal.Decimal{"persons": dec("4")}

	assert.True(t, WeightOf(weights, MethodEqual).Equal(dec("1")))
	assert.True(t, WeightOf(nil, MethodEqual).Equal(dec("1")))
}

func TestWeightOfNamedType(t *testing.T) {
	weights := map[string]decimal.Decimal{"persons": dec("4"), "rooms": dec("1.5")}

	assert.True(t, WeightOf(weights, SharingMethod("rooms")).Equal(dec("1.5")))
}

func TestWeightOfMissingDefaultsToOne(t *testing.T) {
	assert.True(t, WeightOf(nil, SharingMethod("persons")).Equal(dec("1")))
	assert.True(t, WeightOf(map[string]decimal.Decimal{}, SharingMethod("persons")).Equal(dec("1")))
}

func TestEntityKeyString(t *testing.T) {
	assert.Equal(t, "member_7", MemberKey(7).String())
	assert.Equal(t, "resource_3", ResourceKey(3).String())
	assert.NotEqual(t, MemberKey(3), ResourceKey(3), "kinds must not collide")
}
