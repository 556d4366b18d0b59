package field

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func f17() *Field { return New(big.NewInt(17)) }

func TestFieldBasicOps(t *testing.T) {
	f := f17()

	require.Equal(t, int64(4), f.Add(big.NewInt(20), big.NewInt(1)).Int64())
	require.Equal(t, int64(16), f.Sub(big.NewInt(0), big.NewInt(1)).Int64())
	require.Equal(t, int64(13), f.Mul(big.NewInt(5), big.NewInt(6)).Int64())
	require.Equal(t, int64(14), f.Neg(big.NewInt(3)).Int64())
}

func TestFieldLargeOperandsReduce(t *testing.T) {
	f := f17()
	big1 := new(big.Int)
	big1.SetString("1000000000000000000000000", 10)
	// 10^24 mod 17 = 16, and 16*2 mod 17 = 15
	require.Equal(t, int64(15), f.Mul(big1, big.NewInt(2)).Int64())
}

func TestFieldDivision(t *testing.T) {
	f := f17()

	for a := int64(1); a < 17; a++ {
		inv := f.Inv(big.NewInt(a))
		require.Equal(t, int64(1), f.Mul(big.NewInt(a), inv).Int64(), "a=%d", a)
	}
	// division by zero is defined as zero
	require.Equal(t, int64(0), f.Div(big.NewInt(5), big.NewInt(0)).Int64())
	require.Equal(t, int64(0), f.Inv(big.NewInt(0)).Int64())
}

func TestFieldComparisonsUseResidues(t *testing.T) {
	f := f17()

	// -1 ≡ 16, so -1 > 1 in the field ordering
	require.True(t, f.Gt(big.NewInt(-1), big.NewInt(1)))
	require.True(t, f.Eq(big.NewInt(18), big.NewInt(1)))
	require.True(t, f.Lt(big.NewInt(2), big.NewInt(-1)))
}

func TestFieldBitwiseAndShifts(t *testing.T) {
	f := f17()

	require.Equal(t, int64(12), f.Shl(big.NewInt(3), big.NewInt(2)).Int64())
	require.Equal(t, int64(3), f.Shr(big.NewInt(12), big.NewInt(2)).Int64())
	require.Equal(t, int64(4), f.And(big.NewInt(12), big.NewInt(5)).Int64())
	require.Equal(t, int64(13), f.Or(big.NewInt(12), big.NewInt(5)).Int64())
	require.Equal(t, int64(9), f.Xor(big.NewInt(12), big.NewInt(5)).Int64())
}

func TestFieldPow(t *testing.T) {
	f := f17()
	require.Equal(t, int64(1), f.Pow(big.NewInt(2), big.NewInt(8)).Int64())
	require.Equal(t, int64(13), f.Pow(big.NewInt(2), big.NewInt(6)).Int64())
	require.Equal(t, int64(1), f.Pow(big.NewInt(3), big.NewInt(16)).Int64())
}

func TestFieldWrapDist(t *testing.T) {
	f := f17()
	require.Equal(t, int64(2), f.WrapDist(big.NewInt(1), big.NewInt(16)).Int64())
	require.Equal(t, int64(0), f.WrapDist(big.NewInt(5), big.NewInt(22)).Int64())
	require.Equal(t, int64(8), f.WrapDist(big.NewInt(0), big.NewInt(8)).Int64())
}

func TestFieldRandInRange(t *testing.T) {
	f := f17()
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := f.Rand(rng)
		require.True(t, v.Sign() >= 0 && v.Cmp(f.Prime()) < 0)
	}
}

func TestFieldProperties(t *testing.T) {
	f := f17()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	elem := gen.Int64Range(0, 16).Map(func(v int64) *big.Int { return big.NewInt(v) })

	properties.Property("addition commutes", prop.ForAll(
		func(a, b *big.Int) bool {
			return f.Add(a, b).Cmp(f.Add(b, a)) == 0
		}, elem, elem,
	))

	properties.Property("multiplication commutes", prop.ForAll(
		func(a, b *big.Int) bool {
			return f.Mul(a, b).Cmp(f.Mul(b, a)) == 0
		}, elem, elem,
	))

	properties.Property("division inverts multiplication", prop.ForAll(
		func(a, b *big.Int) bool {
			if f.IsZero(b) {
				return true
			}
			return f.Div(f.Mul(a, b), b).Cmp(f.Normalize(a)) == 0
		}, elem, elem,
	))

	properties.Property("wrap distance is symmetric", prop.ForAll(
		func(a, b *big.Int) bool {
			return f.WrapDist(a, b).Cmp(f.WrapDist(b, a)) == 0
		}, elem, elem,
	))

	properties.TestingRun(t)
}
