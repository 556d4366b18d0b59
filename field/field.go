// Package field implements modular arithmetic over the circuit's prime field.
//
// All operations keep results in [0, p). Comparison operators interpret both
// operands as field residues before comparing them as non-negative integers.
package field

import (
	"fmt"
	"math/big"
	"math/rand"
)

type Field struct {
	prime *big.Int
	// prime-1, kept for negation and wrap-around distances
	pMinusOne *big.Int
}

func New(prime *big.Int) *Field {
	if prime == nil || prime.Sign() <= 0 {
		panic(fmt.Sprintf("field: invalid prime %v", prime))
	}
	p := new(big.Int).Set(prime)
	return &Field{
		prime:     p,
		pMinusOne: new(big.Int).Sub(p, big.NewInt(1)),
	}
}

func (f *Field) Prime() *big.Int { return f.prime }

// Normalize returns the residue of x in [0, p).
func (f *Field) Normalize(x *big.Int) *big.Int {
	return new(big.Int).Mod(x, f.prime)
}

func (f *Field) IsZero(x *big.Int) bool {
	return f.Normalize(x).Sign() == 0
}

func (f *Field) Add(a, b *big.Int) *big.Int {
	r := new(big.Int).Add(a, b)
	return r.Mod(r, f.prime)
}

func (f *Field) Sub(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	return r.Mod(r, f.prime)
}

func (f *Field) Mul(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Mod(r, f.prime)
}

func (f *Field) Neg(a *big.Int) *big.Int {
	r := new(big.Int).Neg(a)
	return r.Mod(r, f.prime)
}

// Inv returns the modular inverse of a, or 0 when a is 0 mod p.
func (f *Field) Inv(a *big.Int) *big.Int {
	an := f.Normalize(a)
	if an.Sign() == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).ModInverse(an, f.prime)
}

// Div returns a * b^-1 mod p, and 0 when b is 0 mod p.
func (f *Field) Div(a, b *big.Int) *big.Int {
	bn := f.Normalize(b)
	if bn.Sign() == 0 {
		return big.NewInt(0)
	}
	return f.Mul(a, f.Inv(bn))
}

// IntDiv is integer division of the residues; 0 when b is 0 mod p.
func (f *Field) IntDiv(a, b *big.Int) *big.Int {
	bn := f.Normalize(b)
	if bn.Sign() == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Div(f.Normalize(a), bn)
}

// Mod is the remainder of the residues; 0 when b is 0 mod p.
func (f *Field) Mod(a, b *big.Int) *big.Int {
	bn := f.Normalize(b)
	if bn.Sign() == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Mod(f.Normalize(a), bn)
}

// Pow computes a^b mod p by square-and-multiply on the residues.
func (f *Field) Pow(a, b *big.Int) *big.Int {
	return new(big.Int).Exp(f.Normalize(a), f.Normalize(b), f.prime)
}

// Shl shifts the residue of a left by b bits and reduces.
func (f *Field) Shl(a, b *big.Int) *big.Int {
	r := new(big.Int).Lsh(f.Normalize(a), uint(f.Normalize(b).Uint64()))
	return r.Mod(r, f.prime)
}

// Shr shifts the residue of a right by b bits.
func (f *Field) Shr(a, b *big.Int) *big.Int {
	return new(big.Int).Rsh(f.Normalize(a), uint(f.Normalize(b).Uint64()))
}

func (f *Field) And(a, b *big.Int) *big.Int {
	r := new(big.Int).And(f.Normalize(a), f.Normalize(b))
	return r.Mod(r, f.prime)
}

func (f *Field) Or(a, b *big.Int) *big.Int {
	r := new(big.Int).Or(f.Normalize(a), f.Normalize(b))
	return r.Mod(r, f.prime)
}

func (f *Field) Xor(a, b *big.Int) *big.Int {
	r := new(big.Int).Xor(f.Normalize(a), f.Normalize(b))
	return r.Mod(r, f.prime)
}

// Not is the bitwise complement -a-1 reduced into the field.
func (f *Field) Not(a *big.Int) *big.Int {
	r := new(big.Int).Not(f.Normalize(a))
	return r.Mod(r, f.prime)
}

// Cmp compares the residues of a and b as non-negative integers.
func (f *Field) Cmp(a, b *big.Int) int {
	return f.Normalize(a).Cmp(f.Normalize(b))
}

func (f *Field) Eq(a, b *big.Int) bool  { return f.Cmp(a, b) == 0 }
func (f *Field) Neq(a, b *big.Int) bool { return f.Cmp(a, b) != 0 }
func (f *Field) Lt(a, b *big.Int) bool  { return f.Cmp(a, b) < 0 }
func (f *Field) Le(a, b *big.Int) bool  { return f.Cmp(a, b) <= 0 }
func (f *Field) Gt(a, b *big.Int) bool  { return f.Cmp(a, b) > 0 }
func (f *Field) Ge(a, b *big.Int) bool  { return f.Cmp(a, b) >= 0 }

// Rand returns a uniform element of [0, p).
func (f *Field) Rand(rng *rand.Rand) *big.Int {
	return new(big.Int).Rand(rng, f.prime)
}

// WrapDist is the cyclic distance between the residues of a and b,
// min(|a-b|, p-|a-b|). It is the per-constraint error measure of the
// mutation search.
func (f *Field) WrapDist(a, b *big.Int) *big.Int {
	d := f.Sub(a, b)
	d2 := new(big.Int).Sub(f.prime, d)
	if d.Cmp(d2) <= 0 {
		return d
	}
	return d2
}
