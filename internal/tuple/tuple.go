// Package tuple provides immutable fixed-arity composite values used as
// synthetic group-by keys.
//
// A group-by over two to four keys is executed as a single-key group-by on a
// tuple of those keys. Every slot is comparable, so a tuple is itself a valid
// map key and == is structural equality. The hash is computed once at
// construction and never changes because the slots cannot be reassigned.
package tuple

import (
	"fmt"
	"hash/maphash"
)

// seed is shared by all tuples of the process so that equal tuples hash
// equally no matter where they were built.
var seed = maphash.MakeSeed()

const hashPrime = 31

func combine(h uint64, slot uint64) uint64 {
	return h*hashPrime + slot
}

// BiTuple is an immutable pair.
type BiTuple[A, B comparable] struct {
	a    A
	b    B
	hash uint64
}

// NewBi builds a pair and precomputes its hash.
func NewBi[A, B comparable](a A, b B) BiTuple[A, B] {
	h := combine(1, maphash.Comparable(seed, a))
	h = combine(h, maphash.Comparable(seed, b))
	return BiTuple[A, B]{a: a, b: b, hash: h}
}

func (t BiTuple[A, B]) A() A { return t.a }
func (t BiTuple[A, B]) B() B { return t.b }

// Hash returns the hash computed at construction.
func (t BiTuple[A, B]) Hash() uint64 { return t.hash }

// Equal reports slot-wise equality.
func (t BiTuple[A, B]) Equal(o BiTuple[A, B]) bool {
	return t.hash == o.hash && t.a == o.a && t.b == o.b
}

func (t BiTuple[A, B]) String() string {
	return fmt.Sprintf("(%v, %v)", t.a, t.b)
}

// TriTuple is an immutable triple.
type TriTuple[A, B, C comparable] struct {
	a    A
	b    B
	c    C
	hash uint64
}

// NewTri builds a triple and precomputes its hash.
func NewTri[A, B, C comparable](a A, b B, c C) TriTuple[A, B, C] {
	h := combine(1, maphash.Comparable(seed, a))
	h = combine(h, maphash.Comparable(seed, b))
	h = combine(h, maphash.Comparable(seed, c))
	return TriTuple[A, B, C]{a: a, b: b, c: c, hash: h}
}

func (t TriTuple[A, B, C]) A() A { return t.a }
func (t TriTuple[A, B, C]) B() B { return t.b }
func (t TriTuple[A, B, C]) C() C { return t.c }

// Hash returns the hash computed at construction.
func (t TriTuple[A, B, C]) Hash() uint64 { return t.hash }

// Equal reports slot-wise equality.
func (t TriTuple[A, B, C]) Equal(o TriTuple[A, B, C]) bool {
	return t.hash == o.hash && t.a == o.a && t.b == o.b && t.c == o.c
}

func (t TriTuple[A, B, C]) String() string {
	return fmt.Sprintf("(%v, %v, %v)", t.a, t.b, t.c)
}

// QuadTuple is an immutable quadruple.
type QuadTuple[A, B, C, D comparable] struct {
	a    A
	b    B
	c    C
	d    D
	hash uint64
}

// NewQuad builds a quadruple and precomputes its hash.
func NewQuad[A, B, C, D comparable](a A, b B, c C, d D) QuadTuple[A, B, C, D] {
	h := combine(1, maphash.Comparable(seed, a))
	h = combine(h, maphash.Comparable(seed, b))
	h = combine(h, maphash.Comparable(seed, c))
	h = combine(h, maphash.Comparable(seed, d))
	return QuadTuple[A, B, C, D]{a: a, b: b, c: c, d: d, hash: h}
}

func (t QuadTuple[A, B, C, D]) A() A { return t.a }
func (t QuadTuple[A, B, C, D]) B() B { return t.b }
func (t QuadTuple[A, B, C, D]) C() C { return t.c }
func (t QuadTuple[A, B, C, D]) D() D { return t.d }

// Hash returns the hash computed at construction.
func (t QuadTuple[A, B, C, D]) Hash() uint64 { return t.hash }

// Equal reports slot-wise equality.
func (t QuadTuple[A, B, C, D]) Equal(o QuadTuple[A, B, C, D]) bool {
	return t.hash == o.hash && t.a == o.a && t.b == o.b && t.c == o.c && t.d == o.d
}

func (t QuadTuple[A, B, C, D]) String() string {
	return fmt.Sprintf("(%v, %v, %v, %v)", t.a, t.b, t.c, t.d)
}
