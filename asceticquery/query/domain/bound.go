package query

import "fmt"

// Bound is an optional non-negative limit: unset is distinct from zero.
type Bound struct {
	val   int
	valid bool
}

func Limit(n int) Bound {
	return Bound{val: n, valid: true}
}

func Unbounded() Bound {
	return Bound{}
}

func (b Bound) IsSet() bool {
	return b.valid
}

// Get panics on an unset bound.
func (b Bound) Get() int {
	if !b.valid {
		panic("called Get on an unset Bound")
	}
	return b.val
}

func (b Bound) GetOr(def int) int {
	if b.valid {
		return b.val
	}
	return def
}

// Min keeps the tighter of two bounds.
func (b Bound) Min(other Bound) Bound {
	switch {
	case !b.valid:
		return other
	case !other.valid:
		return b
	case other.val < b.val:
		return other
	}
	return b
}

func (b Bound) String() string {
	if b.valid {
		return fmt.Sprintf("%d", b.val)
	}
	return "unbounded"
}
