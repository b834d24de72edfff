package operators

import (
	"cmp"
	"time"
)

func registerOrdered[T cmp.Ordered](reg *ComparatorRegistry) {
	RegisterComparator[T](reg, cmp.Compare[T])
}

// NewDefaultRegistry creates a registry ordering the Go types produced by property getters.
func NewDefaultRegistry() *ComparatorRegistry {
	reg := NewComparatorRegistry()

	registerOrdered[int](reg)
	registerOrdered[int8](reg)
	registerOrdered[int16](reg)
	registerOrdered[int32](reg)
	registerOrdered[int64](reg)
	registerOrdered[uint](reg)
	registerOrdered[uint8](reg)
	registerOrdered[uint16](reg)
	registerOrdered[uint32](reg)
	registerOrdered[uint64](reg)
	registerOrdered[float32](reg)
	registerOrdered[float64](reg)
	registerOrdered[string](reg)
	registerOrdered[time.Duration](reg)

	// false < true
	RegisterComparator[bool](reg, func(a, b bool) int {
		switch {
		case a == b:
			return 0
		case !a:
			return -1
		default:
			return 1
		}
	})

	RegisterComparator[time.Time](reg, func(a, b time.Time) int { return a.Compare(b) })

	return reg
}

var defaultRegistry = NewDefaultRegistry()

// Compare orders two values using the default registry.
func Compare(left, right any) (int, error) {
	return defaultRegistry.Compare(left, right)
}
