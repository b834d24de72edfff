package operators

import (
	"fmt"
	"reflect"
)

// Comparator orders two values of the same Go type: negative, zero or positive.
type Comparator func(left, right any) (int, error)

// Comparable lets value objects take part in ordering without registration.
type Comparable interface {
	CompareTo(other any) (int, error)
}

type ComparatorRegistry struct {
	comparators map[reflect.Type]Comparator
}

func NewComparatorRegistry() *ComparatorRegistry {
	return &ComparatorRegistry{
		comparators: make(map[reflect.Type]Comparator),
	}
}

func RegisterComparator[T any](reg *ComparatorRegistry, fn func(a, b T) int) {
	var zero T
	reg.comparators[reflect.TypeOf(zero)] = func(left, right any) (int, error) {
		return fn(left.(T), right.(T)), nil
	}
}

// Compare orders two non-nil values of identical dynamic type.
func (r *ComparatorRegistry) Compare(left, right any) (int, error) {
	if left == nil || right == nil {
		return 0, fmt.Errorf("cannot compare %T with %T", left, right)
	}
	fn, err := r.lookup(left, right)
	if err != nil {
		return 0, err
	}
	return fn(left, right)
}

// Supports reports whether values of v's dynamic type can be ordered.
func (r *ComparatorRegistry) Supports(v any) bool {
	if _, ok := r.comparators[reflect.TypeOf(v)]; ok {
		return true
	}
	_, ok := v.(Comparable)
	return ok
}

func (r *ComparatorRegistry) lookup(left, right any) (Comparator, error) {
	lt := reflect.TypeOf(left)
	if lt == reflect.TypeOf(right) {
		if fn, ok := r.comparators[lt]; ok {
			return fn, nil
		}
	}
	if _, ok := left.(Comparable); ok {
		return func(left, right any) (int, error) {
			return left.(Comparable).CompareTo(right)
		}, nil
	}
	return nil, fmt.Errorf("values of %T and %T are not comparable", left, right)
}
