package operators

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// Coerce converts arg to the dynamic type of target.
func Coerce(arg any, target any) (any, error) {
	if arg == nil || target == nil {
		return arg, nil
	}
	if reflect.TypeOf(arg) == reflect.TypeOf(target) {
		return arg, nil
	}
	var (
		result any
		err    error
	)
	switch target.(type) {
	case string:
		result, err = cast.ToStringE(arg)
	case int:
		result, err = cast.ToIntE(arg)
	case int8:
		result, err = cast.ToInt8E(arg)
	case int16:
		result, err = cast.ToInt16E(arg)
	case int32:
		result, err = cast.ToInt32E(arg)
	case int64:
		result, err = cast.ToInt64E(arg)
	case uint:
		result, err = cast.ToUintE(arg)
	case uint8:
		result, err = cast.ToUint8E(arg)
	case uint16:
		result, err = cast.ToUint16E(arg)
	case uint32:
		result, err = cast.ToUint32E(arg)
	case uint64:
		result, err = cast.ToUint64E(arg)
	case float32:
		result, err = cast.ToFloat32E(arg)
	case float64:
		result, err = cast.ToFloat64E(arg)
	case bool:
		result, err = cast.ToBoolE(arg)
	case time.Time:
		result, err = cast.ToTimeE(arg)
	case time.Duration:
		result, err = cast.ToDurationE(arg)
	default:
		return nil, fmt.Errorf("cannot coerce %T to %T", arg, target)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot coerce %v (%T) to %T: %w", arg, arg, target, err)
	}
	return result, nil
}

// isNil treats typed nil pointers held in an interface as nil. Nil slices and maps are
// empty collections, not absent values.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// collectionSize returns the element count of slices, arrays and maps.
func collectionSize(v any) (int, bool) {
	if _, ok := v.([]byte); ok {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// IsNil reports whether a property value is absent.
func IsNil(v any) bool {
	return isNil(v)
}

// IsCollection reports whether a property value is evaluated by size.
func IsCollection(v any) bool {
	_, ok := collectionSize(v)
	return ok
}
