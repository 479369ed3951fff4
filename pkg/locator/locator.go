// Package locator extracts a record array from a nested response or bag
// by following a dotted path such as "data.items".
package locator

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/Sternrassler/pagination-go/pkg/errs"
)

// Spec is a dotted path, given either literally or by a function
// evaluated on every resolution.
type Spec struct {
	path string
	fn   func() string
}

// Path returns a Spec for a literal dotted path.
func Path(path string) Spec {
	return Spec{path: path}
}

// Func returns a Spec whose path is produced by fn.
func Func(fn func() string) Spec {
	return Spec{fn: fn}
}

// IsZero reports whether the Spec was never set.
func (s Spec) IsZero() bool {
	return s.path == "" && s.fn == nil
}

// String returns the path. Function specs are evaluated each call.
func (s Spec) String() string {
	if s.fn != nil {
		return s.fn()
	}
	return s.path
}

// Resolve walks container along spec and returns the slice found there.
func Resolve(container any, spec Spec) ([]any, error) {
	if spec.IsZero() {
		return nil, errs.Locator(`"locator" is incorrect. Expect string or function type`)
	}
	path := spec.String()

	cur := container
	for _, step := range strings.Split(path, ".") {
		next, ok := child(cur, step)
		if !ok {
			return nil, errs.Locator("%s is undefined", path)
		}
		cur = next
	}
	if cur == nil {
		return nil, errs.Locator("%s is undefined", path)
	}

	records, ok := AsSlice(cur)
	if !ok {
		return nil, errs.Locator("%s should be an Array", path)
	}
	return records, nil
}

func child(cur any, step string) (any, bool) {
	switch v := cur.(type) {
	case map[string]any:
		next, ok := v[step]
		return next, ok && next != nil
	case []any:
		idx, err := strconv.Atoi(step)
		if err != nil || idx < 0 || idx >= len(v) {
			return nil, false
		}
		return v[idx], v[idx] != nil
	}

	rv := reflect.ValueOf(cur)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		val := rv.MapIndex(reflect.ValueOf(step).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		next := val.Interface()
		return next, next != nil
	}
	return nil, false
}

// AsSlice converts any Go slice or array to []any.
func AsSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return []any{}, true
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
