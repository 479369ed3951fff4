package locator

import (
	"errors"
	"testing"

	"github.com/Sternrassler/pagination-go/pkg/errs"
)

func TestResolve(t *testing.T) {
	bag := map[string]any{
		"data": []any{1, 2, 3},
		"result": map[string]any{
			"items": []any{"a", "b"},
			"count": 2,
		},
		"pages": []any{
			map[string]any{"rows": []any{"x"}},
		},
		"typed": map[string][]string{"names": {"n1", "n2"}},
		"empty": nil,
	}

	tests := []struct {
		name    string
		spec    Spec
		wantLen int
		wantErr string
	}{
		{name: "top level", spec: Path("data"), wantLen: 3},
		{name: "nested", spec: Path("result.items"), wantLen: 2},
		{name: "array index", spec: Path("pages.0.rows"), wantLen: 1},
		{name: "typed map and slice", spec: Path("typed.names"), wantLen: 2},
		{name: "func spec", spec: Func(func() string { return "result.items" }), wantLen: 2},
		{name: "missing key", spec: Path("nope"), wantErr: "pagination: nope is undefined"},
		{name: "missing intermediate", spec: Path("nope.items"), wantErr: "pagination: nope.items is undefined"},
		{name: "scalar intermediate", spec: Path("result.count.x"), wantErr: "pagination: result.count.x is undefined"},
		{name: "nil value", spec: Path("empty"), wantErr: "pagination: empty is undefined"},
		{name: "not an array", spec: Path("result.count"), wantErr: "pagination: result.count should be an Array"},
		{name: "zero spec", spec: Spec{}, wantErr: `pagination: "locator" is incorrect. Expect string or function type`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(bag, tt.spec)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
				}
				if !errors.Is(err, errs.ErrLocator) {
					t.Errorf("error should be a locator error: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestResolve_FuncEvaluatedEachTime(t *testing.T) {
	calls := 0
	spec := Func(func() string {
		calls++
		return "data"
	})
	bag := map[string]any{"data": []any{}}

	for i := 0; i < 3; i++ {
		if _, err := Resolve(bag, spec); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if calls != 3 {
		t.Errorf("locator func called %d times, want 3", calls)
	}
}

func TestAsSlice(t *testing.T) {
	type item struct{ ID int }

	if got, ok := AsSlice([]item{{1}, {2}}); !ok || len(got) != 2 {
		t.Errorf("AsSlice(typed slice) = %v, %v", got, ok)
	}
	if got, ok := AsSlice([2]int{1, 2}); !ok || len(got) != 2 {
		t.Errorf("AsSlice(array) = %v, %v", got, ok)
	}
	if got, ok := AsSlice([]string(nil)); !ok || len(got) != 0 {
		t.Errorf("AsSlice(nil slice) = %v, %v", got, ok)
	}
	if _, ok := AsSlice("abc"); ok {
		t.Error("AsSlice(string) should fail")
	}
}
