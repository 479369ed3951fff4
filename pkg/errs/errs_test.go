package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      Usage("unknown command %q", "jump"),
			expected: `pagination: unknown command "jump"`,
		},
		{
			name:     "wrapped",
			err:      &Error{Kind: KindLocator, Message: "resolve", Err: errors.New("boom")},
			expected: "pagination: resolve: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("init: %w", Validation(`"dataSource" is required`))

	if !errors.Is(err, ErrValidation) {
		t.Error("expected errors.Is(err, ErrValidation)")
	}
	if errors.Is(err, ErrUsage) {
		t.Error("validation error must not match ErrUsage")
	}

	var target *Error
	if !errors.As(err, &target) {
		t.Fatal("errors.As failed")
	}
	if target.Kind != KindValidation {
		t.Errorf("Kind = %s, want %s", target.Kind, KindValidation)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain", errors.New("x"), ""},
		{"state", State("not initialized"), KindState},
		{"wrapped", fmt.Errorf("outer: %w", Locator("data is undefined")), KindLocator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}
