package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindUnknown, "unknown"},
		{KindInvalidSolverState, "invalid_solver_state"},
		{KindCachePrecondition, "cache_precondition"},
		{KindSerialization, "serialization"},
		{Kind(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestErrorError(t *testing.T) {
	t.Run("with op and underlying error", func(t *testing.T) {
		err := New(KindSerialization, "decode matrix", errors.New("short buffer"))
		expected := "[serialization] decode matrix: short buffer"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("without underlying error", func(t *testing.T) {
		err := New(KindInvalidSolverState, "no lp", nil)
		expected := "[invalid_solver_state] no lp"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("without op", func(t *testing.T) {
		err := New(KindCachePrecondition, "", errors.New("changed"))
		expected := "[cache_precondition] changed"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})
}

func TestErrorIs(t *testing.T) {
	err := New(KindInvalidSolverState, "extract", errors.New("no lp"))

	if !errors.Is(err, ErrInvalidSolverState) {
		t.Error("errors with same kind should match with errors.Is")
	}
	if errors.Is(err, ErrSerialization) {
		t.Error("errors with different kinds should not match")
	}
	if err.Is(errors.New("plain error")) {
		t.Error("Error.Is should return false for unclassified errors")
	}
}

func TestErrorUnwrap(t *testing.T) {
	underlying := errors.New("base error")
	err := New(KindSerialization, "decode", underlying)

	if !errors.Is(err, underlying) {
		t.Error("errors.Is should reach the underlying error")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(KindSerialization, "op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	inner := New(KindInvalidSolverState, "lp", nil)
	wrapped := Wrap(KindSerialization, "outer", fmt.Errorf("context: %w", inner))
	if KindOf(wrapped) != KindInvalidSolverState {
		t.Errorf("KindOf(wrapped) = %v, want original kind", KindOf(wrapped))
	}

	plain := Wrap(KindSerialization, "decode", errors.New("bad"))
	if KindOf(plain) != KindSerialization {
		t.Errorf("KindOf(plain) = %v, want serialization", KindOf(plain))
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want unknown", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v, want unknown", got)
	}
}
