package validation

import "testing"

func TestErrorMessageNamesFields(t *testing.T) {
	err := NewError("title", "must not be empty")
	err.Add("duration_minutes", "must be a positive integer")

	want := "duration_minutes: must be a positive integer; title: must not be empty"
	if got := err.Error(); got != want {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestHasErrors(t *testing.T) {
	empty := &Error{}
	if empty.HasErrors() {
		t.Fatal("empty error should report no issues")
	}

	empty.Add("status", "unknown value")
	if !empty.HasErrors() {
		t.Fatal("error with a field should report issues")
	}

	var nilErr *Error
	if nilErr.HasErrors() {
		t.Fatal("nil error should report no issues")
	}
}

func TestNewErrorf(t *testing.T) {
	err := NewErrorf("target_date", "must be an ISO date string, for example: %q", "2026-01-07")
	if msg := err.FieldErrors["target_date"]; msg != `must be an ISO date string, for example: "2026-01-07"` {
		t.Fatalf("unexpected field message: %q", msg)
	}
}
