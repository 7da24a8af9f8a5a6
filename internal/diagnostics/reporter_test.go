package diagnostics

import "testing"

func TestFormatWithoutPosition(t *testing.T) {
	r := NewReporter("closure.mir", "")
	d := Fatal(ErrNameNotBound, "name \"y\" is not bound in any enclosing scope")

	out := r.Format(d)
	if out == "" {
		t.Fatalf("expected non-empty formatted diagnostic")
	}
}

func TestFormatWithPosition(t *testing.T) {
	source := "a = 1.0\nb = a + c\n"
	r := NewReporter("scratch.mir", source)
	d := Fatal(ErrNameNotBound, "name \"c\" is not bound", "did you mean \"a\"?")
	d.Position = Position{Line: 2, Column: 9}

	out := r.Format(d)
	if out == "" {
		t.Fatalf("expected non-empty formatted diagnostic")
	}
}

func TestIsWarning(t *testing.T) {
	if !IsWarning(ErrUnreachableOpcode) {
		t.Fatalf("expected %s to be a warning", ErrUnreachableOpcode)
	}
	if IsWarning(ErrNameNotBound) {
		t.Fatalf("expected %s to not be a warning", ErrNameNotBound)
	}
}
