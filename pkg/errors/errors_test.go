package errors

import "testing"

func TestNew_NoRequestID(t *testing.T) {
	err := New(ErrNotFound, "missing")
	want := "NotFound: missing"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestForRequest_IncludesRequestID(t *testing.T) {
	err := ForRequest(ErrNotFound, 42, "missing")
	want := "NotFound: missing (request 42)"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestNewf_Formats(t *testing.T) {
	err := Newf(ErrTypeMismatch, "expected %s, got %s", "A", "B")
	want := "TypeMismatch: expected A, got B"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	err := New(ErrInvalidArgument, "bad")
	if !Is(err, ErrInvalidArgument) {
		t.Fatal("expected Is to match")
	}
	if Is(err, ErrNotFound) {
		t.Fatal("expected Is to not match a different kind")
	}
	if Is(nil, ErrInvalidArgument) {
		t.Fatal("expected Is(nil, ...) to be false")
	}
}

func TestPredicateHelpers(t *testing.T) {
	cases := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"NotFound", New(ErrNotFound, "x"), IsNotFound},
		{"TypeMismatch", New(ErrTypeMismatch, "x"), IsTypeMismatch},
		{"NotInitialized", New(ErrNotInitialized, "x"), IsNotInitialized},
		{"InvalidArgument", New(ErrInvalidArgument, "x"), IsInvalidArgument},
	}
	for _, c := range cases {
		if !c.pred(c.err) {
			t.Errorf("%s: predicate returned false for matching error", c.name)
		}
	}
}

func TestErrorKind_StringUnknown(t *testing.T) {
	k := ErrorKind(999)
	if k.String() != "Unknown(999)" {
		t.Fatalf("got %q", k.String())
	}
}

func TestIs_ProviderErrorInInterface(t *testing.T) {
	// A *ProviderError held in a plain error interface still matches.
	plain := New(ErrNotFound, "x")
	var generic error = plain
	if !IsNotFound(generic) {
		t.Fatal("expected concrete *ProviderError stored in an error interface to still match")
	}
}
