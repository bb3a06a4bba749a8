package types

import "testing"

func TestSubCheckedUnderflow(t *testing.T) {
	_, ok := SubChecked(NewU256(5), NewU256(10))
	if ok {
		t.Fatal("expected underflow to be reported")
	}
}

func TestSubCheckedExact(t *testing.T) {
	diff, ok := SubChecked(NewU256(10), NewU256(10))
	if !ok {
		t.Fatal("expected exact subtraction to succeed")
	}
	if !diff.IsZero() {
		t.Fatalf("expected zero, got %s", diff)
	}
}

func TestAddChecked(t *testing.T) {
	sum, overflow := AddChecked(NewU256(3), NewU256(4))
	if overflow {
		t.Fatal("unexpected overflow")
	}
	if sum.Cmp(NewU256(7)) != 0 {
		t.Fatalf("got %s, want 7", sum)
	}
}
