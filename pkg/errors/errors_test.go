package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidBlocksize, "blocksize %d", 0)
	if err.Code != ErrCodeInvalidBlocksize {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeInvalidBlocksize)
	}
	if err.Error() != "INVALID_BLOCKSIZE: blocksize 0" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(ErrCodeStoreWrite, cause, "save chunk %s", "0.0")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if err.Error() != "STORE_WRITE: save chunk 0.0: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeTaskFailed, "block failed")
	wrapped := fmt.Errorf("outer: %w", err)

	if !Is(wrapped, ErrCodeTaskFailed) {
		t.Error("Is should find the code through wrapping")
	}
	if Is(wrapped, ErrCodeStoreRead) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeTaskFailed) {
		t.Error("Is should not match a plain error")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeStoreCorrupt, "bad blob")); got != ErrCodeStoreCorrupt {
		t.Errorf("GetCode = %s, want %s", got, ErrCodeStoreCorrupt)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestIsConfiguration(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{ErrCodeInvalidTransform, true},
		{ErrCodeSpacingMismatch, true},
		{ErrCodeShapeMismatch, true},
		{ErrCodeInvalidBlocksize, true},
		{ErrCodeInvalidOverlap, true},
		{ErrCodeTaskFailed, false},
		{ErrCodeStoreRead, false},
		{ErrCodeInternal, false},
	}

	for _, tt := range tests {
		if got := IsConfiguration(New(tt.code, "x")); got != tt.want {
			t.Errorf("IsConfiguration(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
