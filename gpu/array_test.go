package gpu

import (
	"errors"
	"math"
	"testing"
)

// Creation-time validation happens before any device call, so these run
// everywhere.

func TestWrapRejectsEmptySlice(t *testing.T) {
	if _, err := Wrap([]float32{}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Wrap(empty): got %v, want ErrSizeMismatch", err)
	}
	if _, err := Wrap[int32](nil); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Wrap(nil): got %v, want ErrSizeMismatch", err)
	}
}

func TestNewArrayRejectsBadCount(t *testing.T) {
	if _, err := NewArray[float32](0); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("NewArray(0): got %v, want ErrSizeMismatch", err)
	}
	if _, err := NewArray[int32](-3); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("NewArray(-3): got %v, want ErrSizeMismatch", err)
	}
}

func TestAllocBufferRejectsBadCounts(t *testing.T) {
	// Count validation precedes any device work, so it must hold without
	// a GPU. A count big enough to wrap the uint64 byte size has to fail
	// as an allocation error, not sneak past the limits check.
	for _, count := range []int{0, -1, math.MaxInt} {
		if _, err := AllocBuffer(ElemFloat32, count, ReadWrite); !errors.Is(err, ErrAllocation) {
			t.Errorf("AllocBuffer(count=%d): got %v, want ErrAllocation", count, err)
		}
	}
}

func TestElemTypeTags(t *testing.T) {
	if elemTypeOf[int32]() != ElemInt32 {
		t.Error("int32 tag wrong")
	}
	if elemTypeOf[float32]() != ElemFloat32 {
		t.Error("float32 tag wrong")
	}
	if ElemInt32.String() != "int32" || ElemFloat32.String() != "float32" {
		t.Error("ElemType.String mismatch")
	}
}
