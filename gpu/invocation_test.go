package gpu

import (
	"errors"
	"strings"
	"testing"
)

// testKernel builds a Kernel with metadata only. Validation runs entirely
// before any device work, so these tests need no GPU.
func testKernel(spaces []string, wg [3]int) *Kernel {
	return &Kernel{
		label: "test",
		entry: "main",
		meta: &kernelMeta{
			argCount:  len(spaces),
			spaces:    spaces,
			workgroup: wg,
		},
	}
}

func TestRunIncompleteBinding(t *testing.T) {
	k := testKernel([]string{"storage", "storage"}, [3]int{64, 1, 1})

	err := k.Invoke().
		Input(Slice([]float32{1, 2, 3})).
		Run1D(64, 64)
	if !errors.Is(err, ErrIncompleteBinding) {
		t.Errorf("one of two bound: got %v, want ErrIncompleteBinding", err)
	}

	err = k.Invoke().
		Input(Slice([]float32{1})).
		Input(Slice([]float32{1})).
		Output(Slice([]float32{1})).
		Run1D(64, 64)
	if !errors.Is(err, ErrIncompleteBinding) {
		t.Errorf("three of two bound: got %v, want ErrIncompleteBinding", err)
	}
}

func TestRunSliceCountMismatch(t *testing.T) {
	k := testKernel([]string{"storage"}, [3]int{64, 1, 1})

	err := k.Invoke().
		Input(SliceN(8, []float32{1, 2, 3})).
		Run1D(64, 64)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("got %v, want ErrSizeMismatch", err)
	}
}

func TestRunScalarRequiresInput(t *testing.T) {
	k := testKernel([]string{"uniform"}, [3]int{64, 1, 1})

	err := k.Invoke().
		Output(Scalar(int32(7))).
		Run1D(64, 64)
	if err == nil || !strings.Contains(err.Error(), "Input") {
		t.Errorf("scalar bound as output: got %v", err)
	}
}

func TestRunAddressSpaceMismatch(t *testing.T) {
	k := testKernel([]string{"uniform"}, [3]int{64, 1, 1})
	err := k.Invoke().
		Input(Slice([]float32{1, 2})).
		Run1D(64, 64)
	if err == nil || !strings.Contains(err.Error(), "storage") {
		t.Errorf("slice into uniform binding: got %v", err)
	}

	k = testKernel([]string{"storage"}, [3]int{64, 1, 1})
	err = k.Invoke().
		Input(Scalar(float32(1))).
		Run1D(64, 64)
	if err == nil || !strings.Contains(err.Error(), "uniform") {
		t.Errorf("scalar into storage binding: got %v", err)
	}
}

func TestRunWorkSizeValidation(t *testing.T) {
	k := testKernel([]string{"storage"}, [3]int{64, 1, 1})
	arg := func() Arg { return Slice(make([]float32, 4)) }

	cases := []struct {
		name string
		run  func() error
	}{
		{"zero global", func() error { return k.Invoke().Input(arg()).Run1D(0, 64) }},
		{"not a multiple", func() error { return k.Invoke().Input(arg()).Run1D(65, 64) }},
		{"wrong local", func() error { return k.Invoke().Input(arg()).Run1D(128, 32) }},
		{"bad dim", func() error { return k.Invoke().Input(arg()).Run(4, []int{64, 1, 1, 1}, []int{64, 1, 1, 1}) }},
		{"extent count", func() error { return k.Invoke().Input(arg()).Run(2, []int{64}, []int{64}) }},
	}
	for _, c := range cases {
		if err := c.run(); !errors.Is(err, ErrInvalidWorkSize) {
			t.Errorf("%s: got %v, want ErrInvalidWorkSize", c.name, err)
		}
	}
}

func TestRunLocalMustMatchDeclaredWorkgroup(t *testing.T) {
	// Kernel declares a 2-D workgroup; a 1-D launch cannot satisfy it.
	k := testKernel([]string{"storage"}, [3]int{8, 8, 1})
	err := k.Invoke().
		Input(Slice(make([]float32, 64))).
		Run1D(64, 8)
	if !errors.Is(err, ErrInvalidWorkSize) {
		t.Errorf("got %v, want ErrInvalidWorkSize", err)
	}

	err = k.Invoke().
		Input(Slice(make([]float32, 64))).
		Run(2, []int{0, 0}, []int{8, 8})
	if !errors.Is(err, ErrInvalidWorkSize) {
		t.Errorf("zero extents: got %v, want ErrInvalidWorkSize", err)
	}
}

func TestBindErrorsStickAndSurfaceFirst(t *testing.T) {
	k := testKernel([]string{"storage", "storage"}, [3]int{64, 1, 1})

	inv := k.Invoke().
		Input(SliceN(5, []float32{1})). // recorded error
		Input(Slice([]float32{1}))      // appended after error: ignored
	if inv.Err() == nil {
		t.Fatal("expected deferred binding error")
	}
	err := inv.Run1D(64, 64)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("got %v, want the first deferred ErrSizeMismatch", err)
	}
}

func TestLocalScratchCountValidation(t *testing.T) {
	k := testKernel([]string{"storage"}, [3]int{64, 1, 1})
	err := k.Invoke().Local(0).Run1D(64, 64)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Local(0): got %v, want ErrSizeMismatch", err)
	}
}

func TestSlotPositionsFollowCallOrder(t *testing.T) {
	k := testKernel([]string{"storage", "storage", "storage", "uniform"}, [3]int{64, 1, 1})
	inv := k.Invoke().
		Input(Slice([]float32{1})).
		Input(Slice([]float32{2})).
		Output(Slice([]float32{0})).
		Input(Scalar(int32(1)))
	if inv.Err() != nil {
		t.Fatalf("unexpected bind error: %v", inv.Err())
	}
	for i, s := range inv.slots {
		if s.pos != i {
			t.Errorf("slot %d has position %d", i, s.pos)
		}
	}
	if inv.slots[0].dir != dirBefore || inv.slots[2].dir != dirAfter {
		t.Error("directions do not follow binding methods")
	}
	if inv.slots[3].kind != kindScalar || inv.slots[3].dir != dirNone {
		t.Error("scalar slot should carry no transfer direction")
	}
}

func TestCompileErrorUnwraps(t *testing.T) {
	var ce *CompileError
	err := error(&CompileError{Path: "k.wgsl", Entry: "main", Log: "boom"})
	if !errors.Is(err, ErrCompile) {
		t.Error("CompileError does not unwrap to ErrCompile")
	}
	if !errors.As(err, &ce) {
		t.Error("errors.As failed for *CompileError")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("diagnostic log missing from message: %q", err.Error())
	}
}
