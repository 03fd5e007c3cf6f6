package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// direction flags which host/device transfers a slot needs around a launch.
type direction uint8

const (
	dirNone   direction = 0
	dirBefore direction = 1 << 0 // host to device before launch
	dirAfter  direction = 1 << 1 // device to host after launch
	dirBoth             = dirBefore | dirAfter
)

// slotKind tags what an argument slot is bound to.
type slotKind int

const (
	kindScalar slotKind = iota
	kindSlice
	kindLocal
	kindMirror
	kindArray
)

func (k slotKind) String() string {
	switch k {
	case kindScalar:
		return "scalar"
	case kindSlice:
		return "slice"
	case kindLocal:
		return "local"
	case kindMirror:
		return "mirror"
	case kindArray:
		return "array"
	default:
		return "unknown"
	}
}

// slot is one positional kernel argument, fully described: position in the
// kernel's declared order, what backs it, and which transfers it needs.
// Slots referencing persistent buffers (mirror, array) carry the buffer
// directly; slice, scalar and local slots get a transient buffer per launch.
type slot struct {
	pos   int
	kind  slotKind
	elem  ElemType
	count int
	dir   direction

	buf    *DeviceBuffer // persistent buffer (mirror/array), nil otherwise
	host   []byte        // caller slice bytes, aliased (slice slots)
	scalar []byte        // immediate value bytes (scalar slots)

	before func() error // persistent-buffer upload hook
	after  func() error // persistent-buffer download hook
}

// Arg is anything that can occupy one positional kernel argument slot:
// immediate scalars, raw slices, HostMirror, ManagedArray. The binding
// method (Input/Output/InOut) supplies the requested direction; the Arg
// decides what that means for its ownership model.
type Arg interface {
	bind(pos int, dir direction) (slot, error)
}

// argFunc adapts a closure to Arg.
type argFunc func(pos int, dir direction) (slot, error)

func (f argFunc) bind(pos int, dir direction) (slot, error) { return f(pos, dir) }

// Scalar binds an immediate value by copy. Scalars carry data into the
// kernel only, so they are valid with Input alone.
func Scalar[T Numeric](v T) Arg {
	return argFunc(func(pos int, dir direction) (slot, error) {
		if dir != dirBefore {
			return slot{}, fmt.Errorf("scalar argument at position %d must be bound with Input", pos)
		}
		val := []T{v}
		b := make([]byte, elemSize)
		copy(b, wgpu.ToBytes(val))
		return slot{
			pos:    pos,
			kind:   kindScalar,
			elem:   elemTypeOf[T](),
			count:  1,
			dir:    dirNone, // value travels in a transient uniform, no readback
			scalar: b,
		}, nil
	})
}

// Slice binds a caller-owned slice through a transient device buffer sized
// to len(s). The buffer lives for exactly one launch.
func Slice[T Numeric](s []T) Arg {
	return SliceN(len(s), s)
}

// SliceN is Slice with an explicit element count. A count that disagrees
// with len(s) is a caller logic error and fails the launch with
// ErrSizeMismatch before any device work is issued.
func SliceN[T Numeric](count int, s []T) Arg {
	return argFunc(func(pos int, dir direction) (slot, error) {
		if count != len(s) {
			return slot{}, fmt.Errorf("%w: position %d declared %d elements, slice has %d",
				ErrSizeMismatch, pos, count, len(s))
		}
		if count == 0 {
			return slot{}, fmt.Errorf("%w: position %d bound to empty slice",
				ErrSizeMismatch, pos)
		}
		return slot{
			pos:   pos,
			kind:  kindSlice,
			elem:  elemTypeOf[T](),
			count: count,
			dir:   dir,
			host:  wgpu.ToBytes(s),
		}, nil
	})
}

// localArg reserves device-local scratch for count elements. No host data,
// no transfers; the backing transient buffer exists only so the position has
// something bound for the launch.
func localArg(count int) Arg {
	return argFunc(func(pos int, _ direction) (slot, error) {
		if count <= 0 {
			return slot{}, fmt.Errorf("%w: local scratch of %d elements at position %d",
				ErrSizeMismatch, count, pos)
		}
		return slot{
			pos:   pos,
			kind:  kindLocal,
			elem:  ElemFloat32,
			count: count,
			dir:   dirNone,
		}, nil
	})
}
