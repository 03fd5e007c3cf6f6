package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// ManagedArray owns both a host slice and a device buffer of the same
// element count. Index access touches host storage only; synchronization
// happens when the array is bound to a kernel: bound as input the host side
// is pushed before launch, bound as output the device side is pulled after
// launch, inout does both. The copies are unconditional per launch, which
// trades a transfer for never observing stale data.
type ManagedArray[T Numeric] struct {
	host     []T
	buf      *DeviceBuffer
	dirty    bool
	released bool
}

// NewArray allocates zeroed host storage and a device buffer together.
func NewArray[T Numeric](count int) (*ManagedArray[T], error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: array of %d elements", ErrSizeMismatch, count)
	}
	buf, err := AllocBuffer(elemTypeOf[T](), count, ReadWrite)
	if err != nil {
		return nil, err
	}
	return &ManagedArray[T]{host: make([]T, count), buf: buf}, nil
}

// At reads element i from host storage. Panics on a released array, like an
// out-of-range slice index would.
func (a *ManagedArray[T]) At(i int) T {
	a.mustLive("At")
	return a.host[i]
}

// Set writes element i in host storage. No device traffic occurs; the value
// reaches the device on the next launch the array is bound as input to.
func (a *ManagedArray[T]) Set(i int, v T) {
	a.mustLive("Set")
	a.host[i] = v
	a.dirty = true
}

// Len returns the element count.
func (a *ManagedArray[T]) Len() int { return len(a.host) }

// Host returns the live host storage. Mutating it is equivalent to Set.
func (a *ManagedArray[T]) Host() []T {
	a.mustLive("Host")
	return a.host
}

// Buffer exposes the backing device buffer.
func (a *ManagedArray[T]) Buffer() *DeviceBuffer { return a.buf }

// Release frees host storage and the device buffer. Idempotent; any later
// index access panics with ErrUseAfterRelease in the message and any later
// binding fails with ErrUseAfterRelease.
func (a *ManagedArray[T]) Release() {
	if a.released {
		return
	}
	a.released = true
	a.host = nil
	a.buf.Release()
}

func (a *ManagedArray[T]) mustLive(op string) {
	if a.released {
		panic(fmt.Sprintf("%v: %s on released ManagedArray", ErrUseAfterRelease, op))
	}
}

// push uploads host storage to the device buffer.
func (a *ManagedArray[T]) push() error {
	err := a.buf.CopyFromHost(wgpu.ToBytes(a.host))
	if err == nil {
		a.dirty = false
	}
	return err
}

// pull downloads the device buffer into host storage.
func (a *ManagedArray[T]) pull() error {
	return a.buf.CopyToHost(wgpu.ToBytes(a.host))
}

// bind implements Arg. The direction chosen by the binding method stands:
// input pushes before launch, output pulls after, inout does both.
func (a *ManagedArray[T]) bind(pos int, dir direction) (slot, error) {
	if a.released {
		return slot{}, fmt.Errorf("%w: binding released ManagedArray at position %d",
			ErrUseAfterRelease, pos)
	}
	return slot{
		pos:    pos,
		kind:   kindArray,
		elem:   a.buf.elem,
		count:  a.buf.count,
		dir:    dir,
		buf:    a.buf,
		before: a.push,
		after:  a.pull,
	}, nil
}
