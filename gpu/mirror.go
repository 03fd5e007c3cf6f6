package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
)

// HostMirror pairs a caller-owned slice with a device buffer of the same
// element count. Nothing is copied implicitly in either direction: the
// caller decides when the device copy is current via CopyToDevice and
// CopyToHost. Binding a mirror to a kernel performs no transfer at all.
//
// The mirror never owns the host slice; Release frees only the device side.
type HostMirror[T Numeric] struct {
	host []T
	buf  *DeviceBuffer
}

// Wrap creates a HostMirror over host with a matching read-write device
// buffer. No copy is performed at creation; the device side is undefined
// until the first CopyToDevice.
func Wrap[T Numeric](host []T) (*HostMirror[T], error) {
	if len(host) == 0 {
		return nil, fmt.Errorf("%w: cannot wrap empty slice", ErrSizeMismatch)
	}
	buf, err := AllocBuffer(elemTypeOf[T](), len(host), ReadWrite)
	if err != nil {
		return nil, err
	}
	return &HostMirror[T]{host: host, buf: buf}, nil
}

// CopyToDevice pushes the current host contents to the device buffer.
func (m *HostMirror[T]) CopyToDevice() error {
	return m.buf.CopyFromHost(wgpu.ToBytes(m.host))
}

// CopyToHost pulls the device buffer back into the wrapped host slice.
func (m *HostMirror[T]) CopyToHost() error {
	return m.buf.CopyToHost(wgpu.ToBytes(m.host))
}

// Buffer exposes the backing device buffer.
func (m *HostMirror[T]) Buffer() *DeviceBuffer { return m.buf }

// Len returns the element count.
func (m *HostMirror[T]) Len() int { return len(m.host) }

// Release frees the device buffer. The wrapped host slice is untouched.
// Idempotent.
func (m *HostMirror[T]) Release() { m.buf.Release() }

// bind implements Arg. Mirrors bind their persistent buffer with no
// synchronization in either direction, whatever binding method was used.
func (m *HostMirror[T]) bind(pos int, _ direction) (slot, error) {
	if m.buf.released {
		return slot{}, fmt.Errorf("%w: binding released mirror at position %d",
			ErrUseAfterRelease, pos)
	}
	return slot{
		pos:   pos,
		kind:  kindMirror,
		elem:  m.buf.elem,
		count: m.buf.count,
		dir:   dirNone,
		buf:   m.buf,
	}, nil
}
