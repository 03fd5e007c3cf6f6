package gpu

import (
	"fmt"
	"math"
	"time"

	"github.com/openfluke/webgpu/wgpu"
)

// DeviceBuffer is an opaque handle to a block of device memory with a fixed
// element type and count. The handle is valid from allocation until Release;
// it is never reallocated in place.
type DeviceBuffer struct {
	buf      *wgpu.Buffer
	elem     ElemType
	count    int
	mode     AccessMode
	released bool
}

// AllocBuffer allocates a storage buffer of count elements on the device.
func AllocBuffer(elem ElemType, count int, mode AccessMode) (*DeviceBuffer, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: buffer of %d elements", ErrAllocation, count)
	}
	if uint64(count) > math.MaxUint64/elemSize {
		return nil, fmt.Errorf("%w: %d elements overflows the byte size", ErrAllocation, count)
	}
	c, err := GetContext()
	if err != nil {
		return nil, err
	}

	sizeBytes := uint64(count) * elemSize
	limits := c.Adapter.GetLimits()
	if sizeBytes > limits.Limits.MaxBufferSize ||
		sizeBytes > limits.Limits.MaxStorageBufferBindingSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds device limit", ErrAllocation, sizeBytes)
	}

	buf, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "shuttle_storage",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	return &DeviceBuffer{buf: buf, elem: elem, count: count, mode: mode}, nil
}

// Count returns the fixed element count.
func (b *DeviceBuffer) Count() int { return b.count }

// Elem returns the element type tag.
func (b *DeviceBuffer) Elem() ElemType { return b.elem }

// Mode returns the declared access mode.
func (b *DeviceBuffer) Mode() AccessMode { return b.mode }

// ByteSize returns the buffer size in bytes.
func (b *DeviceBuffer) ByteSize() uint64 { return uint64(b.count) * elemSize }

// Release frees the device memory. Release is idempotent; every other
// operation on a released buffer fails with ErrUseAfterRelease.
func (b *DeviceBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	if b.buf != nil {
		b.buf.Destroy()
		b.buf = nil
	}
}

func (b *DeviceBuffer) live(op string) error {
	if b.released {
		return fmt.Errorf("%w: %s on released buffer", ErrUseAfterRelease, op)
	}
	return nil
}

// CopyFromHost writes src into device memory and blocks until the write is
// queued. len(src) must equal the buffer's byte size.
func (b *DeviceBuffer) CopyFromHost(src []byte) error {
	if err := b.live("CopyFromHost"); err != nil {
		return err
	}
	if uint64(len(src)) != b.ByteSize() {
		return fmt.Errorf("%w: host %d bytes, buffer %d bytes",
			ErrSizeMismatch, len(src), b.ByteSize())
	}
	c, err := GetContext()
	if err != nil {
		return err
	}
	c.Queue.WriteBuffer(b.buf, 0, src)
	return nil
}

// CopyToHost reads the whole buffer into dst, blocking until the device-side
// copy completes. len(dst) must equal the buffer's byte size.
//
// The read goes through a transient MapRead staging buffer; storage buffers
// are not host-mappable.
func (b *DeviceBuffer) CopyToHost(dst []byte) error {
	if err := b.live("CopyToHost"); err != nil {
		return err
	}
	if uint64(len(dst)) != b.ByteSize() {
		return fmt.Errorf("%w: host %d bytes, buffer %d bytes",
			ErrSizeMismatch, len(dst), b.ByteSize())
	}
	c, err := GetContext()
	if err != nil {
		return err
	}

	sizeBytes := b.ByteSize()
	staging, err := c.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "shuttle_read_staging",
		Size:  sizeBytes,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%w: staging: %v", ErrAllocation, err)
	}
	defer staging.Destroy()

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %v", err)
	}
	encoder.CopyBufferToBuffer(b.buf, 0, staging, 0, sizeBytes)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command: %v", err)
	}
	c.Queue.Submit(cmd)

	done := make(chan struct{})
	var mapErr error
	err = staging.MapAsync(wgpu.MapModeRead, 0, sizeBytes, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			mapErr = fmt.Errorf("map failed: %v", status)
		}
		close(done)
	})
	if err != nil {
		return fmt.Errorf("MapAsync failed: %v", err)
	}

	// Block until the device finishes. Deliberately no timeout: a hung
	// device is an external failure mode, not one this layer recovers from.
	for {
		c.Device.Poll(false, nil)
		select {
		case <-done:
			if mapErr != nil {
				return mapErr
			}
			data := staging.GetMappedRange(0, uint(sizeBytes))
			if data == nil {
				staging.Unmap()
				return fmt.Errorf("failed to get mapped range")
			}
			copy(dst, data)
			staging.Unmap()
			return nil
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
