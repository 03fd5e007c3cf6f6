package gpu

import (
	"fmt"

	"github.com/openfluke/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// Invocation accumulates positional kernel arguments and launches the
// kernel. Binding calls are append-only and chainable; positions are
// assigned in call order starting at 0, mirroring the kernel's declared
// binding order. Binding errors are deferred and surfaced by Run before any
// device work.
//
// An invocation may be reused: every Run re-validates, re-syncs and
// recreates its transient buffers.
type Invocation struct {
	kernel *Kernel
	slots  []slot
	err    error
}

// Input binds the next positional argument as kernel input. Scalars,
// slices and managed arrays are uploaded before launch; mirrors are bound
// with no transfer.
func (inv *Invocation) Input(a Arg) *Invocation { return inv.bindArg(a, dirBefore) }

// Output binds the next positional argument as kernel output. Slices and
// managed arrays are downloaded after launch; mirrors are bound with no
// transfer.
func (inv *Invocation) Output(a Arg) *Invocation { return inv.bindArg(a, dirAfter) }

// InOut binds the next positional argument as both input and output.
func (inv *Invocation) InOut(a Arg) *Invocation { return inv.bindArg(a, dirBoth) }

// Local reserves device-local scratch sized for count elements at the next
// position. Scratch has no host-side data and no transfers.
func (inv *Invocation) Local(count int) *Invocation {
	return inv.bindArg(localArg(count), dirNone)
}

func (inv *Invocation) bindArg(a Arg, dir direction) *Invocation {
	if inv.err != nil {
		return inv
	}
	s, err := a.bind(len(inv.slots), dir)
	if err != nil {
		inv.err = err
		return inv
	}
	inv.slots = append(inv.slots, s)
	return inv
}

// boundSlot is a slot resolved against a live device buffer for one launch.
type boundSlot struct {
	slot
	dev       *DeviceBuffer // storage-backed slots
	uni       *wgpu.Buffer  // scalar uniform
	transient bool
}

func (b *boundSlot) entry() wgpu.BindGroupEntry {
	if b.uni != nil {
		return wgpu.BindGroupEntry{
			Binding: uint32(b.pos),
			Buffer:  b.uni,
			Size:    b.uni.GetSize(),
		}
	}
	return wgpu.BindGroupEntry{
		Binding: uint32(b.pos),
		Buffer:  b.dev.buf,
		Size:    b.dev.ByteSize(),
	}
}

// Run validates the bindings, performs pre-launch uploads, dispatches the
// kernel over the given grid and blocks until completion, then performs
// post-launch downloads and frees the launch's transient buffers.
//
// dim is 1, 2 or 3; global and local carry one extent per dimension. local
// must match the kernel's declared workgroup size and divide global evenly
// (see RoundUp).
func (inv *Invocation) Run(dim int, global, local []int) error {
	if inv.err != nil {
		return inv.err
	}
	if err := inv.validate(dim, global, local); err != nil {
		return err
	}

	c, err := GetContext()
	if err != nil {
		return err
	}

	bound := make([]*boundSlot, 0, len(inv.slots))
	defer func() {
		for _, b := range bound {
			if !b.transient {
				continue
			}
			if b.dev != nil {
				b.dev.Release()
			}
			if b.uni != nil {
				b.uni.Destroy()
			}
		}
	}()

	// Resolve every slot to a device buffer and perform the uploads.
	for i := range inv.slots {
		b, err := inv.resolve(c, &inv.slots[i])
		if err != nil {
			return err
		}
		bound = append(bound, b)
	}

	if err := inv.dispatch(c, bound, dim, global, local); err != nil {
		return err
	}

	// Post-launch downloads, in position order.
	for _, b := range bound {
		if b.dir&dirAfter == 0 {
			continue
		}
		switch b.kind {
		case kindSlice:
			if err := b.dev.CopyToHost(b.host); err != nil {
				return err
			}
		case kindArray:
			if err := b.after(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run1D launches over a one-dimensional grid.
func (inv *Invocation) Run1D(global, local int) error {
	return inv.Run(1, []int{global}, []int{local})
}

// Err returns the first deferred binding error, if any. Run reports the
// same error; Err exists for callers that want to fail before building the
// full chain.
func (inv *Invocation) Err() error { return inv.err }

func (inv *Invocation) validate(dim int, global, local []int) error {
	k := inv.kernel
	if len(inv.slots) != k.meta.argCount {
		return fmt.Errorf("%w: kernel %s declares %d arguments, %d bound",
			ErrIncompleteBinding, k.label, k.meta.argCount, len(inv.slots))
	}
	for i, s := range inv.slots {
		want := k.meta.spaces[i]
		if s.kind == kindScalar && want != "uniform" {
			return fmt.Errorf("position %d: kernel declares a %s binding, scalar arguments need var<uniform>", i, want)
		}
		if s.kind != kindScalar && want != "storage" {
			return fmt.Errorf("position %d: kernel declares a %s binding, %s arguments need var<storage>", i, want, s.kind)
		}
	}

	if dim < 1 || dim > 3 {
		return fmt.Errorf("%w: dimension %d", ErrInvalidWorkSize, dim)
	}
	if len(global) != dim || len(local) != dim {
		return fmt.Errorf("%w: %d global and %d local extents for %d dimensions",
			ErrInvalidWorkSize, len(global), len(local), dim)
	}
	for d := 0; d < 3; d++ {
		want := 1
		if d < dim {
			want = local[d]
		}
		if want != k.meta.workgroup[d] {
			return fmt.Errorf("%w: local size %d in dimension %d, kernel declares @workgroup_size %d",
				ErrInvalidWorkSize, want, d, k.meta.workgroup[d])
		}
	}
	for d := 0; d < dim; d++ {
		if global[d] <= 0 || local[d] <= 0 {
			return fmt.Errorf("%w: non-positive extent in dimension %d", ErrInvalidWorkSize, d)
		}
		if global[d]%local[d] != 0 {
			return fmt.Errorf("%w: global %d not a multiple of local %d in dimension %d (see RoundUp)",
				ErrInvalidWorkSize, global[d], local[d], d)
		}
	}
	return nil
}

func (inv *Invocation) resolve(c *Context, s *slot) (*boundSlot, error) {
	b := &boundSlot{slot: *s}
	switch s.kind {
	case kindScalar:
		uni, err := c.Device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Contents: s.scalar,
			Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scalar uniform: %v", ErrAllocation, err)
		}
		b.uni = uni
		b.transient = true

	case kindSlice:
		dev, err := AllocBuffer(s.elem, s.count, modeFor(s.dir))
		if err != nil {
			return nil, err
		}
		b.dev = dev
		b.transient = true
		if s.dir&dirBefore != 0 {
			if err := dev.CopyFromHost(s.host); err != nil {
				dev.Release()
				return nil, err
			}
		}

	case kindLocal:
		// Device-only scratch. Fresh storage buffers are zero-filled, so
		// repeated launches never observe each other's scratch.
		dev, err := AllocBuffer(s.elem, s.count, ReadWrite)
		if err != nil {
			return nil, err
		}
		b.dev = dev
		b.transient = true

	case kindMirror:
		b.dev = s.buf
		if err := b.dev.live("bind"); err != nil {
			return nil, err
		}

	case kindArray:
		b.dev = s.buf
		if err := b.dev.live("bind"); err != nil {
			return nil, err
		}
		if s.dir&dirBefore != 0 {
			if err := s.before(); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

func (inv *Invocation) dispatch(c *Context, bound []*boundSlot, dim int, global, local []int) error {
	entries := make([]wgpu.BindGroupEntry, len(bound))
	for i, b := range bound {
		entries[i] = b.entry()
	}
	bindGroup, err := c.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   inv.kernel.label,
		Layout:  inv.kernel.pipeline.GetBindGroupLayout(0),
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %v", err)
	}
	defer bindGroup.Release()

	groups := [3]uint32{1, 1, 1}
	for d := 0; d < dim; d++ {
		groups[d] = uint32(global[d] / local[d])
	}

	encoder, err := c.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %v", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(inv.kernel.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command: %v", err)
	}
	c.Queue.Submit(cmd)

	logrus.WithFields(logrus.Fields{
		"kernel": inv.kernel.label,
		"groups": groups,
	}).Debug("kernel dispatched")

	// Block until the device drains the queue.
	c.Device.Poll(true, nil)
	return nil
}

// modeFor picks the advisory access mode for a transient buffer.
func modeFor(dir direction) AccessMode {
	switch dir {
	case dirBefore:
		return ReadOnly
	case dirAfter:
		return WriteOnly
	default:
		return ReadWrite
	}
}
