// Package gpu compiles WGSL compute kernels and launches them with
// positional argument binding over WebGPU.
//
// The package removes the device/queue/pipeline boilerplate from a kernel
// call. Arguments are bound in kernel declaration order and carry their own
// synchronization policy:
//
//   - Scalar: immediate value, copied at bind time.
//   - Slice/SliceN: caller-owned slice, staged through a transient device
//     buffer that lives for exactly one launch.
//   - HostMirror: persistent device buffer over a caller slice, synchronized
//     only by explicit CopyToDevice/CopyToHost calls.
//   - ManagedArray: helper-owned host+device pair, synchronized
//     automatically on every launch it is bound to.
//   - Local: device-local scratch with no host side.
//
// A minimal round trip:
//
//	k, err := gpu.CompileFile("kernels/vecadd.wgsl", "main")
//	if err != nil { ... }
//	out := make([]float32, n)
//	err = k.Invoke().
//		Input(gpu.Slice(in)).
//		Output(gpu.Slice(out)).
//		Input(gpu.Scalar(int32(n))).
//		Run1D(gpu.RoundUp(64, n), 64)
//
// Everything is synchronous: uploads, the launch and downloads block the
// calling goroutine until the device completes. The WebGPU context is a
// process-wide singleton; see Init and Available.
package gpu
