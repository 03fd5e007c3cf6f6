package gpu

import (
	"fmt"
	"os"

	"github.com/gogpu/naga"
	"github.com/openfluke/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// Kernel is a compiled compute entry point plus the source metadata needed
// to validate invocations: declared binding count and workgroup size.
// One Kernel produces any number of Invocations.
type Kernel struct {
	pipeline *wgpu.ComputePipeline
	entry    string
	label    string
	meta     *kernelMeta
}

// CompileFile reads WGSL source from path and compiles entry into a kernel.
// Build failures return a *CompileError carrying the compiler diagnostics.
func CompileFile(path, entry string) (*Kernel, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kernel source: %w", err)
	}
	return CompileSource(string(src), entry, path)
}

// CompileSource compiles in-memory WGSL. label names the source in errors
// and device-side debug labels.
func CompileSource(src, entry, label string) (*Kernel, error) {
	c, err := GetContext()
	if err != nil {
		return nil, err
	}

	meta, err := scanKernel(src, entry)
	if err != nil {
		return nil, &CompileError{Path: label, Entry: entry, Log: err.Error()}
	}

	// Run the source through naga first: it produces a real diagnostic log,
	// where a failed CreateShaderModule surfaces asynchronously and vaguely.
	if _, err := naga.Compile(src); err != nil {
		return nil, &CompileError{Path: label, Entry: entry, Log: err.Error()}
	}

	module, err := c.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if err != nil {
		return nil, &CompileError{Path: label, Entry: entry, Log: err.Error()}
	}

	pipeline, err := c.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   label,
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: entry},
	})
	if err != nil {
		return nil, &CompileError{Path: label, Entry: entry, Log: err.Error()}
	}

	logrus.WithFields(logrus.Fields{
		"kernel":    label,
		"entry":     entry,
		"args":      meta.argCount,
		"workgroup": meta.workgroup,
	}).Debug("kernel compiled")

	return &Kernel{pipeline: pipeline, entry: entry, label: label, meta: meta}, nil
}

// ArgCount returns the number of positional arguments the kernel declares.
func (k *Kernel) ArgCount() int { return k.meta.argCount }

// WorkgroupSize returns the kernel's declared workgroup size per dimension.
func (k *Kernel) WorkgroupSize() (x, y, z int) {
	return k.meta.workgroup[0], k.meta.workgroup[1], k.meta.workgroup[2]
}

// Invoke starts a fresh invocation with no arguments bound.
func (k *Kernel) Invoke() *Invocation {
	return &Invocation{kernel: k}
}
