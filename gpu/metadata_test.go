package gpu

import "testing"

const vecaddSrc = `
@group(0) @binding(0) var<storage, read> a : array<f32>;
@group(0) @binding(1) var<storage, read> b : array<f32>;
@group(0) @binding(2) var<storage, read_write> out : array<f32>;
@group(0) @binding(3) var<uniform> n : i32;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid : vec3<u32>) {
	let i = gid.x;
	if (i < u32(n)) {
		out[i] = a[i] + b[i];
	}
}
`

func TestScanKernelBindings(t *testing.T) {
	meta, err := scanKernel(vecaddSrc, "main")
	if err != nil {
		t.Fatalf("scanKernel failed: %v", err)
	}
	if meta.argCount != 4 {
		t.Errorf("argCount = %d, want 4", meta.argCount)
	}
	wantSpaces := []string{"storage", "storage", "storage", "uniform"}
	for i, want := range wantSpaces {
		if meta.spaces[i] != want {
			t.Errorf("spaces[%d] = %q, want %q", i, meta.spaces[i], want)
		}
	}
	if meta.workgroup != [3]int{64, 1, 1} {
		t.Errorf("workgroup = %v, want [64 1 1]", meta.workgroup)
	}
}

func TestScanKernelWorkgroup2D(t *testing.T) {
	src := `
@group(0) @binding(0) var<storage, read_write> m : array<f32>;
@compute @workgroup_size(8, 8)
fn tile(@builtin(global_invocation_id) gid : vec3<u32>) { m[0] = 0.0; }
`
	meta, err := scanKernel(src, "tile")
	if err != nil {
		t.Fatalf("scanKernel failed: %v", err)
	}
	if meta.workgroup != [3]int{8, 8, 1} {
		t.Errorf("workgroup = %v, want [8 8 1]", meta.workgroup)
	}
}

func TestScanKernelMissingEntry(t *testing.T) {
	if _, err := scanKernel(vecaddSrc, "nosuch"); err == nil {
		t.Error("expected error for missing entry point")
	}
}

func TestScanKernelNonContiguous(t *testing.T) {
	src := `
@group(0) @binding(0) var<storage, read> a : array<f32>;
@group(0) @binding(2) var<storage, read_write> out : array<f32>;
@compute @workgroup_size(1)
fn main() { out[0] = a[0]; }
`
	if _, err := scanKernel(src, "main"); err == nil {
		t.Error("expected error for a gap in binding indices")
	}
}

func TestScanKernelIgnoresComments(t *testing.T) {
	src := `
// @group(0) @binding(9) var<storage, read> ghost : array<f32>;
@group(0) @binding(0) var<storage, read_write> buf : array<f32>;
@compute @workgroup_size(1)
fn main() { buf[0] = 1.0; }
`
	meta, err := scanKernel(src, "main")
	if err != nil {
		t.Fatalf("scanKernel failed: %v", err)
	}
	if meta.argCount != 1 {
		t.Errorf("argCount = %d, want 1 (commented binding counted?)", meta.argCount)
	}
}

func TestScanKernelIgnoresBlockComments(t *testing.T) {
	// Block comments are legal WGSL; a binding disabled inside one must
	// not count toward the argument arity.
	src := `
/*
@group(0) @binding(1) var<storage, read> ghost : array<f32>;
*/
@group(0) @binding(0) var<storage, read_write> buf : array<f32>;
/* @workgroup_size(128) is not in effect */
@compute @workgroup_size(1)
fn main() { buf[0] = 1.0; }
`
	meta, err := scanKernel(src, "main")
	if err != nil {
		t.Fatalf("scanKernel failed: %v", err)
	}
	if meta.argCount != 1 {
		t.Errorf("argCount = %d, want 1 (block-commented binding counted?)", meta.argCount)
	}
	if meta.workgroup != [3]int{1, 1, 1} {
		t.Errorf("workgroup = %v, want [1 1 1]", meta.workgroup)
	}
}

func TestScanKernelNoBindings(t *testing.T) {
	src := `
@compute @workgroup_size(1)
fn main() { }
`
	meta, err := scanKernel(src, "main")
	if err != nil {
		t.Fatalf("scanKernel failed: %v", err)
	}
	if meta.argCount != 0 {
		t.Errorf("argCount = %d, want 0", meta.argCount)
	}
}
