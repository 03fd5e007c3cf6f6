// Package detector probes the adapter shuttle will run kernels on and
// summarizes its compute limits, plus the host CPU features that matter
// when deciding whether a problem is worth shipping to the device at all.
package detector

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sys/cpu"

	"github.com/openfluke/shuttle/gpu"
)

// Report is a portable summary of the selected adapter and host.
type Report struct {
	WhenISO     string          `json:"when_iso"`
	Backend     string          `json:"backend"`
	AdapterType string          `json:"adapter_type"`
	VendorID    string          `json:"vendor_id_hex"`
	DeviceID    string          `json:"device_id_hex"`
	Name        string          `json:"name"`
	Driver      string          `json:"driver"`
	Limits      Limits          `json:"limits"`
	Recommended Recommendations `json:"recommended"`
	Host        Host            `json:"host"`
}

// Limits is the subset of adapter limits that bounds kernel launches.
type Limits struct {
	MaxComputeInvocationsPerWorkgroup uint32 `json:"max_compute_invocations_per_workgroup"`
	MaxComputeWorkgroupSizeX          uint32 `json:"max_compute_workgroup_size_x"`
	MaxComputeWorkgroupSizeY          uint32 `json:"max_compute_workgroup_size_y"`
	MaxComputeWorkgroupSizeZ          uint32 `json:"max_compute_workgroup_size_z"`
	MaxComputeWorkgroupsPerDimension  uint32 `json:"max_compute_workgroups_per_dimension"`
	MaxStorageBufferBindingSize       uint64 `json:"max_storage_buffer_binding_size"`
	MaxBufferSize                     uint64 `json:"max_buffer_size"`
}

// Recommendations carries a conservative 1-D workgroup size that should run
// anywhere on this adapter. Pair it with gpu.RoundUp for the global size.
type Recommendations struct {
	WorkgroupX uint32 `json:"workgroup_x"`
}

// Host describes the CPU side, for sizing the "is the device worth it" call.
type Host struct {
	OS       string   `json:"os"`
	Arch     string   `json:"arch"`
	NumCPU   int      `json:"num_cpu"`
	Features []string `json:"features,omitempty"`
}

// DetectJSON runs a probe and returns the indented JSON report.
func DetectJSON() (string, error) {
	rep, err := Detect()
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Detect probes the singleton context's adapter and synthesizes a report.
// It shares the context with kernel launches rather than requesting a
// second device.
func Detect() (*Report, error) {
	c, err := gpu.GetContext()
	if err != nil {
		return nil, err
	}

	info := c.Adapter.GetInfo()
	limits := c.Adapter.GetLimits()

	return &Report{
		WhenISO:     time.Now().UTC().Format(time.RFC3339),
		Backend:     info.BackendType.String(),
		AdapterType: info.AdapterType.String(),
		VendorID:    fmt.Sprintf("0x%04x", info.VendorId),
		DeviceID:    fmt.Sprintf("0x%04x", info.DeviceId),
		Name:        strings.TrimSpace(info.Name),
		Driver:      strings.TrimSpace(info.DriverDescription),
		Limits: Limits{
			MaxComputeInvocationsPerWorkgroup: limits.Limits.MaxComputeInvocationsPerWorkgroup,
			MaxComputeWorkgroupSizeX:          limits.Limits.MaxComputeWorkgroupSizeX,
			MaxComputeWorkgroupSizeY:          limits.Limits.MaxComputeWorkgroupSizeY,
			MaxComputeWorkgroupSizeZ:          limits.Limits.MaxComputeWorkgroupSizeZ,
			MaxComputeWorkgroupsPerDimension:  limits.Limits.MaxComputeWorkgroupsPerDimension,
			MaxStorageBufferBindingSize:       limits.Limits.MaxStorageBufferBindingSize,
			MaxBufferSize:                     limits.Limits.MaxBufferSize,
		},
		Recommended: Recommendations{
			WorkgroupX: chooseWorkgroup(limits.Limits.MaxComputeWorkgroupSizeX,
				limits.Limits.MaxComputeInvocationsPerWorkgroup),
		},
		Host: hostInfo(),
	}, nil
}

func chooseWorkgroup(maxX, maxTotal uint32) uint32 {
	for _, c := range []uint32{256, 128, 64, 32, 16, 8, 4, 1} {
		if c <= maxX && c <= maxTotal {
			return c
		}
	}
	return 1
}

func hostInfo() Host {
	h := Host{
		OS:     runtime.GOOS,
		Arch:   runtime.GOARCH,
		NumCPU: runtime.NumCPU(),
	}
	switch runtime.GOARCH {
	case "amd64":
		for _, f := range []struct {
			has  bool
			name string
		}{
			{cpu.X86.HasSSE42, "sse4.2"},
			{cpu.X86.HasAVX, "avx"},
			{cpu.X86.HasAVX2, "avx2"},
			{cpu.X86.HasFMA, "fma"},
			{cpu.X86.HasAVX512F, "avx512f"},
		} {
			if f.has {
				h.Features = append(h.Features, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			h.Features = append(h.Features, "asimd")
		}
		if cpu.ARM64.HasFP {
			h.Features = append(h.Features, "fp")
		}
	}
	return h
}
