package gpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/openfluke/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// Context holds the single WebGPU context shared by every kernel launch.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	once     sync.Once
}

var ctx Context

// adapterIndex is the explicit adapter selection set by Init. -1 means
// auto-select: prefer a discrete adapter, then the fallback chain.
var adapterIndex = -1

// started flips on the first GetContext, successful or not. Selection
// options arriving after that point can no longer take effect.
var started bool

// Option configures context initialization. Options must be applied via Init
// before the first operation that touches the device.
type Option func()

// WithAdapterIndex pins the context to the n-th adapter reported by the
// native runtime, in enumeration order. The selection only applies before
// the context exists; Init rejects it afterwards.
func WithAdapterIndex(i int) Option {
	return func() { adapterIndex = i }
}

// Init applies options and initializes the context eagerly. Calling Init is
// optional; the first buffer allocation or kernel compile initializes the
// context lazily with auto-selection. Passing options after the context has
// already initialized is an error: the singleton cannot be re-pointed at a
// different adapter.
func Init(opts ...Option) error {
	if len(opts) > 0 && started {
		return fmt.Errorf("%w: Init options must precede the first device use",
			ErrUnavailable)
	}
	for _, opt := range opts {
		opt()
	}
	_, err := GetContext()
	return err
}

// Available reports whether the native WebGPU runtime can produce an adapter.
// It uses a throwaway instance so a failed probe does not poison the
// singleton context.
func Available() bool {
	inst := wgpu.CreateInstance(nil)
	if inst == nil {
		return false
	}
	defer inst.Release()

	adapter, err := inst.RequestAdapter(nil)
	if err != nil || adapter == nil {
		return false
	}
	adapter.Release()
	return true
}

// GetContext returns the singleton GPU context, initializing it if necessary.
func GetContext() (*Context, error) {
	var initErr error
	ctx.once.Do(func() {
		started = true
		ctx.Instance = wgpu.CreateInstance(nil)
		if ctx.Instance == nil {
			initErr = fmt.Errorf("%w: failed to create WebGPU instance", ErrUnavailable)
			return
		}

		adapters := ctx.Instance.EnumerateAdapters(nil)
		for i, a := range adapters {
			info := a.GetInfo()
			logrus.WithFields(logrus.Fields{
				"index":  i,
				"name":   info.Name,
				"vendor": info.VendorName,
			}).Debug("adapter found")
		}

		if adapterIndex >= 0 {
			if adapterIndex >= len(adapters) {
				initErr = fmt.Errorf("%w: adapter index %d out of range (%d adapters)",
					ErrUnavailable, adapterIndex, len(adapters))
				return
			}
			ctx.Adapter = adapters[adapterIndex]
		} else {
			// Prefer a discrete GPU when one is enumerable.
			for _, a := range adapters {
				info := a.GetInfo()
				name := strings.ToLower(info.Name + " " + info.VendorName)
				if strings.Contains(name, "nvidia") || strings.Contains(name, "amd") ||
					strings.Contains(name, "radeon") {
					ctx.Adapter = a
					break
				}
			}
		}

		tryInit := func(opts *wgpu.RequestAdapterOptions) error {
			if ctx.Adapter != nil {
				return nil
			}
			var err error
			ctx.Adapter, err = ctx.Instance.RequestAdapter(opts)
			return err
		}

		if ctx.Adapter == nil {
			initErr = tryInit(&wgpu.RequestAdapterOptions{
				PowerPreference: wgpu.PowerPreferenceHighPerformance,
			})
		}
		if initErr != nil && ctx.Adapter == nil {
			logrus.WithError(initErr).Debug("high performance adapter failed, falling back")
			initErr = tryInit(&wgpu.RequestAdapterOptions{
				PowerPreference: wgpu.PowerPreferenceLowPower,
			})
		}
		if initErr != nil && ctx.Adapter == nil {
			logrus.WithError(initErr).Debug("low power adapter failed, trying default")
			initErr = tryInit(nil)
		}
		if ctx.Adapter == nil {
			initErr = fmt.Errorf("%w: all adapter attempts failed: %v", ErrUnavailable, initErr)
			return
		}
		initErr = nil

		info := ctx.Adapter.GetInfo()
		logrus.WithFields(logrus.Fields{
			"name":   info.Name,
			"vendor": info.VendorName,
		}).Debug("using GPU adapter")

		var err error
		ctx.Device, err = ctx.Adapter.RequestDevice(nil)
		if err != nil {
			initErr = fmt.Errorf("%w: request device: %v", ErrUnavailable, err)
			return
		}
		ctx.Queue = ctx.Device.GetQueue()
	})

	if initErr != nil {
		return nil, initErr
	}
	if ctx.Device == nil || ctx.Queue == nil {
		return nil, fmt.Errorf("%w: WebGPU device or queue not initialized", ErrUnavailable)
	}
	return &ctx, nil
}
