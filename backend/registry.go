package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Device name constants.
const (
	// DeviceHeadless is the name of the CPU-only validation device.
	DeviceHeadless = "headless"
	// DeviceWGPU is the name of the GPU device (gogpu/wgpu).
	DeviceWGPU = "wgpu"
)

// DeviceFactory creates a new device instance.
type DeviceFactory func() Device

// registry holds registered devices.
var (
	registryMu sync.RWMutex
	devices    = make(map[string]DeviceFactory)
	// Priority order for device selection (first available wins).
	devicePriority = []string{DeviceWGPU, DeviceHeadless}
)

// Register registers a device factory with the given name.
// This is typically called from init() functions in device packages,
// following the database/sql driver pattern:
//
//	func init() {
//	    backend.Register(backend.DeviceHeadless, func() backend.Device {
//	        return New()
//	    })
//	}
//
// Register panics if factory is nil or the name is already taken, so
// duplicate registrations are caught during program initialization rather
// than silently overwriting devices.
func Register(name string, factory DeviceFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("backend: Register factory is nil")
	}
	if _, dup := devices[name]; dup {
		panic("backend: Register called twice for " + name)
	}
	devices[name] = factory
}

// Unregister removes a device from the registry.
// This is primarily useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(devices, name)
}

// Available returns a sorted list of registered device names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(devices))
	for name := range devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a device with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := devices[name]
	return ok
}

// New creates a device instance by name.
// Returns an error if the device is not registered; the error message hints
// at the usual cause, a forgotten blank import of the device package.
func New(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := devices[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("backend: unknown device %q (forgotten import?)", name)
	}
	return factory(), nil
}

// MustDevice creates a device instance by name, panicking on error.
// Useful when device availability is guaranteed.
func MustDevice(name string) Device {
	d, err := New(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Default returns the best available device based on priority.
// Priority order: wgpu > headless. Returns nil if nothing is registered.
func Default() Device {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range devicePriority {
		if factory, ok := devices[name]; ok {
			if d := factory(); d != nil {
				return d
			}
		}
	}

	// Fallback: return first available
	for _, factory := range devices {
		if d := factory(); d != nil {
			return d
		}
	}

	return nil
}
