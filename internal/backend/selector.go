package backend

import (
	"fmt"
	"strconv"
	"strings"
)

// Selector picks a device either by platform and device number or by
// device class.
type Selector struct {
	Platform int
	Device   int
	// Class, when set, selects the first device of that class and the
	// numeric fields are ignored.
	Class DeviceClass
}

// String returns the selector in its parseable form.
func (s Selector) String() string {
	if s.Class != "" {
		return string(s.Class)
	}
	return fmt.Sprintf("%d:%d", s.Platform, s.Device)
}

// ParseSelector parses "platform:device" or a case-insensitive class
// name (cpu, gpu, acc, accelerator). An empty string selects 0:0.
// Unrecognized input is a ConfigurationError.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, nil
	}

	switch strings.ToLower(s) {
	case "cpu":
		return Selector{Class: ClassCPU}, nil
	case "gpu":
		return Selector{Class: ClassGPU}, nil
	case "acc", "accelerator":
		return Selector{Class: ClassAccelerator}, nil
	}

	platform, device, ok := strings.Cut(s, ":")
	if !ok {
		return Selector{}, NewConfigurationError("unknown device %q, expected platform:device or cpu|gpu|acc", s)
	}
	p, err := strconv.Atoi(platform)
	if err != nil || p < 0 {
		return Selector{}, NewConfigurationError("invalid platform number in %q", s)
	}
	d, err := strconv.Atoi(device)
	if err != nil || d < 0 {
		return Selector{}, NewConfigurationError("invalid device number in %q", s)
	}
	return Selector{Platform: p, Device: d}, nil
}

// Resolve returns the device matched by the selector.
func (s Selector) Resolve(devices []Device) (Device, error) {
	for _, d := range devices {
		if s.Class != "" {
			if d.Class == s.Class {
				return d, nil
			}
			continue
		}
		if d.Platform == s.Platform && d.ID == s.Device {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: no device matches %s", ErrContext, s)
}
