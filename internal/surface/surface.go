// Package surface owns the render surfaces the runtime draws decoded frames
// onto. Surfaces are allocated once with fixed settings and keep their
// identity for their whole lifetime; only the Active/Standby role of the slot
// they are bound to ever changes.
package surface

import "fmt"

// Format is the pixel layout of a surface.
type Format int

const (
	FormatRGBA Format = iota
	FormatRGB
)

// BytesPerPixel returns the storage size of one pixel.
func (f Format) BytesPerPixel() int {
	if f == FormatRGB {
		return 3
	}
	return 4
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatRGB:
		return "rgb"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format name from configuration.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "rgba":
		return FormatRGBA, nil
	case "rgb":
		return FormatRGB, nil
	default:
		return FormatRGBA, fmt.Errorf("unknown surface format: %q", s)
	}
}

// Settings describes the fixed allocation parameters of a surface.
type Settings struct {
	Width  int
	Height int
	Format Format
}

// Surface is an owned pixel buffer with a stable identity.
type Surface struct {
	id       uint64
	settings Settings
	Pix      []byte
}

// ID returns the allocation identity of the surface. Two surfaces compare
// equal only if they are the same allocation.
func (s *Surface) ID() uint64 { return s.id }

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.settings.Width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.settings.Height }

// Format returns the pixel format.
func (s *Surface) Format() Format { return s.settings.Format }

// Fill overwrites every byte of the pixel buffer.
func (s *Surface) Fill(b byte) {
	for i := range s.Pix {
		s.Pix[i] = b
	}
}

// Snapshot returns a copy of the current pixel contents.
func (s *Surface) Snapshot() []byte {
	out := make([]byte, len(s.Pix))
	copy(out, s.Pix)
	return out
}

// Allocator creates surfaces with a common set of default settings.
type Allocator struct {
	defaults Settings
	nextID   uint64
}

// NewAllocator creates an allocator with the given default settings.
func NewAllocator(defaults Settings) *Allocator {
	if defaults.Width <= 0 {
		defaults.Width = 1920
	}
	if defaults.Height <= 0 {
		defaults.Height = 1080
	}
	return &Allocator{defaults: defaults}
}

// Defaults returns the allocator's default settings.
func (a *Allocator) Defaults() Settings { return a.defaults }

// Allocate creates a surface with the allocator's default settings.
func (a *Allocator) Allocate() *Surface {
	return a.AllocateWith(a.defaults)
}

// AllocateWith creates a surface with explicit settings.
func (a *Allocator) AllocateWith(settings Settings) *Surface {
	a.nextID++
	return &Surface{
		id:       a.nextID,
		settings: settings,
		Pix:      make([]byte, settings.Width*settings.Height*settings.Format.BytesPerPixel()),
	}
}
