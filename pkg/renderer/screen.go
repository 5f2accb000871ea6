package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/integrator"
)

// Tone mapping modes
const (
	ToneMapMax      = "max"
	ToneMapMaxMean  = "max-mean"
	ToneMapExposure = "exposure"
)

// DefaultExposure is the fixed divisor used by the exposure tone map
const DefaultExposure = 1e7

// ToneMapConfig selects how unbounded colors are scaled into [0, 1]
type ToneMapConfig struct {
	Mode     string
	Exposure float64 // Divisor for ToneMapExposure
}

// DefaultToneMapConfig returns the exposure tone map
func DefaultToneMapConfig() ToneMapConfig {
	return ToneMapConfig{
		Mode:     ToneMapExposure,
		Exposure: DefaultExposure,
	}
}

// DefaultToneMapFor returns the tone map used when none is configured.
// Light tracing splats photon-weighted energy that is orders of magnitude
// below the exposure divisor, so it scales by the screen maximum instead.
func DefaultToneMapFor(mode string) ToneMapConfig {
	if mode == integrator.ModeLight {
		return ToneMapConfig{Mode: ToneMapMax}
	}
	return DefaultToneMapConfig()
}

// resolve fills an unset mode with the default for the integrator mode,
// keeping an explicit exposure
func (tc ToneMapConfig) resolve(mode string) ToneMapConfig {
	if tc.Mode != "" {
		return tc
	}
	resolved := DefaultToneMapFor(mode)
	if resolved.Mode == ToneMapExposure && tc.Exposure > 0 {
		resolved.Exposure = tc.Exposure
	}
	return resolved
}

// Validate checks the mode name and exposure
func (tc ToneMapConfig) Validate() error {
	switch tc.Mode {
	case ToneMapMax, ToneMapMaxMean:
		return nil
	case ToneMapExposure:
		if tc.Exposure <= 0 {
			return fmt.Errorf("exposure must be positive, got %g", tc.Exposure)
		}
		return nil
	default:
		return fmt.Errorf("unknown tone map %q", tc.Mode)
	}
}

// Screen accumulates unbounded colors for width*height pixels, stored
// row-major at x + width*y
type Screen struct {
	Width, Height int
	Pixels        []core.Vec3
}

// NewScreen creates a black screen
func NewScreen(width, height int) *Screen {
	return &Screen{
		Width:  width,
		Height: height,
		Pixels: make([]core.Vec3, width*height),
	}
}

// Index returns the buffer index of pixel (x, y)
func (s *Screen) Index(x, y int) int {
	return x + s.Width*y
}

// InBounds reports whether (x, y) is a pixel of the screen
func (s *Screen) InBounds(x, y int) bool {
	return x >= 0 && x < s.Width && y >= 0 && y < s.Height
}

// Get returns the color of pixel (x, y)
func (s *Screen) Get(x, y int) core.Vec3 {
	return s.Pixels[s.Index(x, y)]
}

// Set overwrites pixel (x, y)
func (s *Screen) Set(x, y int, c core.Vec3) {
	s.Pixels[s.Index(x, y)] = c
}

// Add accumulates c into pixel (x, y)
func (s *Screen) Add(x, y int, c core.Vec3) {
	i := s.Index(x, y)
	s.Pixels[i] = s.Pixels[i].Add(c)
}

// ProportionOfSurface returns how much of a unit square centered at p
// overlaps the cell of pixel (x, y), which spans [x, x+1) x [y, y+1)
func ProportionOfSurface(p core.Vec2, x, y int) float64 {
	return overlap(p.X, x) * overlap(p.Y, y)
}

func overlap(center float64, cell int) float64 {
	lo := math.Max(center-0.5, float64(cell))
	hi := math.Min(center+0.5, float64(cell+1))
	return math.Max(0, hi-lo)
}

// AddPoint splats c at the continuous pixel coordinate p, spreading it over
// the (at most four) cells its unit footprint overlaps. Shares falling
// outside the screen are dropped.
func (s *Screen) AddPoint(p core.Vec2, c core.Vec3) {
	x0 := int(math.Floor(p.X - 0.5))
	y0 := int(math.Floor(p.Y - 0.5))
	for y := y0; y <= y0+1; y++ {
		for x := x0; x <= x0+1; x++ {
			if !s.InBounds(x, y) {
				continue
			}
			if w := ProportionOfSurface(p, x, y); w > 0 {
				s.Add(x, y, c.Multiply(w))
			}
		}
	}
}

// Merge adds every pixel of other into s. Both screens must have the same size.
func (s *Screen) Merge(other *Screen) {
	for i, c := range other.Pixels {
		s.Pixels[i] = s.Pixels[i].Add(c)
	}
}

// Max returns the largest channel value on the screen
func (s *Screen) Max() float64 {
	m := 0.0
	for _, c := range s.Pixels {
		m = math.Max(m, c.MaxComponent())
	}
	return m
}

// Mean returns the mean over all channels of all pixels
func (s *Screen) Mean() float64 {
	if len(s.Pixels) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range s.Pixels {
		sum += c.Sum()
	}
	return sum / float64(3*len(s.Pixels))
}

// Scale divides every pixel by scale and clamps to [0, 1]. A non-positive
// scale leaves the colors undivided.
func (s *Screen) Scale(scale float64) {
	for i, c := range s.Pixels {
		if scale > 0 {
			c = c.Divide(scale)
		}
		s.Pixels[i] = c.Clamp(0, 1)
	}
}

// Normalize scales the screen so its brightest channel becomes 1
func (s *Screen) Normalize() {
	s.Scale(s.Max())
}

// ToneMap maps the screen into [0, 1] in place
func (s *Screen) ToneMap(config ToneMapConfig) {
	switch config.Mode {
	case ToneMapMaxMean:
		s.Scale((s.Max() + s.Mean()) / 2)
	case ToneMapExposure:
		s.Scale(config.Exposure)
	default:
		s.Normalize()
	}
}

// ToImage converts a tone-mapped screen to 8-bit RGBA. The pinhole inverts
// the picture horizontally, so columns are mirrored.
func (s *Screen) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			c := s.Get(x, y).Clamp(0, 1)
			img.SetRGBA(s.Width-1-x, y, color.RGBA{
				R: uint8(c.X * 255),
				G: uint8(c.Y * 255),
				B: uint8(c.Z * 255),
				A: 255,
			})
		}
	}
	return img
}

// Clone returns a copy of the screen
func (s *Screen) Clone() *Screen {
	clone := NewScreen(s.Width, s.Height)
	copy(clone.Pixels, s.Pixels)
	return clone
}
