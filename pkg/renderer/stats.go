package renderer

import (
	"time"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/integrator"
)

// RenderStats contains statistics about a finished render
type RenderStats struct {
	Mode    string        // Integrator that produced the image
	Width   int           // Screen width in pixels
	Height  int           // Screen height in pixels
	Rows    int           // Work rows completed
	Workers int           // Workers that shared the rows
	Elapsed time.Duration // Wall time of the render

	PrimaryRays     int64
	ShadowRays      int64
	IndirectRays    int64
	Photons         int64
	Splats          int64
	MaxDepthReached int // Deepest recursion frame that shaded a hit
}

// TotalRays returns every ray cast during the render
func (rs RenderStats) TotalRays() int64 {
	return rs.PrimaryRays + rs.ShadowRays + rs.IndirectRays + rs.Photons
}

// RaysPerSecond returns the ray throughput, or 0 for an instant render
func (rs RenderStats) RaysPerSecond() float64 {
	if rs.Elapsed <= 0 {
		return 0
	}
	return float64(rs.TotalRays()) / rs.Elapsed.Seconds()
}

func (rs *RenderStats) addCounters(c integrator.CounterSnapshot) {
	rs.PrimaryRays = c.PrimaryRays
	rs.ShadowRays = c.ShadowRays
	rs.IndirectRays = c.IndirectRays
	rs.Photons = c.Photons
	rs.Splats = c.Splats
	rs.MaxDepthReached = c.MaxDepthReached
}

// AverageLuminance returns the mean Rec. 709 luminance of the screen
func (s *Screen) AverageLuminance() float64 {
	if len(s.Pixels) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range s.Pixels {
		sum += luminance(c)
	}
	return sum / float64(len(s.Pixels))
}

func luminance(c core.Vec3) float64 {
	return 0.2126*c.X + 0.7152*c.Y + 0.0722*c.Z
}
