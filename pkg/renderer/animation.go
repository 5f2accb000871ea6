package renderer

import (
	"fmt"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
)

// AnimationConfig moves one light in a straight line across frames. Frame i
// renders with the light offset by Start + i*Step.
type AnimationConfig struct {
	Frames     int
	LightIndex int
	Start      core.Vec3
	Step       core.Vec3
}

// DefaultAnimationConfig sweeps the first light sideways over 120 frames
func DefaultAnimationConfig() AnimationConfig {
	return AnimationConfig{
		Frames:     120,
		LightIndex: 0,
		Start:      core.NewVec3(-4, 0, 0),
		Step:       core.NewVec3(4.0/30, 0, 0),
	}
}

// FrameCallback receives every tone-mapped frame in order. Returning an
// error stops the animation.
type FrameCallback func(frame int, screen *Screen, stats RenderStats) error

// Animate renders config.Frames frames and hands each to callback
func (r *Renderer) Animate(config AnimationConfig, callback FrameCallback) error {
	if config.Frames <= 0 {
		return fmt.Errorf("invalid frame count %d", config.Frames)
	}
	if config.LightIndex < 0 || config.LightIndex >= len(r.scene.Lights) {
		return fmt.Errorf("light %d does not exist (scene has %d lights)", config.LightIndex, len(r.scene.Lights))
	}

	base := r.scene.Lights[config.LightIndex]
	for i := 0; i < config.Frames; i++ {
		offset := config.Start.Add(config.Step.Multiply(float64(i)))
		frame := &Renderer{
			scene:  r.scene.WithLight(config.LightIndex, base.Translate(offset)),
			config: r.config,
			logger: r.logger,
		}

		r.logger.Printf("Frame %d/%d\n", i+1, config.Frames)
		screen, stats := frame.Render()
		if err := callback(i, screen, stats); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}
