package output

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
)

// GIFRecorder collects frames for an animated GIF
type GIFRecorder struct {
	Delay  int // Delay between frames in 100ths of a second
	frames []*image.Paletted
}

// NewGIFRecorder creates an empty recorder
func NewGIFRecorder(delay int) *GIFRecorder {
	return &GIFRecorder{Delay: delay}
}

// AddFrame quantizes img to the Plan 9 palette and appends it
func (gr *GIFRecorder) AddFrame(img image.Image) {
	bounds := img.Bounds()
	paletted := image.NewPaletted(bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, bounds, img, bounds.Min)
	gr.frames = append(gr.frames, paletted)
}

// Len returns the number of recorded frames
func (gr *GIFRecorder) Len() int {
	return len(gr.frames)
}

// Save writes the recorded frames to path as a looping GIF
func (gr *GIFRecorder) Save(path string) error {
	if len(gr.frames) == 0 {
		return errors.New("no frames to save")
	}
	if err := ensureDir(path); err != nil {
		return err
	}

	delays := make([]int, len(gr.frames))
	for i := range delays {
		delays[i] = gr.Delay
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer file.Close()

	if err := gif.EncodeAll(file, &gif.GIF{Image: gr.frames, Delay: delays}); err != nil {
		return fmt.Errorf("error encoding GIF: %w", err)
	}
	return file.Close()
}

// SaveGIF writes frames to path as a looping GIF
func SaveGIF(path string, frames []image.Image, delay int) error {
	gr := NewGIFRecorder(delay)
	for _, f := range frames {
		gr.AddFrame(f)
	}
	return gr.Save(path)
}
