package output

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
)

// SavePNG writes img to path, creating parent directories as needed
func SavePNG(path string, img image.Image) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Annotate returns a copy of img with text drawn in its bottom left corner
func Annotate(img image.Image, text string) image.Image {
	dc := gg.NewContextForImage(img)
	h := float64(dc.Height())

	// Dark outline so the label reads on white backgrounds
	dc.SetRGB(0, 0, 0)
	for _, d := range [][2]float64{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		dc.DrawStringAnchored(text, 4+d[0], h-4+d[1], 0, 0)
	}
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, 4, h-4, 0, 0)

	return dc.Image()
}

// FramePath returns the file name of animation frame i inside dir
func FramePath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("%03d.png", i))
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating output directory %s: %w", dir, err)
	}
	return nil
}
