package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/df07/go-pinhole-raytracer/pkg/core"
	"github.com/df07/go-pinhole-raytracer/pkg/integrator"
	"github.com/df07/go-pinhole-raytracer/pkg/output"
	"github.com/df07/go-pinhole-raytracer/pkg/renderer"
	"github.com/df07/go-pinhole-raytracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	Scene      string
	ScenesDir  string
	Mode       string
	Width      int
	Height     int
	Depth      int // -1 keeps the scene's depth
	Samples    int // -1 keeps the scene's indirect sample count
	Photons    int
	ToneMap    string
	Exposure   float64
	Workers    int
	Seed       int64
	Output     string
	Frames     int
	LightStart float64
	LightStep  float64
	GIF        bool
	Annotate   bool
	Progress   string
	List       bool
	Help       bool
}

func newFlagSet(opts *options, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&opts.Scene, "scene", "default", "Built-in scene name, or path to a .json scene or .obj/.ply mesh")
	fs.StringVar(&opts.ScenesDir, "scenes", "scenes", "Directory searched by -list")
	fs.StringVar(&opts.Mode, "mode", integrator.ModeCamera, "Integrator: 'camera' (recursive transport) or 'light' (light tracing)")
	fs.IntVar(&opts.Width, "width", 0, "Image width (0 = scene default)")
	fs.IntVar(&opts.Height, "height", 0, "Image height (0 = scene default)")
	fs.IntVar(&opts.Depth, "depth", -1, "Maximum recursion depth (-1 = scene default)")
	fs.IntVar(&opts.Samples, "samples", -1, "Indirect samples per plane (-1 = scene default)")
	fs.IntVar(&opts.Photons, "photons", 0, "Photons per light per row in light mode (0 = scene default)")
	fs.StringVar(&opts.ToneMap, "tonemap", "", "Tone map: 'max', 'max-mean' or 'exposure' (default exposure in camera mode, max in light mode)")
	fs.Float64Var(&opts.Exposure, "exposure", renderer.DefaultExposure, "Divisor of the exposure tone map")
	fs.IntVar(&opts.Workers, "workers", 0, "Number of parallel workers (0 = logical CPU count)")
	fs.Int64Var(&opts.Seed, "seed", 1, "Random seed; row r uses seed+r")
	fs.StringVar(&opts.Output, "output", "output", "Output directory")
	fs.IntVar(&opts.Frames, "frames", 0, "Render an animation of this many frames, moving the first light")
	fs.Float64Var(&opts.LightStart, "light-start", -4, "Initial x offset of the animated light")
	fs.Float64Var(&opts.LightStep, "light-step", 4.0/30, "X offset added to the animated light per frame")
	fs.BoolVar(&opts.GIF, "gif", false, "Also save the animation as a GIF")
	fs.BoolVar(&opts.Annotate, "annotate", false, "Label images with scene, mode and frame")
	fs.StringVar(&opts.Progress, "progress", renderer.ProgressBar, "Progress display: 'bar', 'log' or 'none'")
	fs.BoolVar(&opts.List, "list", false, "List available scenes and exit")
	fs.BoolVar(&opts.Help, "help", false, "Show help information")

	return fs
}

// parseArgs parses command line arguments into options
func parseArgs(args []string, out io.Writer) (*options, error) {
	opts := &options{}
	fs := newFlagSet(opts, out)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		os.Exit(2)
	}

	logger := renderer.NewDefaultLogger()
	if err := run(opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options, logger core.Logger) error {
	if opts.Help {
		printHelp(opts)
		return nil
	}
	if opts.List {
		return listScenes(opts.ScenesDir, logger)
	}

	logHostInfo(logger)

	s, err := createScene(opts, logger)
	if err != nil {
		return err
	}

	config := renderer.Config{
		Mode:       opts.Mode,
		NumWorkers: opts.Workers,
		Seed:       opts.Seed,
		ToneMap:    renderer.ToneMapConfig{Mode: opts.ToneMap, Exposure: opts.Exposure},
		Progress:   renderer.NewProgressReporter(opts.Progress, os.Stderr, logger),
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = defaultWorkers()
	}

	r, err := renderer.NewRenderer(s, config, logger)
	if err != nil {
		return err
	}

	outputDir := filepath.Join(opts.Output, sceneSlug(opts.Scene))
	timestamp := time.Now().Format("20060102_150405")

	if opts.Frames > 0 {
		return renderAnimation(r, opts, filepath.Join(outputDir, "frames_"+timestamp), logger)
	}

	screen, stats := r.Render()
	logStats(logger, stats)

	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.png", timestamp))
	if err := output.SavePNG(filename, finishImage(screen, opts, s.Name, -1)); err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", filename)
	return nil
}

// createScene loads the scene and applies the command line overrides
func createScene(opts *options, logger core.Logger) (*scene.Scene, error) {
	if opts.Scene == "" {
		return nil, fmt.Errorf("no scene given")
	}
	s, err := scene.Create(opts.Scene, logger)
	if err != nil {
		return nil, err
	}

	sampling := scene.MergeSamplingConfig(s.SamplingConfig, scene.SamplingConfig{
		Width:         opts.Width,
		Height:        opts.Height,
		PhotonsPerRow: opts.Photons,
	})
	if opts.Depth >= 0 {
		sampling.MaxDepth = opts.Depth
	}
	if opts.Samples >= 0 {
		sampling.IndirectSamples = opts.Samples
	}
	s.Configure(sampling)

	logger.Printf("Scene %q: %d planes, %d lights\n", s.Name, s.PrimitiveCount(), len(s.Lights))
	return s, nil
}

func renderAnimation(r *renderer.Renderer, opts *options, dir string, logger core.Logger) error {
	animation := renderer.DefaultAnimationConfig()
	animation.Frames = opts.Frames
	animation.Start = core.NewVec3(opts.LightStart, 0, 0)
	animation.Step = core.NewVec3(opts.LightStep, 0, 0)

	var recorder *output.GIFRecorder
	if opts.GIF {
		recorder = output.NewGIFRecorder(4)
	}

	err := r.Animate(animation, func(frame int, screen *renderer.Screen, stats renderer.RenderStats) error {
		logStats(logger, stats)
		img := finishImage(screen, opts, r.Scene().Name, frame)
		if recorder != nil {
			recorder.AddFrame(img)
		}
		return output.SavePNG(output.FramePath(dir, frame), img)
	})
	if err != nil {
		return err
	}
	logger.Printf("%d frames saved in %s\n", opts.Frames, dir)

	if recorder != nil {
		path := filepath.Join(dir, "animation.gif")
		if err := recorder.Save(path); err != nil {
			return err
		}
		logger.Printf("Animation saved as %s\n", path)
	}
	return nil
}

// finishImage converts a tone-mapped screen and labels it when requested.
// frame < 0 marks a still image.
func finishImage(screen *renderer.Screen, opts *options, name string, frame int) image.Image {
	img := screen.ToImage()
	if !opts.Annotate {
		return img
	}
	label := fmt.Sprintf("%s | %s", name, opts.Mode)
	if frame >= 0 {
		label = fmt.Sprintf("%s | frame %03d", label, frame)
	}
	return output.Annotate(img, label)
}

// sceneSlug turns a scene name or path into a directory name
func sceneSlug(id string) string {
	base := strings.TrimSuffix(filepath.Base(id), filepath.Ext(id))
	base = strings.ToLower(strings.ReplaceAll(base, " ", "-"))
	if base == "" || base == "." {
		return "scene"
	}
	return base
}

func logStats(logger core.Logger, stats renderer.RenderStats) {
	logger.Printf("Rendered %dx%d in %s mode with %d workers in %v\n",
		stats.Width, stats.Height, stats.Mode, stats.Workers, stats.Elapsed)
	logger.Printf("Rays: %d primary, %d shadow, %d indirect; photons: %d, splats: %d; deepest frame: %d\n",
		stats.PrimaryRays, stats.ShadowRays, stats.IndirectRays, stats.Photons, stats.Splats, stats.MaxDepthReached)
}

// defaultWorkers returns the logical CPU count, falling back to the Go runtime
func defaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

func logHostInfo(logger core.Logger) {
	model := "unknown CPU"
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		model = strings.TrimSpace(infos[0].ModelName)
	}
	logger.Printf("Host: %s, %d logical cores", model, defaultWorkers())
	if vm, err := mem.VirtualMemory(); err == nil {
		logger.Printf(", %.1f GiB memory (%.0f%% used)", float64(vm.Total)/(1<<30), vm.UsedPercent)
	}
	logger.Printf("\n")
}

func listScenes(dir string, logger core.Logger) error {
	response, err := scene.ListAllScenes(dir)
	if err != nil {
		return err
	}
	for _, group := range response.Groups {
		logger.Printf("%s:\n", group.Name)
		for _, info := range group.Scenes {
			line := fmt.Sprintf("  %-28s %s", info.ID, info.DisplayName)
			if info.Description != "" {
				line += " - " + info.Description
			}
			logger.Printf("%s\n", line)
		}
	}
	return nil
}

func printHelp(opts *options) {
	fmt.Println("Pinhole Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	newFlagSet(&options{}, os.Stdout).PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	for _, info := range scene.BuiltInScenes() {
		fmt.Printf("  %-10s %s\n", info.ID, info.Description)
	}
	fmt.Printf("  or any .json / .obj / .ply file (see -list, searching %s)\n", opts.ScenesDir)
	fmt.Println()
	fmt.Println("Output will be saved to <output>/<scene>/render_<timestamp>.png")
}
