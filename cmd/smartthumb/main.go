// Command smartthumb crops an image to a target size, keeping the most
// visually interesting content in frame.
//
//	smartthumb --width 300 --height 200 [flags] INPUT OUTPUT
//
// INPUT may be a file path or an http(s) URL. The exit code is zero on
// success, non-zero on any failure, with the error on standard error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/menta2k/smartthumb"
	"github.com/menta2k/smartthumb/internal/config"
	"github.com/menta2k/smartthumb/internal/utils"
	"github.com/menta2k/smartthumb/pkg/face"
	"github.com/menta2k/smartthumb/pkg/facedet"
	"github.com/menta2k/smartthumb/pkg/ollama"
	"github.com/menta2k/smartthumb/pkg/processing"
)

func main() {
	var (
		width      int
		height     int
		useFaceDet bool
		cascade    string
		subjectURL string
		model      string
		debugFile  string
		dumpScores bool
		configFile string
		ext        string
		quality    int
		lossless   bool
		maxDim     int
		minScale   float64
		step       int
		verbose    bool
	)

	flag.IntVar(&width, "width", 100, "crop width")
	flag.IntVar(&height, "height", 100, "crop height")
	flag.BoolVar(&useFaceDet, "facedet", false, "boost detected faces (requires -cascade)")
	flag.StringVar(&cascade, "cascade", "facefinder", "pigo cascade file for -facedet")
	flag.StringVar(&subjectURL, "subject-url", "", "Ollama server URL for vision-model subject boosts")
	flag.StringVar(&model, "model", "openbmb/minicpm-v4.5", "vision model name for -subject-url")
	flag.StringVar(&debugFile, "debug-file", "", "write an analysis overlay image to this path")
	flag.BoolVar(&dumpScores, "scores", false, "include every candidate's score in the JSON dump")
	flag.StringVar(&configFile, "config", "", "configuration file (yaml/json/toml)")
	flag.StringVar(&ext, "ext", "", "output format: jpg|png|webp (default: from OUTPUT extension)")
	flag.IntVar(&quality, "quality", 90, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP lossless mode")
	flag.IntVar(&maxDim, "max-dim", 0, "override working image dimension cap")
	flag.Float64Var(&minScale, "min-scale", 0, "override minimum candidate scale")
	flag.IntVar(&step, "step", 0, "override candidate search step in pixels")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] INPUT OUTPUT\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	input, output := flag.Arg(0), flag.Arg(1)

	logger, err := utils.NewLogger(verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(input, output, width, height, options{
		useFaceDet: useFaceDet,
		cascade:    cascade,
		subjectURL: subjectURL,
		model:      model,
		debugFile:  debugFile,
		dumpScores: dumpScores,
		configFile: configFile,
		ext:        ext,
		quality:    quality,
		lossless:   lossless,
		maxDim:     maxDim,
		minScale:   minScale,
		step:       step,
	}, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	useFaceDet bool
	cascade    string
	subjectURL string
	model      string
	debugFile  string
	dumpScores bool
	configFile string
	ext        string
	quality    int
	lossless   bool
	maxDim     int
	minScale   float64
	step       int
}

func run(input, output string, width, height int, opts options, logger *zap.Logger) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.maxDim > 0 {
		cfg.MaxDimension = opts.maxDim
	}
	if opts.minScale > 0 {
		cfg.MinScale = opts.minScale
	}
	if opts.step > 0 {
		cfg.Step = opts.step
	}
	cfg.IncludeCandidates = opts.dumpScores

	analyzer, err := smartthumb.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	analyzer.SetLogger(logger)

	if detector, err := buildDetector(opts); err != nil {
		return err
	} else if detector != nil {
		analyzer.SetFaceDetector(detector)
	}

	img, err := processing.LoadImage(input)
	if err != nil {
		return fmt.Errorf("loading %s: %w", input, err)
	}
	logger.Info("image loaded",
		zap.String("input", input),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	result, err := analyzer.FindBestCrop(context.Background(), img, width, height)
	if err != nil {
		return err
	}
	logger.Info("crop selected",
		zap.Int("x", result.Rect.Min.X),
		zap.Int("y", result.Rect.Min.Y),
		zap.Int("width", result.Rect.Dx()),
		zap.Int("height", result.Rect.Dy()),
		zap.Float64("score", result.Score.Total))

	if opts.debugFile != "" {
		overlay := processing.RenderOverlay(result.Debug.Working, result.Debug.Importance, result.Debug.WorkingRect)
		if err := utils.EnsureParentDir(opts.debugFile); err != nil {
			return err
		}
		if err := processing.SaveImage(overlay, opts.debugFile, utils.FormatFromPath(opts.debugFile), 92, false); err != nil {
			return fmt.Errorf("writing debug overlay: %w", err)
		}
	}
	if opts.debugFile != "" || opts.dumpScores {
		if err := dumpResult(result); err != nil {
			return err
		}
	}

	thumb := processing.Thumbnail(img, result.Rect, width, height)
	format := opts.ext
	if format == "" {
		format = utils.FormatFromPath(output)
	}
	if err := utils.EnsureParentDir(output); err != nil {
		return err
	}
	if err := processing.SaveImage(thumb, output, format, opts.quality, opts.lossless); err != nil {
		return fmt.Errorf("saving %s: %w", output, err)
	}
	logger.Info("thumbnail written", zap.String("output", output), zap.String("format", format))
	return nil
}

func buildDetector(opts options) (face.Detector, error) {
	switch {
	case opts.useFaceDet:
		return facedet.New(opts.cascade, facedet.DefaultOptions())
	case opts.subjectURL != "":
		return ollama.New(opts.subjectURL, opts.model)
	default:
		return nil, nil
	}
}

type rectJSON struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// dumpResult prints the machine-readable analysis summary to stdout.
func dumpResult(result *smartthumb.CropResult) error {
	payload := struct {
		Crop       rectJSON    `json:"crop"`
		Score      interface{} `json:"score"`
		Candidates interface{} `json:"candidates,omitempty"`
	}{
		Crop: rectJSON{
			X:      result.Rect.Min.X,
			Y:      result.Rect.Min.Y,
			Width:  result.Rect.Dx(),
			Height: result.Rect.Dy(),
		},
		Score: result.Score,
	}
	if len(result.Candidates) > 0 {
		payload.Candidates = result.Candidates
	}
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(payload)
}
