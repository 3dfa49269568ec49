package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	imglib "github.com/disintegration/imaging"
	"github.com/ironsheep/lanefinder/internal/camera"
	"github.com/ironsheep/lanefinder/internal/config"
	"github.com/ironsheep/lanefinder/internal/diagnostics"
	"github.com/ironsheep/lanefinder/internal/imaging"
	"github.com/ironsheep/lanefinder/internal/logging"
	"github.com/ironsheep/lanefinder/internal/pipeline"
)

var (
	inPath      = flag.String("in", "", "Frame directory or glob pattern (required)")
	outDir      = flag.String("out", "lanefinder-out", "Output directory for annotated frames and results.json")
	sequence    = flag.Bool("sequence", false, "Treat the frames as one video in name order and track across them")
	workers     = flag.Int("workers", 0, "Parallel workers for independent stills (0 = GOMAXPROCS)")
	plots       = flag.Bool("plot", false, "Write diagnostic plots to <out>/plots")
	configPath  = flag.String("config", "", "Pipeline configuration JSON (default: ~/.config/lanefinder/config.json if present)")
	calibPath   = flag.String("calibration", "", "Camera calibration JSON")
	nominalCam  = flag.Bool("nominal-camera", false, "Without -calibration, assume a distortion-free camera sized to the first frame")
	writeConfig = flag.String("write-config", "", "Write the effective configuration to this file and exit")
)

// frameSummary is one entry of results.json.
type frameSummary struct {
	File string `json:"file"`
	*pipeline.FrameResult
	RadiusM float64 `json:"radius_m"`
	Error   string  `json:"error,omitempty"`
}

func main() {
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if os.Getenv("LANEFINDER_LOG_LEVEL") == "debug" {
		logging.SetDebug(true)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *writeConfig != "" {
		if err := cfg.SaveToFile(*writeConfig); err != nil {
			log.Fatalf("Config error: %v", err)
		}
		return
	}

	if *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	files, err := imaging.ListFrames(*inPath)
	if err != nil {
		log.Fatalf("Input error: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("Input error: no frames match %s", *inPath)
	}

	cache := imaging.NewFrameCache()
	calib, err := loadCalibration(cache, files[0])
	if err != nil {
		log.Fatalf("Calibration error: %v", err)
	}
	pipe, err := pipeline.New(cfg, calib)
	if err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Output error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summaries []frameSummary
	if *sequence {
		summaries, err = runSequence(ctx, pipe, cache, files)
	} else {
		summaries, err = runStills(ctx, pipe, cache, files)
	}
	if werr := writeSummaries(filepath.Join(*outDir, "results.json"), summaries); werr != nil {
		log.Printf("Failed to write results: %v", werr)
	}
	if err != nil {
		log.Fatalf("Run stopped: %v", err)
	}

	found := 0
	for _, s := range summaries {
		if s.FrameResult != nil && s.LaneFound {
			found++
		}
	}
	log.Printf("Processed %d frames, lane found in %d, output in %s", len(summaries), found, *outDir)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if _, err := os.Stat(path); err != nil {
			return config.Default(), nil
		}
	}
	return config.LoadFromFile(path)
}

func loadCalibration(cache *imaging.FrameCache, firstFrame string) (*camera.Calibration, error) {
	if *calibPath != "" {
		return camera.LoadCalibrationFile(*calibPath)
	}
	if !*nominalCam {
		return nil, fmt.Errorf("%w: pass -calibration or -nominal-camera", camera.ErrCalibrationUnavailable)
	}
	info, err := imaging.LoadFrameInfo(cache, firstFrame)
	if err != nil {
		return nil, err
	}
	log.Printf("Using a nominal %dx%d camera without distortion correction", info.Width, info.Height)
	return camera.Nominal(info.Width, info.Height), nil
}

func runSequence(ctx context.Context, pipe *pipeline.Pipeline, cache *imaging.FrameCache, files []string) ([]frameSummary, error) {
	seq := pipe.NewSequence()
	series := diagnostics.NewSeriesPlotter()
	logging.Debugf("sequence %s: %d frames", seq.ID, len(files))

	summaries := make([]frameSummary, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summaries, err
		}
		img, err := cache.Load(f)
		cache.Evict(f)
		if err != nil {
			summaries = append(summaries, frameSummary{File: f, Error: err.Error()})
			continue
		}
		res, err := seq.Process(img)
		summaries = append(summaries, summarize(f, res, err))
		if err != nil {
			log.Printf("%s: %v", filepath.Base(f), err)
			continue
		}
		series.Add(res)
		if err := writeOutputs(f, res, false); err != nil {
			return summaries, err
		}
	}

	if *plots {
		if _, err := series.Save(filepath.Join(*outDir, "plots")); err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

func runStills(ctx context.Context, pipe *pipeline.Pipeline, cache *imaging.FrameCache, files []string) ([]frameSummary, error) {
	frames := make([]image.Image, len(files))
	loadErrs := make([]error, len(files))
	for i, f := range files {
		frames[i], loadErrs[i] = cache.Load(f)
	}

	results, runErr := pipe.ProcessStills(ctx, frames, *workers)

	summaries := make([]frameSummary, 0, len(files))
	for i, r := range results {
		err := r.Err
		if loadErrs[i] != nil {
			err = loadErrs[i]
		}
		summaries = append(summaries, summarize(files[i], r.Result, err))
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("%s: %v", filepath.Base(files[i]), err)
			}
			continue
		}
		if err := writeOutputs(files[i], r.Result, *plots); err != nil {
			return summaries, err
		}
	}
	return summaries, runErr
}

func summarize(file string, res *pipeline.FrameResult, err error) frameSummary {
	s := frameSummary{File: file, FrameResult: res}
	if res != nil {
		s.RadiusM = res.RadiusM()
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// writeOutputs saves the overlay and, for stills, the lane fit plot.
func writeOutputs(file string, res *pipeline.FrameResult, plot bool) error {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if res.Overlay != nil {
		if err := imglib.Save(res.Overlay, filepath.Join(*outDir, base+".png")); err != nil {
			return fmt.Errorf("failed to save overlay: %w", err)
		}
	}
	if plot && res.Stages != nil && res.Tracked {
		dir := filepath.Join(*outDir, "plots")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create plot directory: %w", err)
		}
		if err := diagnostics.PlotLaneFit(res.Stages.BirdsEye, res.Lanes(), filepath.Join(dir, base+"_fit.png")); err != nil {
			return err
		}
		if err := diagnostics.PlotHistogram(res.Stages.BirdsEye, filepath.Join(dir, base+"_hist.png")); err != nil {
			return err
		}
	}
	return nil
}

func writeSummaries(path string, summaries []frameSummary) error {
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
