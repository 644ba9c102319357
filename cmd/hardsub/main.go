/*
NAME
  main.go

DESCRIPTION
  main is the hardsub CLI entry point: it parses flags and an optional
  YAML settings file into a config.Settings, opens a decoder and an OCR
  engine, runs the pipeline to completion, and maps the result to an
  exit code (spec.md §6).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the hardsub command-line tool: it extracts hard
// subtitles from a video file into an SRT file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ausocean/hardsub/config"
	"github.com/ausocean/hardsub/decoder"
	"github.com/ausocean/hardsub/decoder/gocvfile"
	"github.com/ausocean/hardsub/internal/logging"
	"github.com/ausocean/hardsub/ocr"
	"github.com/ausocean/hardsub/pipeline"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration, mirrored on cmd/rv/main.go's logPath/logMaxSize/
// logMaxBackup/logMaxAge/logVerbosity constants.
const (
	defaultLogPath      = "hardsub.log"
	logMaxSize          = 100 // MB
	logMaxBackup        = 5
	logMaxAge           = 28 // days
	defaultLogVerbosity = logging.Info
)

// Exit codes, spec.md §6.
const (
	exitSuccess             = 0
	exitOtherFatal          = 1
	exitConfigurationError  = 2
	exitDecoderInitError    = 3
	exitOcrWarmUpError      = 4
)

const pkg = "hardsub: "

// fileSettings is the shape of an optional YAML settings file, layered
// under the CLI flags (flags always win, matching revid's var-overrides-
// config precedent).
type fileSettings struct {
	Input            string  `yaml:"input"`
	Output           string  `yaml:"output"`
	SamplesPerSecond float64 `yaml:"samples_per_second"`
	Target           int     `yaml:"target"`
	Delta            int     `yaml:"delta"`
	Detector         string  `yaml:"detector"`
	Comparator       string  `yaml:"comparator"`
	ConfirmOpenK     int     `yaml:"confirm_open_k"`
	ConfirmCloseM    int     `yaml:"confirm_close_m"`
	SlotCount        int     `yaml:"slot_count"`
	OcrEngine        string  `yaml:"ocr_engine"`
	OcrConcurrency   int     `yaml:"ocr_concurrency"`
	LogLevel         int8    `yaml:"log_level"`
	LogPath          string  `yaml:"log_path"`
	OnnxModelPath    string  `yaml:"onnx_model_path"`
}

func main() {
	os.Exit(run())
}

// run parses flags, wires the pipeline, and returns the process exit
// code. It is a separate function from main so deferred cleanup (decoder
// close) always executes before os.Exit.
func run() int {
	showVersion := pflag.BoolP("version", "V", false, "show version and exit")
	input := pflag.StringP("input", "i", "", "input video file path (required)")
	output := pflag.StringP("output", "o", "", "output .srt file path (required)")
	settingsFile := pflag.StringP("config", "c", "", "optional YAML settings file")
	samplesPerSecond := pflag.Float64P("samples-per-second", "r", 0, "sampling cadence in Hz (default 7)")
	target := pflag.Int("target", 0, "luma target for bright-text detection (default 230)")
	delta := pflag.Int("delta", 0, "tolerance band around target (default 12)")
	detectorName := pflag.String("detector", "", "detector algorithm: luma-band|integral-band")
	comparatorName := pflag.String("comparator", "", "comparator backend: bitset-cover|sparse-chamfer")
	ocrEngineName := pflag.String("ocr-engine", "", "ocr engine: noop|platform|onnx|auto")
	onnxModelPath := pflag.String("onnx-model", "", "path to the ONNX text recognition model (ocr-engine=onnx)")
	concurrency := pflag.IntP("ocr-concurrency", "p", 0, "concurrent OCR recognitions (default 2)")
	logPath := pflag.String("log-path", "", "rotating log file path (default hardsub.log)")
	logLevel := pflag.Int8("log-level", defaultLogVerbosity, "log level: 0=debug 1=info 2=warning 3=error 4=fatal")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return exitSuccess
	}

	cfg := config.Default()
	path := defaultLogPath
	if *settingsFile != "" {
		fileLogPath, err := applyFile(&cfg, *settingsFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, pkg+"config: "+err.Error())
			return exitConfigurationError
		}
		if fileLogPath != "" {
			path = fileLogPath
		}
	}
	applyFlags(&cfg, flagValues{
		input: input, output: output, samplesPerSecond: samplesPerSecond,
		target: target, delta: delta, detectorName: detectorName,
		comparatorName: comparatorName, ocrEngineName: ocrEngineName,
		concurrency: concurrency, logLevel: logLevel,
	})
	if *logPath != "" {
		path = *logPath
	}
	log := logging.New(logging.FileConfig{
		Path:       path,
		MaxSizeMB:  logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAgeDays: logMaxAge,
		Level:      cfg.LogLevel,
	})
	cfg.Logger = log

	if err := cfg.Validate(); err != nil {
		log.Error(pkg+"invalid configuration", "error", err.Error())
		return exitConfigurationError
	}

	log.Info(pkg+"starting", "version", version, "input", cfg.InputPath, "output", cfg.OutputPath)

	dec, err := gocvfile.Open(cfg.InputPath, config.DecoderToSamplerCap, log)
	if err != nil {
		log.Error(pkg+"could not open decoder", "error", err.Error())
		return exitDecoderInitError
	}
	defer dec.Close()

	engine, err := newEngine(cfg.OcrEngine, *onnxModelPath)
	if err != nil {
		log.Error(pkg+"unknown ocr engine", "error", err.Error())
		return exitConfigurationError
	}

	pl, err := pipeline.New(cfg, decoderAdapter{dec}, engine)
	if err != nil {
		log.Error(pkg+"could not construct pipeline", "error", err.Error())
		return exitConfigurationError
	}

	if err := pl.Run(context.Background()); err != nil {
		code := classify(err)
		log.Error(pkg+"run failed", "error", err.Error())
		return code
	}

	snap := pl.Stats()
	log.Info(pkg+"run complete",
		"cues_emitted", snap.CuesEmitted,
		"segments_discarded", snap.SegmentsDiscarded,
		"detector_anomaly", snap.DetectorAnomaly,
		"sampler_anomaly", snap.SamplerAnomaly,
		"ocr_recoverable", snap.OcrRecoverable,
		"mean_anchor_confidence", snap.MeanAnchorConfidence)
	return exitSuccess
}

// decoderAdapter lets gocvfile.Decoder (returned as a *gocvfile.Decoder,
// not a decoder.Decoder) satisfy the pipeline's decoder.Decoder
// parameter without an import cycle between decoder and gocvfile.
type decoderAdapter struct {
	d *gocvfile.Decoder
}

func (a decoderAdapter) Frames() <-chan decoder.Result { return a.d.Frames() }
func (a decoderAdapter) Close() error                  { return a.d.Close() }

// classify maps a pipeline error to an exit code (spec.md §6). A
// *pipeline.WarmUpError is the only case that earns exit code 4 ("OCR
// warm-up error"); the dispatcher's *ocr.FatalError reports the
// consecutive-recognition-failure streak, a different OcrFatal trigger
// (spec.md §7) that is not a warm-up failure, so it falls through to
// exitOtherFatal like any other run-time failure. A *pipeline.
// DecoderStreamError (a mid-stream decoder failure, spec.md §8 scenario
// 5) shares exit code 3 with decoder *initialisation* failure, which is
// caught earlier at gocvfile.Open and mapped to exitDecoderInitError
// there. Everything else that reaches here already passed cfg.Validate,
// so it is writer I/O, grouped under exitOtherFatal.
func classify(err error) int {
	var warmUp *pipeline.WarmUpError
	if errors.As(err, &warmUp) {
		return exitOcrWarmUpError
	}
	var decErr *pipeline.DecoderStreamError
	if errors.As(err, &decErr) {
		return exitDecoderInitError
	}
	return exitOtherFatal
}

func newEngine(name, onnxModelPath string) (ocr.Engine, error) {
	switch name {
	case config.OcrNoop:
		return ocr.NewNoop(), nil
	case config.OcrPlatform:
		return ocr.NewPlatform(), nil
	case config.OcrOnnx:
		return ocr.NewOnnx(onnxModelPath), nil
	case config.OcrAuto:
		// auto prefers the platform-native recogniser; it is the engine
		// most deployments ship without a bundled model file.
		return ocr.NewPlatform(), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", name)
	}
}

func applyFile(cfg *config.Settings, path string) (logPath string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}

	vars := map[string]string{}
	if fs.Input != "" {
		vars[config.KeyInputPath] = fs.Input
	}
	if fs.Output != "" {
		vars[config.KeyOutputPath] = fs.Output
	}
	if fs.SamplesPerSecond != 0 {
		vars[config.KeySamplesPerSecond] = strconv.FormatFloat(fs.SamplesPerSecond, 'f', -1, 64)
	}
	if fs.Target != 0 {
		vars[config.KeyTarget] = strconv.Itoa(fs.Target)
	}
	if fs.Delta != 0 {
		vars[config.KeyDelta] = strconv.Itoa(fs.Delta)
	}
	if fs.Detector != "" {
		vars[config.KeyDetector] = fs.Detector
	}
	if fs.Comparator != "" {
		vars[config.KeyComparator] = fs.Comparator
	}
	if fs.ConfirmOpenK != 0 {
		vars[config.KeyConfirmOpenK] = strconv.Itoa(fs.ConfirmOpenK)
	}
	if fs.ConfirmCloseM != 0 {
		vars[config.KeyConfirmCloseM] = strconv.Itoa(fs.ConfirmCloseM)
	}
	if fs.SlotCount != 0 {
		vars[config.KeySlotCount] = strconv.Itoa(fs.SlotCount)
	}
	if fs.OcrEngine != "" {
		vars[config.KeyOcrEngine] = fs.OcrEngine
	}
	if fs.OcrConcurrency != 0 {
		vars[config.KeyConcurrencyP] = strconv.Itoa(fs.OcrConcurrency)
	}
	if fs.LogLevel != 0 {
		vars[config.KeyLogLevel] = strconv.Itoa(int(fs.LogLevel))
	}
	if err := cfg.Update(vars); err != nil {
		return "", err
	}
	return fs.LogPath, nil
}

// flagValues bundles the CLI flags that can override the YAML file, so
// applyFlags can be a single pass over config.Variables the same way
// applyFile is.
type flagValues struct {
	input, output                         *string
	samplesPerSecond                      *float64
	target, delta                         *int
	detectorName, comparatorName          *string
	ocrEngineName                         *string
	concurrency                           *int
	logLevel                              *int8
}

func applyFlags(cfg *config.Settings, f flagValues) {
	vars := map[string]string{}
	if *f.input != "" {
		vars[config.KeyInputPath] = *f.input
	}
	if *f.output != "" {
		vars[config.KeyOutputPath] = *f.output
	}
	if *f.samplesPerSecond != 0 {
		vars[config.KeySamplesPerSecond] = strconv.FormatFloat(*f.samplesPerSecond, 'f', -1, 64)
	}
	if *f.target != 0 {
		vars[config.KeyTarget] = strconv.Itoa(*f.target)
	}
	if *f.delta != 0 {
		vars[config.KeyDelta] = strconv.Itoa(*f.delta)
	}
	if *f.detectorName != "" {
		vars[config.KeyDetector] = *f.detectorName
	}
	if *f.comparatorName != "" {
		vars[config.KeyComparator] = *f.comparatorName
	}
	if *f.ocrEngineName != "" {
		vars[config.KeyOcrEngine] = *f.ocrEngineName
	}
	if *f.concurrency != 0 {
		vars[config.KeyConcurrencyP] = strconv.Itoa(*f.concurrency)
	}
	if *f.logLevel != defaultLogVerbosity {
		vars[config.KeyLogLevel] = strconv.Itoa(int(*f.logLevel))
	}
	// cfg.Update only fails on malformed numeric strings; every value here
	// was already parsed by pflag, so the error cannot occur in practice.
	_ = cfg.Update(vars)
}
