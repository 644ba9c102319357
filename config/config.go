/*
NAME
  config.go

DESCRIPTION
  config.go provides Settings, the immutable configuration value threaded
  to every hardsub pipeline stage at construction.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config holds the Settings struct consumed by every hardsub stage,
// along with validation and CLI-variable update support.
package config

import (
	"fmt"
	"time"

	"github.com/ausocean/hardsub/internal/logging"
	"github.com/ausocean/hardsub/roi"
)

// Comparator backend names, valid values of Settings.Comparator.
const (
	ComparatorBitsetCover  = "bitset-cover"
	ComparatorSparseChamfer = "sparse-chamfer"
)

// Detector algorithm names, valid values of Settings.Detector.
const (
	DetectorLumaBand    = "luma-band"
	DetectorIntegralBand = "integral-band"
)

// OCR engine names, valid values of Settings.OcrEngine.
const (
	OcrNoop     = "noop"
	OcrPlatform = "platform"
	OcrOnnx     = "onnx"
	OcrAuto     = "auto"
)

// Default parameter values, spec.md §6.
const (
	DefaultSamplesPerSecond = 7
	DefaultTarget           = 230
	DefaultDelta            = 12
	DefaultConfirmOpenK     = 2
	DefaultConfirmCloseM    = 2
	DefaultSlotCount        = 4
	DefaultConcurrencyP     = 2
	DefaultSegmentTimeoutMs = 5000
	DefaultHistoryDepth     = 4
	DefaultSlotCutoffFrac   = 0.15
	DefaultOcrFatalStreak   = 16
)

// Channel capacities between pipeline stages, spec.md §5.
const (
	DecoderToSamplerCap  = 32
	SamplerToDetectorCap = 16
	DetectorToSegmentCap = 8
)

// Settings is an immutable value; every constructor takes a copy, never a
// pointer, so no stage can observe another stage's mutation.
type Settings struct {
	InputPath  string
	OutputPath string

	SamplesPerSecond float64
	Target           int
	Delta            int
	Detector         string
	Comparator       string
	Roi              roi.Roi

	ConfirmOpenK   int
	ConfirmCloseM  int
	SlotCount      int
	SlotCutoffFrac float64
	HistoryDepth   int

	OcrEngine            string
	ConcurrencyP         int
	SegmentTimeout       time.Duration
	OcrFatalStreak       int

	Logger   logging.Logger
	LogLevel int8
}

// Default returns a Settings value with every field at its spec.md §6
// default, and Roi at its detector default (bottom 25% of the frame).
func Default() Settings {
	return Settings{
		SamplesPerSecond: DefaultSamplesPerSecond,
		Target:           DefaultTarget,
		Delta:            DefaultDelta,
		Detector:         DetectorLumaBand,
		Comparator:       ComparatorBitsetCover,
		Roi:              roi.Default,
		ConfirmOpenK:     DefaultConfirmOpenK,
		ConfirmCloseM:    DefaultConfirmCloseM,
		SlotCount:        DefaultSlotCount,
		SlotCutoffFrac:   DefaultSlotCutoffFrac,
		HistoryDepth:     DefaultHistoryDepth,
		OcrEngine:        OcrNoop,
		ConcurrencyP:     DefaultConcurrencyP,
		SegmentTimeout:   DefaultSegmentTimeoutMs * time.Millisecond,
		OcrFatalStreak:   DefaultOcrFatalStreak,
		Logger:           logging.Discard(),
		LogLevel:         logging.Info,
	}
}

// MultiError collects every configuration problem found by Validate,
// mirroring the teacher's device.MultiError: validation does not stop at
// the first bad field.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("config: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// Validate checks every field for a legal value. It never mutates s; the
// caller that wants "fill in missing defaults and warn" behaviour should
// use Update plus LogInvalidField the way revid's Config does, but hardsub
// treats an invalid configuration surface as fatal (ConfigurationInvalid,
// spec.md §7), so Validate only reports, it does not repair.
func (s Settings) Validate() error {
	var errs MultiError

	if s.InputPath == "" {
		errs = append(errs, fmt.Errorf("config: InputPath must be set"))
	}
	if s.OutputPath == "" {
		errs = append(errs, fmt.Errorf("config: OutputPath must be set"))
	}
	if s.SamplesPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("config: SamplesPerSecond must be > 0, got %v", s.SamplesPerSecond))
	}
	if s.Target < 0 || s.Target > 255 {
		errs = append(errs, fmt.Errorf("config: Target must be in [0,255], got %v", s.Target))
	}
	if s.Delta < 0 || s.Delta > 255 {
		errs = append(errs, fmt.Errorf("config: Delta must be in [0,255], got %v", s.Delta))
	}
	switch s.Detector {
	case DetectorLumaBand, DetectorIntegralBand:
	default:
		errs = append(errs, fmt.Errorf("config: unknown detector %q", s.Detector))
	}
	switch s.Comparator {
	case ComparatorBitsetCover, ComparatorSparseChamfer:
	default:
		errs = append(errs, fmt.Errorf("config: unknown comparator %q", s.Comparator))
	}
	switch s.OcrEngine {
	case OcrNoop, OcrPlatform, OcrOnnx, OcrAuto:
	default:
		errs = append(errs, fmt.Errorf("config: unknown ocr engine %q", s.OcrEngine))
	}
	if err := s.Roi.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if s.ConfirmOpenK < 1 {
		errs = append(errs, fmt.Errorf("config: ConfirmOpenK must be >= 1, got %v", s.ConfirmOpenK))
	}
	if s.ConfirmCloseM < 1 {
		errs = append(errs, fmt.Errorf("config: ConfirmCloseM must be >= 1, got %v", s.ConfirmCloseM))
	}
	if s.SlotCount < 1 {
		errs = append(errs, fmt.Errorf("config: SlotCount must be >= 1, got %v", s.SlotCount))
	}
	if s.ConcurrencyP < 1 {
		errs = append(errs, fmt.Errorf("config: ConcurrencyP must be >= 1, got %v", s.ConcurrencyP))
	}
	if s.SegmentTimeout <= 0 {
		errs = append(errs, fmt.Errorf("config: SegmentTimeout must be > 0, got %v", s.SegmentTimeout))
	}
	if s.Logger == nil {
		errs = append(errs, fmt.Errorf("config: Logger must be set"))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// LogInvalidField logs a field that was invalid and has been reset to its
// default, matching the teacher's Config.LogInvalidField convention.
func (s Settings) LogInvalidField(name string, def interface{}) {
	s.Logger.Info(name+" bad or unset, defaulting", name, def)
}
