/*
NAME
  variables.go

DESCRIPTION
  variables.go provides a table of Settings fields keyed by name, each with
  an Update function, mirroring revid/config's variable table. It lets
  cmd/hardsub apply CLI flag overrides and YAML file values through a
  single name->value map, same as Revid.Update(vars map[string]string).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"strconv"
)

// Config map keys, the names under which a Settings field can be
// overridden from the CLI or a settings file.
const (
	KeyInputPath        = "input"
	KeyOutputPath       = "output"
	KeySamplesPerSecond = "samples_per_second"
	KeyTarget           = "target"
	KeyDelta            = "delta"
	KeyDetector         = "detector"
	KeyComparator       = "comparator"
	KeyConfirmOpenK     = "confirm_open_k"
	KeyConfirmCloseM    = "confirm_close_m"
	KeySlotCount        = "slot_count"
	KeyOcrEngine        = "ocr_engine"
	KeyConcurrencyP     = "ocr_concurrency"
	KeyLogLevel         = "log_level"
)

// variable describes a single overridable Settings field.
type variable struct {
	Name   string
	Update func(s *Settings, v string) error
}

// Variables is the full table of overridable fields, in the order Update
// applies them.
var Variables = []variable{
	{KeyInputPath, func(s *Settings, v string) error { s.InputPath = v; return nil }},
	{KeyOutputPath, func(s *Settings, v string) error { s.OutputPath = v; return nil }},
	{KeySamplesPerSecond, func(s *Settings, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		s.SamplesPerSecond = f
		return nil
	}},
	{KeyTarget, func(s *Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.Target = n
		return nil
	}},
	{KeyDelta, func(s *Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.Delta = n
		return nil
	}},
	{KeyDetector, func(s *Settings, v string) error { s.Detector = v; return nil }},
	{KeyComparator, func(s *Settings, v string) error { s.Comparator = v; return nil }},
	{KeyConfirmOpenK, func(s *Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.ConfirmOpenK = n
		return nil
	}},
	{KeyConfirmCloseM, func(s *Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.ConfirmCloseM = n
		return nil
	}},
	{KeySlotCount, func(s *Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.SlotCount = n
		return nil
	}},
	{KeyOcrEngine, func(s *Settings, v string) error { s.OcrEngine = v; return nil }},
	{KeyConcurrencyP, func(s *Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.ConcurrencyP = n
		return nil
	}},
	{KeyLogLevel, func(s *Settings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		s.LogLevel = int8(n)
		return nil
	}},
}

// Update applies a map of variable name -> string value to s, in table
// order, and returns the first error encountered (if any), leaving s
// partially updated, same as the last successfully-applied field wins.
func (s *Settings) Update(vars map[string]string) error {
	for _, v := range Variables {
		if raw, ok := vars[v.Name]; ok {
			if err := v.Update(s, raw); err != nil {
				return err
			}
		}
	}
	return nil
}
