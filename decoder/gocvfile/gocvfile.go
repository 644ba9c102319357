/*
NAME
  gocvfile.go

DESCRIPTION
  gocvfile.go decodes a video file into luma planes using gocv's
  VideoCapture, grounded on cmd/rv/probe.go's turbidityCalculation, which
  opens a temp H.264 file with gocv.VideoCaptureFile and reads gocv.Mat
  frames in a loop.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

//go:build withcv
// +build withcv

// Package gocvfile implements decoder.Decoder by reading a file path with
// gocv.VideoCaptureFile, converting each BGR frame to a luma plane.
package gocvfile

import (
	"github.com/pkg/errors"

	"gocv.io/x/gocv"

	"github.com/ausocean/hardsub/decoder"
	"github.com/ausocean/hardsub/internal/logging"
	"github.com/ausocean/hardsub/luma"
)

// Decoder reads frames from a video file via gocv.VideoCapture, converting
// each to grayscale and emitting it as a luma.Plane on its presentation
// timestamp (derived from the capture's frame position and frame rate).
type Decoder struct {
	vc     *gocv.VideoCapture
	out    chan decoder.Result
	log    logging.Logger
	fps    float64
	closed chan struct{}
}

// Open starts decoding path in a background goroutine. The returned
// Decoder's Frames channel yields planes in presentation order until
// end-of-stream or a decode error, matching the consumed Decoder contract
// (spec.md §6): "errors surface as stream termination with a terminal
// error element." outCap sizes the decoder-to-sampler channel (spec.md
// §5's DecoderToSamplerCap default of 32).
func Open(path string, outCap int, log logging.Logger) (*Decoder, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "gocvfile: open %s", path)
	}
	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}
	if outCap < 1 {
		outCap = 1
	}
	d := &Decoder{
		vc:     vc,
		out:    make(chan decoder.Result, outCap),
		log:    log,
		fps:    fps,
		closed: make(chan struct{}),
	}
	go d.run()
	return d, nil
}

func (d *Decoder) run() {
	defer close(d.out)

	mat := gocv.NewMat()
	defer mat.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	index := 0
	for {
		select {
		case <-d.closed:
			return
		default:
		}

		if !d.vc.Read(&mat) {
			return // End of stream: no terminal error, channel simply closes.
		}
		if mat.Empty() {
			continue
		}
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
		pix, err := gray.DataPtrUint8()
		if err != nil {
			d.out <- decoder.Result{Err: errors.Wrapf(err, "gocvfile: read frame %d bytes", index)}
			return
		}
		cp := make([]byte, len(pix))
		copy(cp, pix)

		pts := float64(index) / d.fps
		plane, err := luma.New(gray.Cols(), gray.Rows(), gray.Cols(), cp, pts)
		if err != nil {
			d.out <- decoder.Result{Err: errors.Wrapf(err, "gocvfile: build plane for frame %d", index)}
			return
		}
		plane.Index = index

		select {
		case d.out <- decoder.Result{Plane: plane}:
		case <-d.closed:
			return
		}
		index++
	}
}

// Frames implements decoder.Decoder.
func (d *Decoder) Frames() <-chan decoder.Result { return d.out }

// Close stops decoding and releases the underlying capture device.
func (d *Decoder) Close() error {
	select {
	case <-d.closed:
	default:
		close(d.closed)
	}
	return d.vc.Close()
}
