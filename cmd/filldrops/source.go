package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"filldrops/internal/config"
	"filldrops/internal/filldrops"
	"filldrops/internal/logging"
	"filldrops/internal/media/ffmpeg"
	"filldrops/internal/media/ffprobe"
	"filldrops/internal/motion"
	"filldrops/internal/planestats"
	"filldrops/internal/y4m"
)

// source is an opened input clip plus the work file backing it, if any.
type source struct {
	*y4m.Reader
	workFile string
}

func (s *source) Close() error {
	err := s.Reader.Close()
	if s.workFile != "" {
		if rmErr := os.Remove(s.workFile); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}
	return err
}

// supportedPixFmts lists 8-bit layouts ffmpeg can emit without resampling.
var supportedPixFmts = map[string]bool{
	"yuv420p":  true,
	"yuvj420p": true,
	"yuv422p":  true,
	"yuv444p":  true,
	"gray":     true,
}

func openSource(ctx context.Context, cfg *config.Config, path string, logger *slog.Logger) (*source, error) {
	if ffmpeg.IsY4M(path) {
		reader, err := y4m.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", filldrops.ErrInvalidInput, err)
		}
		return &source{Reader: reader}, nil
	}

	probe, err := ffprobe.Inspect(ctx, cfg.FFmpeg.FFprobeBinary, path)
	if err != nil {
		return nil, err
	}
	stream, err := probe.PrimaryVideo()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", filldrops.ErrInvalidInput, path, err)
	}
	pixFmt := strings.ToLower(stream.PixFmt)
	if !supportedPixFmts[pixFmt] {
		pixFmt = "yuv420p"
	}

	workFile := filepath.Join(cfg.Paths.WorkDir, uuid.NewString()+".y4m")
	logger.Info("converting input",
		logging.String("input", path),
		logging.String("codec", stream.CodecName),
		logging.String("pix_fmt", pixFmt),
		logging.Int("frames", stream.FrameCount()),
	)
	client := ffmpeg.New(cfg.FFmpeg.FFmpegBinary)
	if err := client.Convert(ctx, path, workFile, pixFmt); err != nil {
		_ = os.Remove(workFile)
		return nil, err
	}
	reader, err := y4m.Open(workFile)
	if err != nil {
		_ = os.Remove(workFile)
		return nil, err
	}
	return &source{Reader: reader, workFile: workFile}, nil
}

// buildPipeline wires the built-in diff engine and motion compensator.
func buildPipeline(cfg *config.Config, src *source, threshold float64, logger *slog.Logger) (*filldrops.Pipeline, error) {
	params := motion.DefaultParams()
	params.Pel = cfg.Filter.Pel
	params.TrueMotion = cfg.Filter.TrueMotion
	params.BlockSize = cfg.Filter.BlockSize
	params.SearchRadius = cfg.Filter.SearchRadius
	params.Lambda = cfg.Filter.Lambda

	mc, err := motion.New(src, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", filldrops.ErrInvalidConfig, err)
	}
	return filldrops.New(src, planestats.NewEngine(), mc,
		filldrops.WithThreshold(threshold),
		filldrops.WithLogger(logger),
	)
}
