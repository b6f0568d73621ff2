package frames

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultThreshold is the similarity score below which a candidate
// frame counts as new content.
const DefaultThreshold = 0.32

// Selector extracts visually distinct frames from a receipt video.
// Frames are decoded with ffmpeg, sampled at roughly two per second,
// and a frame is kept when its structural similarity to the previously
// kept frame drops below the threshold. Comparing only against the
// last kept frame bounds memory and makes the threshold express "how
// different must the next shot be to count as new content".
type Selector struct {
	FFmpeg    string  // ffmpeg binary, defaults to "ffmpeg"
	FFprobe   string  // ffprobe binary, defaults to "ffprobe"
	Threshold float64 // similarity threshold, defaults to DefaultThreshold
}

// NewSelector creates a Selector. Empty binary paths fall back to PATH
// lookup; a non-positive threshold falls back to DefaultThreshold.
func NewSelector(ffmpeg, ffprobe string, threshold float64) *Selector {
	return &Selector{
		FFmpeg:    ffmpeg,
		FFprobe:   ffprobe,
		Threshold: threshold,
	}
}

// ExtractFrames decodes the video, writes the distinct frames as PNGs
// under workDir, and returns their paths in encounter order. The
// returned slice holds whatever was written so far when an error
// occurs, so the caller can clean up.
func (s *Selector) ExtractFrames(ctx context.Context, videoPath, workDir string) ([]string, error) {
	fps, err := probeFrameRate(ctx, s.FFprobe, videoPath)
	if err != nil {
		return nil, err
	}

	sampleDir := filepath.Join(workDir, "samples")
	if err := os.MkdirAll(sampleDir, 0755); err != nil {
		return nil, fmt.Errorf("creating sample directory: %w", err)
	}
	defer os.RemoveAll(sampleDir)

	samples, err := s.dumpSamples(ctx, videoPath, sampleDir, sampleStride(fps))
	if err != nil {
		return nil, err
	}

	return s.selectDistinct(samples, workDir)
}

// sampleStride bounds decode cost to roughly two samples per second.
func sampleStride(fps float64) int {
	if fps <= 0 {
		return 1
	}
	stride := int(math.Round(fps / 2))
	if stride < 1 {
		return 1
	}
	return stride
}

// dumpSamples decodes every strideth frame of the video into PNG files
// under sampleDir and returns their paths in decode order.
func (s *Selector) dumpSamples(ctx context.Context, videoPath, sampleDir string, stride int) ([]string, error) {
	binary := strings.TrimSpace(s.FFmpeg)
	if binary == "" {
		binary = "ffmpeg"
	}

	filter := fmt.Sprintf(`select=not(mod(n\,%d))`, stride)
	pattern := filepath.Join(sampleDir, "sample_%06d.png")
	cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-loglevel", "error",
		"-i", videoPath, "-vf", filter, "-vsync", "vfr", pattern)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w: %s", err, strings.TrimSpace(string(output)))
	}

	samples, err := filepath.Glob(filepath.Join(sampleDir, "sample_*.png"))
	if err != nil {
		return nil, fmt.Errorf("listing samples: %w", err)
	}
	sort.Strings(samples)
	return samples, nil
}

// selectDistinct walks sampled frames in order and persists those whose
// similarity to the last kept frame falls below the threshold. The
// first decodable candidate is always kept.
func (s *Selector) selectDistinct(samples []string, destDir string) ([]string, error) {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	kept := []string{}
	var reference *image.Gray
	for _, samplePath := range samples {
		img, err := readImage(samplePath)
		if err != nil {
			slog.Warn("Skipping undecodable frame", "path", samplePath, "error", err)
			continue
		}
		img = normalizeOrientation(img)
		gray := grayThumb(img)

		distinct := reference == nil
		if !distinct {
			score, err := SSIM(reference, gray)
			if err != nil {
				// Fail open: an incomparable frame may still carry new content.
				slog.Warn("Similarity comparison failed", "path", samplePath, "error", err)
				distinct = true
			} else if score < threshold {
				distinct = true
			}
		}
		if !distinct {
			continue
		}

		framePath := filepath.Join(destDir, fmt.Sprintf("frame_%04d.png", len(kept)))
		if err := writePNG(framePath, img); err != nil {
			return kept, err
		}
		kept = append(kept, framePath)
		reference = gray
	}

	slog.Info("Selected distinct frames", "candidates", len(samples), "kept", len(kept))
	return kept, nil
}
