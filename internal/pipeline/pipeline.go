package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zombor/receipt-reel/internal/ledger"
	"github.com/zombor/receipt-reel/internal/vision"
)

// Kind identifies how an input file is turned into frames.
type Kind int

const (
	KindUnknown Kind = iota
	KindVideo
	KindPDF
	KindImage
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	}
	return "unknown"
}

// DetectKind maps an upload's content type, with an extension fallback,
// to an input kind.
func DetectKind(filename, contentType string) Kind {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo
	case contentType == "application/pdf":
		return KindPDF
	case strings.HasPrefix(contentType, "image/"):
		return KindImage
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4", ".mov", ".mkv", ".webm", ".avi":
		return KindVideo
	case ".pdf":
		return KindPDF
	case ".png", ".jpg", ".jpeg", ".gif", ".heic", ".heif":
		return KindImage
	}
	return KindUnknown
}

// FrameExtractor turns one input file into an ordered sequence of frame
// images under workDir. Implementations return the paths created so far
// even on error so the caller can clean them up.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, inputPath, workDir string) ([]string, error)
}

// Progress receives the append-only stream of human-readable status
// lines for one submission.
type Progress interface {
	Status(line string)
}

// ProgressFunc adapts a function to the Progress interface.
type ProgressFunc func(string)

// Status implements Progress.
func (f ProgressFunc) Status(line string) { f(line) }

// NopProgress discards status lines.
var NopProgress = ProgressFunc(func(string) {})

// IDGenerator names submissions.
type IDGenerator interface {
	Generate() string
}

// uuidGenerator namespaces each submission's temp files so concurrent
// submissions from different users cannot collide.
type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// Result is the outcome of one submission. Rows is never nil; an empty
// ledger is a valid user-facing result, not an error.
type Result struct {
	ID     string
	Frames int
	Rows   []ledger.Row
}

// Service runs the frame-selection, extraction, and aggregation
// pipeline for one submission. The input file belongs to the caller and
// is never deleted; everything the pipeline creates lives in a
// per-submission work directory and is removed before Process returns,
// on every path.
type Service struct {
	videos  FrameExtractor
	pdfs    FrameExtractor
	images  FrameExtractor
	vision  vision.Service
	tempDir string
	idGen   IDGenerator
}

// NewService creates a Service with the default submission ID
// generator.
func NewService(videos, pdfs, images FrameExtractor, visionSvc vision.Service, tempDir string) *Service {
	return NewServiceWithIDs(videos, pdfs, images, visionSvc, tempDir, uuidGenerator{})
}

// NewServiceWithIDs creates a Service with a custom ID generator for
// testing.
func NewServiceWithIDs(videos, pdfs, images FrameExtractor, visionSvc vision.Service, tempDir string, idGen IDGenerator) *Service {
	return &Service{
		videos:  videos,
		pdfs:    pdfs,
		images:  images,
		vision:  visionSvc,
		tempDir: tempDir,
		idGen:   idGen,
	}
}

// Process runs one submission end to end and returns the aggregated
// ledger. A single frame's extraction failure is reported and skipped;
// the batch continues with the remaining frames.
func (s *Service) Process(ctx context.Context, inputPath string, kind Kind, report Progress) (*Result, error) {
	if report == nil {
		report = NopProgress
	}

	extractor, err := s.extractorFor(kind)
	if err != nil {
		return nil, err
	}

	id := s.idGen.Generate()
	workDir := filepath.Join(s.tempDir, id)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}

	var tempFiles []string
	defer func() {
		Remove(tempFiles)
		if err := os.RemoveAll(workDir); err != nil {
			slog.Warn("Failed to remove work directory", "dir", workDir, "error", err)
		}
	}()

	report.Status("Extracting distinct frames from the submission...")
	frames, err := extractor.ExtractFrames(ctx, inputPath, workDir)
	tempFiles = append(tempFiles, frames...)
	if err != nil {
		report.Status("Could not read the submission.")
		return nil, fmt.Errorf("extracting frames: %w", err)
	}
	if len(frames) == 0 {
		report.Status("No distinct frames were found. Try a clearer capture.")
		return &Result{ID: id, Rows: []ledger.Row{}}, nil
	}
	report.Status(fmt.Sprintf("Found %d distinct frame(s). Extracting data from each...", len(frames)))

	var extracted []ledger.Frame
	for i, framePath := range frames {
		report.Status(fmt.Sprintf("Processing frame %d/%d", i+1, len(frames)))

		image, err := os.ReadFile(framePath)
		if err != nil {
			slog.Error("Failed to read frame", "path", framePath, "error", err)
			report.Status(fmt.Sprintf("Error processing frame %d. Continuing with the rest.", i+1))
			continue
		}

		items, err := s.vision.ExtractItems(ctx, image)
		if err != nil {
			slog.Error("Frame extraction failed", "path", framePath, "error", err)
			report.Status(fmt.Sprintf("Error processing frame %d. Continuing with the rest.", i+1))
			continue
		}

		date, err := s.vision.ExtractDate(ctx, image)
		if err != nil {
			slog.Warn("Date extraction failed", "path", framePath, "error", err)
			date = ""
		}

		if len(items) == 0 && date == "" {
			report.Status(fmt.Sprintf("No items found in frame %d.", i+1))
			continue
		}
		report.Status(fmt.Sprintf("Found %d potential item(s) in frame %d.", len(items), i+1))
		extracted = append(extracted, ledger.Frame{Items: items, Date: date})
	}

	if len(extracted) == 0 {
		report.Status("No items could be extracted from the submission.")
		return &Result{ID: id, Frames: len(frames), Rows: []ledger.Row{}}, nil
	}

	report.Status("Extraction complete. Aggregating results...")
	rows := ledger.Aggregate(extracted)
	if len(rows) == 0 {
		report.Status("No structured item data survived aggregation.")
	}
	return &Result{ID: id, Frames: len(frames), Rows: rows}, nil
}

func (s *Service) extractorFor(kind Kind) (FrameExtractor, error) {
	switch kind {
	case KindVideo:
		return s.videos, nil
	case KindPDF:
		return s.pdfs, nil
	case KindImage:
		return s.images, nil
	}
	return nil, fmt.Errorf("unsupported input kind %q", kind)
}
