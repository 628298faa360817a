package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/zombor/receipt-analyzer/internal/scanning"
)

// IDGenerator generates unique names for scratch files
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// Service analyzes uploaded receipts. Uploads are written to scratch
// storage for the duration of one analysis and removed afterwards.
type Service struct {
	runner      *Runner
	storage     Storage
	idGenerator IDGenerator
}

// NewService creates a new Service with a UUID generator
func NewService(runner *Runner, storage Storage) *Service {
	return NewServiceWithDeps(runner, storage, &uuidGenerator{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(runner *Runner, storage Storage, idGen IDGenerator) *Service {
	return &Service{
		runner:      runner,
		storage:     storage,
		idGenerator: idGen,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if unsafeFilenameChars.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phones generate very long names
	const maxLen = 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// AnalyzeUpload stores the upload, analyzes it and removes it again.
// The error is ErrBusy or a storage failure; analysis failures are in the outcome.
func (s *Service) AnalyzeUpload(ctx context.Context, filename string, data []byte) (scanning.Outcome, error) {
	name := fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(filename))

	savedName, err := s.storage.Save(name, data)
	if err != nil {
		return scanning.Outcome{}, fmt.Errorf("saving upload: %w", err)
	}
	defer func() {
		if err := s.storage.Delete(savedName); err != nil {
			slog.Warn("Failed to delete upload", "filename", savedName, "error", err)
		}
	}()

	result, err := s.runner.Start(ctx, s.storage.Path(savedName))
	if err != nil {
		return scanning.Outcome{}, err
	}

	outcome := <-result
	if !outcome.OK() {
		slog.Debug("Upload analysis failed",
			"filename", filename,
			"file_size", len(data),
		)
	}
	return outcome, nil
}

// Busy reports whether an analysis is in progress
func (s *Service) Busy() bool {
	return s.runner.Busy()
}
