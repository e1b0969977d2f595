package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/albumkeep/albumkeep/internal/storage"
	"github.com/albumkeep/albumkeep/internal/wire"
)

var (
	ErrNoFiles         = errors.New("no files in request")
	ErrTooManyFiles    = errors.New("too many files in request")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrUnsupportedType = errors.New("content type must be image/* or video/*")
)

const (
	thumbnailDir    = ".thumbs"
	thumbnailWidth  = 300
	thumbnailHeight = 300
)

// Notifier receives ingest activity events.
type Notifier interface {
	NotifyIngest(album, storedName string, size int64)
}

// Service decodes upload requests into durably stored files plus
// catalog records.
type Service struct {
	repo        Repository
	backend     storage.Backend
	notifier    Notifier
	maxFileSize int64
	maxFiles    int
	thumbnails  bool
}

func NewService(repo Repository, backend storage.Backend, notifier Notifier, maxFileSize int64, maxFiles int, thumbnails bool) *Service {
	if maxFileSize <= 0 {
		maxFileSize = 20 * 1024 * 1024
	}
	if maxFiles <= 0 {
		maxFiles = 200
	}
	return &Service{
		repo:        repo,
		backend:     backend,
		notifier:    notifier,
		maxFileSize: maxFileSize,
		maxFiles:    maxFiles,
		thumbnails:  thumbnails,
	}
}

// Ingest persists each uploaded file under a sanitized, timestamped
// name inside the album's directory. On error, the manifest of files
// already written is returned alongside it so nothing applied stays
// invisible to the caller.
func (s *Service) Ingest(ctx context.Context, album string, files []*multipart.FileHeader) ([]wire.StoredFile, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > s.maxFiles {
		return nil, fmt.Errorf("%w: %d files (max %d)", ErrTooManyFiles, len(files), s.maxFiles)
	}

	albumDir := SanitizeAlbum(album)
	var stored []wire.StoredFile

	for _, fh := range files {
		entry, err := s.ingestOne(ctx, albumDir, fh)
		if err != nil {
			return stored, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		stored = append(stored, entry)
	}

	return stored, nil
}

func (s *Service) ingestOne(ctx context.Context, albumDir string, fh *multipart.FileHeader) (wire.StoredFile, error) {
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		return wire.StoredFile{}, fmt.Errorf("%w: got %q", ErrUnsupportedType, contentType)
	}
	if fh.Size > s.maxFileSize {
		return wire.StoredFile{}, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, fh.Size, s.maxFileSize)
	}

	file, err := fh.Open()
	if err != nil {
		return wire.StoredFile{}, fmt.Errorf("failed to open file part: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxFileSize+1))
	if err != nil {
		return wire.StoredFile{}, fmt.Errorf("failed to read file part: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return wire.StoredFile{}, fmt.Errorf("%w: body exceeds %d bytes", ErrFileTooLarge, s.maxFileSize)
	}

	now := time.Now()
	storedName := fmt.Sprintf("%d_%s", now.UnixMilli(), SanitizeFilename(fh.Filename))
	relPath := path.Join(albumDir, storedName)

	if err := s.backend.Store(ctx, relPath, bytes.NewReader(data)); err != nil {
		return wire.StoredFile{}, fmt.Errorf("failed to store file: %w", err)
	}

	record := &Record{
		ID:           uuid.NewString(),
		Album:        albumDir,
		OriginalName: fh.Filename,
		StoredName:   storedName,
		SizeBytes:    int64(len(data)),
		Path:         relPath,
		ContentType:  contentType,
		CreatedAt:    now.Unix(),
	}
	if err := s.repo.Create(record); err != nil {
		log.Error().Err(err).Str("path", relPath).Msg("Failed to catalog ingested file")
	}

	if s.thumbnails && strings.HasPrefix(contentType, "image/") {
		s.storeThumbnail(ctx, albumDir, storedName, data)
	}

	if s.notifier != nil {
		s.notifier.NotifyIngest(albumDir, storedName, int64(len(data)))
	}

	log.Info().
		Str("album", albumDir).
		Str("file", storedName).
		Int("size", len(data)).
		Msg("File ingested")

	return wire.StoredFile{
		OriginalName: fh.Filename,
		SavedAs:      storedName,
		Size:         int64(len(data)),
		Path:         relPath,
	}, nil
}

// storeThumbnail is best effort; an undecodable image only loses its
// preview, not its backup.
func (s *Service) storeThumbnail(ctx context.Context, albumDir, storedName string, data []byte) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("file", storedName).Msg("Skipping thumbnail for undecodable image")
		return
	}

	thumb := imaging.Thumbnail(img, thumbnailWidth, thumbnailHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		log.Warn().Err(err).Str("file", storedName).Msg("Failed to encode thumbnail")
		return
	}

	thumbPath := path.Join(albumDir, thumbnailDir, storedName+".jpg")
	if err := s.backend.Store(ctx, thumbPath, &buf); err != nil {
		log.Warn().Err(err).Str("file", storedName).Msg("Failed to store thumbnail")
	}
}
