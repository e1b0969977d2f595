package ingest

import (
	"errors"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"github.com/albumkeep/albumkeep/internal/wire"
)

type Endpoints struct {
	service   *Service
	uploadDir string
}

func NewEndpoints(service *Service, uploadDir string) *Endpoints {
	return &Endpoints{
		service:   service,
		uploadDir: uploadDir,
	}
}

// Status reports service health and the configured upload root. No
// side effects.
func (e *Endpoints) Status(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, StatusResponse{
		Status:    "ok",
		UploadDir: e.uploadDir,
	})
}

// Upload decodes a multipart request and persists its file fields.
func (e *Endpoints) Upload(ctx *fasthttp.RequestCtx) {
	contentType := string(ctx.Request.Header.ContentType())
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		writeError(ctx, fasthttp.StatusBadRequest, "Content-Type must be multipart/form-data", nil)
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "failed to parse multipart form", nil)
		return
	}

	album := wire.DefaultAlbum
	if values := form.Value[wire.FieldAlbum]; len(values) > 0 && values[0] != "" {
		album = values[0]
	}

	stored, err := e.service.Ingest(ctx, album, form.File[wire.FieldFile])
	if err != nil {
		log.Error().Err(err).Str("album", album).Msg("Upload rejected")
		writeError(ctx, statusForError(err), err.Error(), stored)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, wire.UploadResponse{
		Success: true,
		Files:   stored,
	})
}

// Albums lists the catalog grouped by album.
func (e *Endpoints) Albums(ctx *fasthttp.RequestCtx) {
	albums, err := e.service.repo.Albums()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list albums")
		writeError(ctx, fasthttp.StatusInternalServerError, "failed to list albums", nil)
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, AlbumsResponse{Albums: albums})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrUnsupportedType):
		return fasthttp.StatusUnsupportedMediaType
	case errors.Is(err, ErrFileTooLarge):
		return fasthttp.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNoFiles), errors.Is(err, ErrTooManyFiles):
		return fasthttp.StatusBadRequest
	default:
		return fasthttp.StatusInternalServerError
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string, stored []wire.StoredFile) {
	writeJSON(ctx, status, wire.UploadResponse{
		Success: false,
		Error:   message,
		Files:   stored,
	})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, body interface{}) {
	payload, err := json.Marshal(body)
	if err != nil {
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(payload)
}
