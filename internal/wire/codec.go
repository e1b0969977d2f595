package wire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	// FieldAlbum is the text field carrying the album name.
	FieldAlbum = "album"
	// FieldFile is the file field name; a request carries one per item.
	FieldFile = "photos"
	// DefaultAlbum is used by the server when no album field is present.
	DefaultAlbum = "uploads"
)

// File is one file part to be encoded into an upload request.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Payload is a fully encoded multipart request body. The body is held
// in memory so a retry can re-send it and so sent-byte progress can be
// derived from how much of it the transport has consumed.
type Payload struct {
	body        []byte
	contentType string
}

// Encode builds a multipart/form-data body with the album field first,
// followed by one file part per input file. The boundary token is
// unique per payload.
func Encode(album string, files []File) (*Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary("albumkeep-" + uuid.NewString()); err != nil {
		return nil, fmt.Errorf("failed to set boundary: %w", err)
	}

	if err := w.WriteField(FieldAlbum, album); err != nil {
		return nil, fmt.Errorf("failed to write album field: %w", err)
	}

	for _, f := range files {
		part, err := createFilePart(w, f.Name, f.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize body: %w", err)
	}

	return &Payload{
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	}, nil
}

func createFilePart(w *multipart.Writer, filename, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldFile, filename))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

// ContentType returns the multipart content type including the boundary.
func (p *Payload) ContentType() string { return p.contentType }

// Size returns the encoded body size in bytes.
func (p *Payload) Size() int64 { return int64(len(p.body)) }

// NewReader returns a reader over the encoded body that reports the
// cumulative number of consumed bytes through onProgress and fails
// once ctx is cancelled, aborting any in-flight send.
func (p *Payload) NewReader(ctx context.Context, onProgress func(sent int64)) io.Reader {
	return &progressReader{
		ctx:        ctx,
		body:       bytes.NewReader(p.body),
		onProgress: onProgress,
	}
}

type progressReader struct {
	ctx        context.Context
	body       *bytes.Reader
	sent       atomic.Int64
	onProgress func(sent int64)
}

func (r *progressReader) Read(b []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.body.Read(b)
	if n > 0 {
		sent := r.sent.Add(int64(n))
		if r.onProgress != nil {
			r.onProgress(sent)
		}
	}
	return n, err
}

// StoredFile is one manifest entry in an upload response.
type StoredFile struct {
	OriginalName string `json:"originalName"`
	SavedAs      string `json:"savedAs"`
	Size         int64  `json:"size"`
	Path         string `json:"path"`
}

// UploadResponse is the JSON envelope returned by the ingestion service.
// On errors, Files still lists anything written before the failure.
type UploadResponse struct {
	Success bool         `json:"success"`
	Files   []StoredFile `json:"files,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// ParseResponse decodes an upload response envelope.
func ParseResponse(body []byte) (*UploadResponse, error) {
	var resp UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}
