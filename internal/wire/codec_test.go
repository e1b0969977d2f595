package wire

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeForm(t *testing.T, p *Payload) *multipart.Form {
	t.Helper()

	_, params, err := mime.ParseMediaType(p.ContentType())
	require.NoError(t, err)
	require.NotEmpty(t, params["boundary"])

	body := p.NewReader(context.Background(), nil)
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	return form
}

func TestEncode_ShouldRoundTripAlbumAndFile(t *testing.T) {
	// given
	content := []byte("fake jpeg bytes")
	files := []File{{
		Name:        "IMG_001.JPG",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader(content),
	}}

	// when
	payload, err := Encode("Vacation 2023", files)

	// then
	require.NoError(t, err)
	form := decodeForm(t, payload)
	defer form.RemoveAll()

	assert.Equal(t, []string{"Vacation 2023"}, form.Value[FieldAlbum])

	require.Len(t, form.File[FieldFile], 1)
	fh := form.File[FieldFile][0]
	assert.Equal(t, "IMG_001.JPG", fh.Filename)
	assert.Equal(t, "image/jpeg", fh.Header.Get("Content-Type"))

	f, err := fh.Open()
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestEncode_ShouldPutAlbumFieldFirst(t *testing.T) {
	payload, err := Encode("trip", []File{{
		Name:        "a.mp4",
		ContentType: "video/mp4",
		Reader:      strings.NewReader("xx"),
	}})
	require.NoError(t, err)

	_, params, err := mime.ParseMediaType(payload.ContentType())
	require.NoError(t, err)

	reader := multipart.NewReader(payload.NewReader(context.Background(), nil), params["boundary"])
	first, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, FieldAlbum, first.FormName())
}

func TestEncode_ShouldUseUniqueBoundaries(t *testing.T) {
	p1, err := Encode("a", nil)
	require.NoError(t, err)
	p2, err := Encode("a", nil)
	require.NoError(t, err)

	assert.NotEqual(t, p1.ContentType(), p2.ContentType())
}

func TestPayloadReader_ShouldReportMonotonicProgress(t *testing.T) {
	payload, err := Encode("a", []File{{
		Name:        "x.jpg",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader(make([]byte, 4096)),
	}})
	require.NoError(t, err)

	var reports []int64
	reader := payload.NewReader(context.Background(), func(sent int64) {
		reports = append(reports, sent)
	})

	n, err := io.Copy(io.Discard, reader)
	require.NoError(t, err)
	assert.Equal(t, payload.Size(), n)

	require.NotEmpty(t, reports)
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i], reports[i-1])
	}
	assert.Equal(t, payload.Size(), reports[len(reports)-1])
}

func TestPayloadReader_ShouldFailOnceContextCancelled(t *testing.T) {
	payload, err := Encode("a", []File{{
		Name:        "x.jpg",
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader(make([]byte, 1024)),
	}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reader := payload.NewReader(ctx, nil)

	buf := make([]byte, 16)
	_, err = reader.Read(buf)
	require.NoError(t, err)

	cancel()
	_, err = reader.Read(buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseResponse_ShouldDecodeManifest(t *testing.T) {
	body := []byte(`{"success":true,"files":[{"originalName":"IMG_001.JPG","savedAs":"1712_IMG_001.JPG","size":15,"path":"Vacation 2023/1712_IMG_001.JPG"}]}`)

	resp, err := ParseResponse(body)

	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "IMG_001.JPG", resp.Files[0].OriginalName)
}

func TestParseResponse_ShouldRejectGarbage(t *testing.T) {
	_, err := ParseResponse([]byte("not json"))
	assert.Error(t, err)
}
