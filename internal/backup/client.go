package backup

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/albumkeep/albumkeep/internal/wire"
)

// Uploader sends encoded payloads to the ingestion service over HTTP.
type Uploader struct {
	client   *fasthttp.Client
	baseURL  string
	username string
	password string
	timeout  time.Duration
}

func NewUploader(serverURL, username, password string, timeout time.Duration) *Uploader {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Uploader{
		client: &fasthttp.Client{
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL:  strings.TrimRight(serverURL, "/"),
		username: username,
		password: password,
		timeout:  timeout,
	}
}

// Upload posts the payload to /upload. Progress is reported from bytes
// the transport has consumed off the body stream. Cancelling ctx makes
// the body stream fail, which aborts the in-flight request.
func (u *Uploader) Upload(ctx context.Context, album string, payload *wire.Payload, onProgress func(sent, total int64)) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u.baseURL + "/upload")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(payload.ContentType())
	if u.username != "" {
		req.Header.Set("Authorization", basicAuthHeader(u.username, u.password))
	}

	total := payload.Size()
	body := payload.NewReader(ctx, func(sent int64) {
		if onProgress != nil {
			onProgress(sent, total)
		}
	})
	req.SetBodyStream(body, int(total))

	done := make(chan error, 1)
	go func() {
		done <- u.client.DoTimeout(req, resp, u.timeout)
	}()

	select {
	case <-ctx.Done():
		// The body stream errors on the next read, so the background
		// request terminates on its own.
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Err: err}
		}
	}

	return classifyResponse(resp.StatusCode(), resp.Body())
}

func classifyResponse(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		parsed, err := wire.ParseResponse(body)
		if err != nil {
			return &TransportError{Status: status, Err: err}
		}
		if !parsed.Success {
			return &RejectedError{Status: status, Reason: parsed.Error}
		}
		return nil

	case status == fasthttp.StatusUnauthorized:
		return ErrUnauthorized

	case status >= 400 && status < 500:
		reason := fmt.Sprintf("status %d", status)
		if parsed, err := wire.ParseResponse(body); err == nil && parsed.Error != "" {
			reason = parsed.Error
		}
		return &RejectedError{Status: status, Reason: reason}

	default:
		return &TransportError{Status: status}
	}
}

func basicAuthHeader(username, password string) string {
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + credentials
}
