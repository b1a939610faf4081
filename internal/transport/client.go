package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/firlift/firlift/internal/common"
	"github.com/firlift/firlift/internal/extract"
)

// uploadPath is the single endpoint this client talks to.
const uploadPath = "/api/upload"

// Client wraps the one multipart upload call to the extraction backend.
// It holds no state beyond the in-flight request.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Upload POSTs the document as a single multipart part named "file", carrying
// the raw bytes, original filename, and MIME type. It returns the raw response
// body and status code. Non-2xx responses return the body alongside a
// BackendError; failures before any response return a TransportError.
func (c *Client) Upload(ctx context.Context, file extract.FileReference, contents io.Reader) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	hdr.Set("Content-Type", file.MIMEType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, 0, common.NewAppError("TRANSPORT", "build multipart body", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		c.logger.Error("upload.http.read_error", "req_id", reqID, "error", err)
		return nil, 0, common.NewAppError("TRANSPORT", "read file contents", err)
	}
	if err := mw.Close(); err != nil {
		return nil, 0, common.NewAppError("TRANSPORT", "finalize multipart body", err)
	}

	url := c.baseURL + uploadPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		c.logger.Error("upload.http.build_request_error", "req_id", reqID, "error", err)
		return nil, 0, common.NewAppError("TRANSPORT", "build request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Info("upload.http.request",
		"req_id", reqID,
		"url", url,
		"filename", file.Name,
		"content_length", body.Len(),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("upload.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func(rc io.ReadCloser) {
		if cerr := rc.Close(); cerr != nil {
			c.logger.Warn("upload.http.response_body_close_error", "req_id", reqID, "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("upload.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("%w: status %d", common.ErrBackend, resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}

// ErrorMessage derives the user-facing message for a failed upload: a
// structured detail field from the error body when parseable, otherwise a
// generated status-code message.
func ErrorMessage(raw []byte, status int) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return fmt.Sprintf("Upload failed with status %d", status)
}
