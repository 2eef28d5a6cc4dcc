package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"trovka.org/internal/obs"
)

// UploadImage posts the image as multipart form data and returns the URL the
// backend assigned to it. The stored name is prefixed with a fresh UUID so
// repeated uploads of the same file never collide.
func (c *Client) UploadImage(ctx context.Context, token, filename string, r io.Reader) (string, error) {
	const op = "upload_image"

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	stored := uuid.NewString() + "-" + filepath.Base(filename)
	part, err := w.CreateFormFile("image", stored)
	if err != nil {
		return "", fmt.Errorf("%s: create form file: %w", op, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("%s: read image: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%s: finalize form: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-image/", &buf)
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.setCommonHeaders(req, token)

	obs.RequestStarted()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		obs.RequestFinished(op, 0, start)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	obs.RequestFinished(op, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", readError(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", op, err)
	}
	url, err := decodeImageURL(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return url, nil
}

// decodeImageURL accepts either a bare JSON string or an object with a "url"
// field; both shapes have been seen from the backend.
func decodeImageURL(data []byte) (string, error) {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil && bare != "" {
		return bare, nil
	}
	var wrapped struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.URL != "" {
		return wrapped.URL, nil
	}
	return "", fmt.Errorf("response missing image url")
}
