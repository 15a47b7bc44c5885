package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"gomarketplace_vendor/pkg/logger"
	"gomarketplace_vendor/pkg/middleware"
)

// maxErrorBody caps how much of a failed response is read for the error message.
const maxErrorBody = 64 << 10

type ClientConfig struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	// Transport allows tests to swap the round tripper.
	Transport http.RoundTripper
}

// FileUpload is sent as multipart/form-data instead of JSON.
type FileUpload struct {
	Field    string
	Filename string
	Content  io.Reader
}

type BaseClient struct {
	ApiURL  string
	auth    AuthEngine
	log     logger.Logger
	client  *http.Client
	limiter *rate.Limiter
	do      middleware.DoFunc
}

func NewBaseClient(cfg ClientConfig, log *logger.BaseLogger, logPrefix string) *BaseClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}

	c := &BaseClient{
		ApiURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		log:     log.WithPrefix(logPrefix),
		client:  &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
	}
	// A typed nil *BearerAuth must not end up inside the interface.
	if auth := NewBearerAuth(cfg.Token); auth != nil {
		c.auth = auth
	}
	c.do = middleware.Chain(c.doRequest, middleware.Metrics(), middleware.Logging(c.log))
	return c
}

func (c *BaseClient) doRequest(ctx context.Context, method, endpoint string, requestBody interface{}, response interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, contentType, err := encodeBody(requestBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ApiURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.auth != nil {
		c.auth.SetApiKey(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("request was cancelled: %w", ctx.Err())
		default:
			return fmt.Errorf("failed to execute request: %w", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, errBody)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if response == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func encodeBody(requestBody interface{}) (io.Reader, string, error) {
	switch b := requestBody.(type) {
	case nil:
		return nil, "", nil
	case *FileUpload:
		return encodeMultipart(b)
	default:
		bodyBytes, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return bytes.NewReader(bodyBytes), "application/json", nil
	}
}

func encodeMultipart(upload *FileUpload) (io.Reader, string, error) {
	field := upload.Field
	if field == "" {
		field = "file"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, upload.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return nil, "", fmt.Errorf("failed to read upload %s: %w", upload.Filename, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
