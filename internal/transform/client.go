package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client is the HTTP client for the GAN service. Each request uploads the
// input images as a multipart form and reads the produced image back.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a transform client with a bounded request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Transform runs one command over the ordered inputs.
func (c *Client) Transform(ctx context.Context, inputs [][]byte, command string) ([]byte, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("command", command); err != nil {
		return nil, fmt.Errorf("build transform request: %w", err)
	}
	for i, input := range inputs {
		part, err := form.CreateFormFile("photos", fmt.Sprintf("%d.jpg", i+1))
		if err != nil {
			return nil, fmt.Errorf("build transform request: %w", err)
		}
		if _, err := part.Write(input); err != nil {
			return nil, fmt.Errorf("build transform request: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build transform request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transform", &body)
	if err != nil {
		return nil, fmt.Errorf("build transform request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call transform service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error != "" {
			return nil, &Error{Reason: errResp.Error}
		}
		return nil, &Error{Reason: fmt.Sprintf("transform service returned status %d", resp.StatusCode)}
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read transform result: %w", err)
	}
	return result, nil
}
