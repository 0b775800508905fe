// Package runtime is the HTTP client for the model runtime sidecar, which
// owns model loading, quantization, LoRA injection, tokenization, training,
// and generation. The drivers only ever talk to it through this client.
package runtime

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mindfulware/companion/pkg/config"
	"github.com/mindfulware/companion/pkg/llm"
)

// Generation can be slow, especially on CPU, but it does finish. Training
// jobs run for hours and are only bounded by their context.
const generateTimeout = 5 * time.Minute

// Client talks to the model runtime.
type Client struct {
	baseURL string

	httpClient   *http.Client // request/response calls
	streamClient *http.Client // long-lived NDJSON streams
}

// NewClient creates a Client for the runtime at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: generateTimeout},
		streamClient: &http.Client{},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := config.Token(); token != "" {
		// Forwarded by the runtime to the hub when pulling gated models.
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := llm.StatusError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, &apiError); err != nil {
		// Use the raw body as the message if the payload isn't JSON.
		apiError.ErrorMessage = string(body)
	}

	return apiError
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	req, err := c.newRequest(ctx, method, path, reqData)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("runtime request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read runtime response: %w", err)
	}

	if err := checkError(resp, body); err != nil {
		return err
	}

	if respData != nil {
		if err := json.Unmarshal(body, respData); err != nil {
			return fmt.Errorf("could not decode runtime response: %w", err)
		}
	}

	return nil
}

// Health checks that the runtime is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// Device reports the compute device the runtime will use.
func (c *Client) Device(ctx context.Context) (llm.DeviceInfo, error) {
	var info llm.DeviceInfo
	if err := c.do(ctx, http.MethodGet, "/api/device", nil, &info); err != nil {
		return llm.DeviceInfo{}, err
	}
	return info, nil
}

// Generate performs a single non-streaming completion.
func (c *Client) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	streaming := false
	req.Stream = &streaming

	var resp llm.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/generate", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// TrainProgressFunc receives each progress chunk of a streamed training job.
// Returning an error aborts the stream.
type TrainProgressFunc func(llm.TrainProgress) error

// Train submits a fine-tune job and streams NDJSON progress chunks to fn
// until the runtime reports the job done or the context is cancelled.
func (c *Client) Train(ctx context.Context, req *llm.TrainRequest, fn TrainProgressFunc) error {
	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/train", req)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("runtime request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return checkError(resp, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	// Progress lines are small, but error chunks can carry long traces.
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var errResp llm.ErrorResponse
		if err := json.Unmarshal(line, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("training failed: %s", errResp.Error)
		}

		var progress llm.TrainProgress
		if err := json.Unmarshal(line, &progress); err != nil {
			return fmt.Errorf("could not parse progress chunk: %w", err)
		}

		if err := fn(progress); err != nil {
			return err
		}

		if progress.Done {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading training stream: %w", err)
	}

	return fmt.Errorf("training stream ended without a final chunk")
}
