package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

/*
 * Gemini REST client.
 *
 * Implements Generator (models/{model}:generateContent) and FileStore
 * (resumable upload to /upload/v1beta/files, DELETE /v1beta/{name}).
 * Uploaded files may report state PROCESSING; UploadFile polls until ACTIVE
 * or the context ends. Every non-2xx response becomes *APIError so Classify
 * can separate throttling from other failures.
 */

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.0-flash"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 8 << 20

	defaultPollInterval = 500 * time.Millisecond
	maxPollAttempts     = 40
)

// GeminiConfig configures a GeminiClient.
type GeminiConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	HTTPClient   *http.Client
	PollInterval time.Duration
}

// GeminiClient talks to the Gemini generative language API.
type GeminiClient struct {
	baseURL      string
	apiKey       string
	model        string
	http         *http.Client
	pollInterval time.Duration
}

// NewGeminiClient validates cfg and returns a client. APIKey is required.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required (set PK_LLM_API_KEY environment variable)")
	}
	c := &GeminiClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		http:         cfg.HTTPClient,
		pollInterval: cfg.PollInterval,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 90 * time.Second}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	return c, nil
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
	FileData   *geminiFileData   `json:"file_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiFileData struct {
	MIMEType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []geminiContent `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	State    string `json:"state"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateText sends the prompt (document part first, when present) and
// concatenates the text parts of the first candidate.
func (c *GeminiClient) GenerateText(ctx context.Context, req Request) (string, error) {
	var parts []geminiPart
	if doc := req.Document; doc != nil {
		switch {
		case len(doc.Data) > 0:
			parts = append(parts, geminiPart{InlineData: &geminiInlineData{
				MIMEType: doc.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(doc.Data),
			}})
		case doc.URI != "":
			parts = append(parts, geminiPart{FileData: &geminiFileData{MIMEType: doc.MIMEType, FileURI: doc.URI}})
		}
	}
	parts = append(parts, geminiPart{Text: req.Prompt})

	body, err := json.Marshal(generateContentRequest{Contents: []geminiContent{{Role: "user", Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, _, err := c.do(httpReq)
	if err != nil {
		return "", err
	}

	var resp generateContentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		msg := "no candidates in response"
		if resp.PromptFeedback.BlockReason != "" {
			msg += " (blocked: " + resp.PromptFeedback.BlockReason + ")"
		}
		return "", &APIError{StatusCode: http.StatusOK, Message: msg}
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// UploadFile stores data in the transient file store using the resumable protocol.
func (c *GeminiClient) UploadFile(ctx context.Context, data []byte, mimeType, displayName string) (File, error) {
	meta, err := json.Marshal(map[string]any{"file": map[string]string{"display_name": displayName}})
	if err != nil {
		return File{}, fmt.Errorf("failed to encode upload metadata: %w", err)
	}

	start, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/v1beta/files", bytes.NewReader(meta))
	if err != nil {
		return File{}, fmt.Errorf("failed to create request: %w", err)
	}
	start.Header.Set("Content-Type", "application/json")
	start.Header.Set("X-Goog-Upload-Protocol", "resumable")
	start.Header.Set("X-Goog-Upload-Command", "start")
	start.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(data)))
	start.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)

	_, header, err := c.do(start)
	if err != nil {
		return File{}, err
	}
	uploadURL := header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return File{}, &APIError{StatusCode: http.StatusOK, Message: "upload session missing X-Goog-Upload-URL"}
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return File{}, fmt.Errorf("failed to create request: %w", err)
	}
	put.Header.Set("X-Goog-Upload-Offset", "0")
	put.Header.Set("X-Goog-Upload-Command", "upload, finalize")

	body, _, err := c.do(put)
	if err != nil {
		return File{}, err
	}

	var uploaded struct {
		File geminiFile `json:"file"`
	}
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return File{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploaded.File.Name == "" || uploaded.File.URI == "" {
		return File{}, &APIError{StatusCode: http.StatusOK, Message: "upload response missing file name or uri"}
	}

	f := File{Name: uploaded.File.Name, URI: uploaded.File.URI, MIMEType: uploaded.File.MIMEType}
	if f.MIMEType == "" {
		f.MIMEType = mimeType
	}
	if uploaded.File.State == "PROCESSING" {
		if err := c.waitActive(ctx, f.Name); err != nil {
			// Caller never sees the handle; release it here.
			_ = c.DeleteFile(context.WithoutCancel(ctx), f.Name)
			return File{}, err
		}
	}
	return f, nil
}

// waitActive polls file metadata until the service finishes processing.
func (c *GeminiClient) waitActive(ctx context.Context, name string) error {
	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1beta/"+name, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		body, _, err := c.do(req)
		if err != nil {
			return err
		}
		var f geminiFile
		if err := json.Unmarshal(body, &f); err != nil {
			return fmt.Errorf("failed to decode file state: %w", err)
		}
		switch f.State {
		case "ACTIVE":
			return nil
		case "FAILED":
			return &APIError{StatusCode: http.StatusOK, Message: "file processing failed for " + name}
		}
	}
	return &APIError{StatusCode: http.StatusOK, Message: "file still processing: " + name}
}

// DeleteFile removes an uploaded file.
func (c *GeminiClient) DeleteFile(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1beta/"+name, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	_, _, err = c.do(req)
	return err
}

// do sends an authenticated request and maps non-2xx responses to *APIError.
func (c *GeminiClient) do(req *http.Request) ([]byte, http.Header, error) {
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		var eb geminiErrorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error.Message != "" {
			apiErr.Status = eb.Error.Status
			apiErr.Message = eb.Error.Message
		}
		return nil, nil, apiErr
	}
	return body, resp.Header, nil
}
