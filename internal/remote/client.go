package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel    = "gemini-2.0-flash"

	// ImagePlaceholder is the token generated documents embed where the
	// caller splices the source image data URI.
	ImagePlaceholder = "{{SOURCE_IMAGE}}"
)

// Client is the HTTP implementation of Service against a generateContent
// style endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a client. Empty endpoint/model fall back to defaults.
func NewClient(endpoint, apiKey, model string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// generateRequest is the API request structure.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

// generateResponse is the API response structure.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// serviceError is a non-2xx response from the inference endpoint.
type serviceError struct {
	status  int
	message string
}

func (e *serviceError) Error() string {
	return fmt.Sprintf("service error (%d): %s", e.status, e.message)
}

// transient reports whether a retry can help: rate limiting and server-side
// failures can, client errors (bad key, malformed request) cannot.
func (e *serviceError) transient() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// retryable reports whether generateWithRetry should try again after err.
// Transport-level failures are assumed transient.
func retryable(err error) bool {
	var se *serviceError
	if errors.As(err, &se) {
		return se.transient()
	}
	return true
}

// generate sends one request and returns the concatenated candidate text.
func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", &serviceError{status: resp.StatusCode, message: apiErr.Error.Status + " - " + apiErr.Error.Message}
		}
		return "", &serviceError{status: resp.StatusCode, message: string(body)}
	}

	var apiResp generateResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	var text string
	for _, cand := range apiResp.Candidates {
		for _, p := range cand.Content.Parts {
			text += p.Text
		}
	}
	return text, nil
}

// generateWithRetry retries transient failures with linear backoff.
// Client errors (4xx other than rate limiting) fail immediately.
func (c *Client) generateWithRetry(ctx context.Context, parts []part, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}
		text, err := c.generate(ctx, parts)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return "", lastErr
}

func imagePart(data []byte, mimeType string) part {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return part{InlineData: &inlineData{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

// GenerateSimulation implements Service.
func (c *Client) GenerateSimulation(ctx context.Context, instruction string, imageBytes []byte, mimeType string) (string, error) {
	prompt := fmt.Sprintf(`You are given an image of a sketch, schematic, or photo. Build a single self-contained HTML document that renders it as an interactive animated simulation.

Requirements:
- One complete HTML document, inline CSS and JavaScript, no external resources.
- Where the source image belongs, embed the exact token %s as the img src.
- Listen for window messages of the form {type: "toggleSimulation", isPlaying: boolean} and start/stop the animation loop accordingly.
- Respond with the HTML document only.

Instruction: %s`, ImagePlaceholder, instruction)

	parts := []part{{Text: prompt}}
	if len(imageBytes) > 0 {
		parts = append(parts, imagePart(imageBytes, mimeType))
	}

	text, err := c.generateWithRetry(ctx, parts, 2)
	if err != nil {
		return "", err
	}
	if doc := ExtractHTML(text); doc != "" {
		return doc, nil
	}
	return text, nil
}

// PatchSimulation implements Service.
func (c *Client) PatchSimulation(ctx context.Context, currentDoc, instruction string) (string, error) {
	prompt := fmt.Sprintf(`Below is the current HTML document of an interactive simulation. Apply this change and return the complete replacement document, nothing else. Keep every placeholder token intact.

Change: %s

Document:
%s`, instruction, currentDoc)

	text, err := c.generateWithRetry(ctx, []part{{Text: prompt}}, 1)
	if err != nil {
		return "", err
	}
	if doc := ExtractHTML(text); doc != "" {
		return doc, nil
	}
	return text, nil
}

// AnalyzeFreeform implements Service.
func (c *Client) AnalyzeFreeform(ctx context.Context, question string, imageBytes, cropBytes []byte) (string, error) {
	parts := []part{{Text: question}}
	if len(imageBytes) > 0 {
		parts = append(parts, imagePart(imageBytes, "image/jpeg"))
	}
	if len(cropBytes) > 0 {
		parts = append(parts, part{Text: "Cropped detail around the point of interest (crosshair marks the exact spot):"})
		parts = append(parts, imagePart(cropBytes, "image/jpeg"))
	}
	return c.generateWithRetry(ctx, parts, 1)
}

// LocateObject implements Service. Malformed structured output decodes to a
// not-found result, not an error.
func (c *Client) LocateObject(ctx context.Context, query string, imageBytes []byte) (LocateResult, error) {
	prompt := fmt.Sprintf(`Find the object described below in the image. Respond with JSON only:
{"found": boolean, "x": integer percent 0-100 from the left edge, "y": integer percent 0-100 from the top edge, "label": "short name of what was found"}
If the object is not present, respond {"found": false, "x": 0, "y": 0, "label": ""}.

Object: %s`, query)

	parts := []part{{Text: prompt}, imagePart(imageBytes, "image/jpeg")}
	text, err := c.generateWithRetry(ctx, parts, 1)
	if err != nil {
		return LocateResult{}, err
	}

	var result LocateResult
	decodeStructured(text, &result)
	return result, nil
}

// AnalyzeBiological implements Service.
func (c *Client) AnalyzeBiological(ctx context.Context, cropBytes, contextBytes []byte) (BioAnalysis, error) {
	prompt := `The first image is a cropped detail; the crosshair marks the exact point of interest. Decide whether that point shows a biological entity (plant, animal, fungus, organ, cell structure). Respond with JSON only:
{"isBiological": boolean, "commonName": string, "scientificName": string, "confidence": integer 0-100, "isDangerous": boolean, "description": one sentence}`

	parts := []part{{Text: prompt}, imagePart(cropBytes, "image/jpeg")}
	if len(contextBytes) > 0 {
		parts = append(parts, part{Text: "Full image for context:"})
		parts = append(parts, imagePart(contextBytes, "image/jpeg"))
	}

	text, err := c.generateWithRetry(ctx, parts, 1)
	if err != nil {
		return BioAnalysis{}, err
	}

	var result BioAnalysis
	decodeStructured(text, &result)
	return result, nil
}

// AnalyzeTechnical implements Service.
func (c *Client) AnalyzeTechnical(ctx context.Context, cropBytes, contextBytes []byte) (TechAnalysis, error) {
	prompt := `The first image is a cropped detail; the crosshair marks the exact point of interest. Decide whether that point shows a technical component (mechanical part, electronic component, structural element, control). Respond with JSON only:
{"isTechnical": boolean, "componentName": string, "parentSystem": string, "confidence": integer 0-100, "function": one sentence}`

	parts := []part{{Text: prompt}, imagePart(cropBytes, "image/jpeg")}
	if len(contextBytes) > 0 {
		parts = append(parts, part{Text: "Full image for context:"})
		parts = append(parts, imagePart(contextBytes, "image/jpeg"))
	}

	text, err := c.generateWithRetry(ctx, parts, 1)
	if err != nil {
		return TechAnalysis{}, err
	}

	var result TechAnalysis
	decodeStructured(text, &result)
	return result, nil
}
