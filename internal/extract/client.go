package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Client calls the multimodal generateContent endpoint used for menu
// photo extraction and session-title generation.  A Client with an
// empty API key is disabled: extraction reports a service error and
// title generation falls straight through to the local fallback list.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewClient builds a Client.  baseURL should point at the provider's
// API root (e.g. https://generativelanguage.googleapis.com/v1beta);
// model names the multimodal model to invoke.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

// Enabled reports whether the client is configured with an API key.
func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

const extractPrompt = `Extract every menu item from the input. Respond with only a JSON array of objects with keys "name", "description" and "price" (price as a plain number, 0 if unknown). No prose, no code fences. Menu text may be in Korean.`

// part mirrors one entry of the generateContent request's parts array.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64-encoded bytes
}

// ExtractFromText asks the provider to structure a pasted block of
// free-form menu text.  The raw reply text is returned for defensive
// parsing by ParseCandidates.
func (c *Client) ExtractFromText(ctx context.Context, text string) (string, error) {
	return c.generate(ctx, []part{{Text: extractPrompt}, {Text: text}})
}

// ExtractFromImage asks the provider to read a menu photo.  data must
// be the base64-encoded image bytes.
func (c *Client) ExtractFromImage(ctx context.Context, mimeType, data string) (string, error) {
	return c.generate(ctx, []part{
		{Text: extractPrompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: data}},
	})
}

// GenerateTitle asks the provider for a short playful session title for
// the given shop.  On any failure (disabled client, transport error,
// empty reply) a local fallback title is returned instead of an error:
// the title is non-essential and must never block session creation.
func (c *Client) GenerateTitle(ctx context.Context, shopName string) string {
	if !c.Enabled() {
		return FallbackTitle()
	}
	prompt := fmt.Sprintf(`Write one short, playful title (max 30 characters, no quotes) for a group food order from the shop "%s". Reply with the title only.`, shopName)
	text, err := c.generate(ctx, []part{{Text: prompt}})
	if err != nil {
		log.Printf("extract: title generation failed: %v; using fallback", err)
		return FallbackTitle()
	}
	title := firstLine(text)
	if title == "" {
		return FallbackTitle()
	}
	return title
}

// generate performs one generateContent call and returns the first
// candidate's text.  Any transport failure, non-200 status or missing
// candidate is reported as an error for the caller to convert into a
// structured service failure.
func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("extraction provider not configured")
	}
	reqBody, err := json.Marshal(map[string]interface{}{
		"contents": []map[string]interface{}{{"parts": parts}},
	})
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("provider call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	text := gjson.GetBytes(body, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return "", fmt.Errorf("provider returned no text candidate")
	}
	return text, nil
}

func firstLine(s string) string {
	for _, line := range bytes.Split([]byte(s), []byte{'\n'}) {
		if t := string(bytes.TrimSpace(line)); t != "" {
			return t
		}
	}
	return ""
}
