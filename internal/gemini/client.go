// Package gemini calls the Gemini REST API for small text tasks: the
// prompt optimizer and recording filename slugs.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aurastream/genmusic/internal/config"
	"github.com/aurastream/genmusic/internal/observability"
	"github.com/aurastream/genmusic/internal/resilience"
)

const optimizeInstruction = "Rewrite the following music description as a rich, concrete " +
	"prompt for a music generation model. Mention genre, instrumentation, mood and tempo " +
	"feel. Reply with the prompt text only.\n\nDescription: %s"

const slugInstruction = "Suggest a short filename (2-4 words, lowercase, hyphen-separated, " +
	"no extension) for a music track described as: %s\nReply with the filename only."

// Client is a minimal generateContent client.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    fmt.Sprintf("https://%s/v1beta", cfg.APIHost),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// generate sends one prompt and returns the first candidate text.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.cfg.TextModel, c.cfg.GeminiAPIKey)

	var text string
	err = resilience.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("generateContent returned status %d: %s", resp.StatusCode, respBody)
		}

		var parsed generateResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("empty response")
		}

		text = strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
		return nil
	}, resilience.DefaultRetryConfig(), resilience.IsRetryableNetworkError)

	if err != nil {
		return "", fmt.Errorf("generateContent: %w", err)
	}
	return text, nil
}

// OptimizePrompt expands a short description into a richer steering
// prompt.
func (c *Client) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, fmt.Sprintf(optimizeInstruction, prompt))
}

// FilenameSlug asks the model for a filename. On any error it falls
// back to a local slug so recording never blocks on the text API.
func (c *Client) FilenameSlug(ctx context.Context, prompt string) string {
	logger := observability.GetLogger()

	text, err := c.generate(ctx, fmt.Sprintf(slugInstruction, prompt))
	if err != nil {
		logger.Debug().Err(err).Msg("Filename suggestion failed, using local slug")
		return Slugify(prompt)
	}

	slug := Slugify(text)
	if slug == "" {
		return Slugify(prompt)
	}
	return slug
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases text and collapses runs of other characters into
// hyphens. The result is capped at 48 characters.
func Slugify(text string) string {
	slug := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if len(slug) > 48 {
		slug = strings.Trim(slug[:48], "-")
	}
	return slug
}
