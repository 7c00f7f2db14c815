// Package assistant provides the AI compliance assistant backed by the
// Gemini API. The assistant is optional; without an API key every call
// reports ErrDisabled and the rest of the platform is unaffected.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("assistant is not configured")
	// ErrUnavailable is returned when the upstream API fails. Callers
	// degrade to a non-AI response rather than failing their request.
	ErrUnavailable = errors.New("assistant is temporarily unavailable")
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client calls the Gemini generateContent API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates an assistant client. An empty apiKey produces a client
// whose methods all return ErrDisabled.
func NewClient(apiKey, model string, logger zerolog.Logger) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.With().Str("component", "assistant").Logger(),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

const systemPreamble = `You are a compliance assistant for ISO 27001:2022 certification preparation.
Answer concisely and practically. When the user writes in Korean, answer in Korean.`

// Chat answers a free-form compliance question, optionally grounded in the
// organization's current compliance summary.
func (c *Client) Chat(ctx context.Context, question, orgContext string) (string, error) {
	prompt := systemPreamble
	if orgContext != "" {
		prompt += "\n\nOrganization context:\n" + orgContext
	}
	prompt += "\n\nQuestion: " + question
	return c.generate(ctx, prompt)
}

// AnalyzeDocument assesses how well a document serves as evidence for a
// control, from its metadata and an optional text excerpt.
func (c *Client) AnalyzeDocument(ctx context.Context, docName, controlCode, controlName, excerpt string) (string, error) {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\nAssess the following document as audit evidence")
	if controlCode != "" {
		fmt.Fprintf(&b, " for control %s (%s)", controlCode, controlName)
	}
	fmt.Fprintf(&b, ".\nDocument name: %s\n", docName)
	if excerpt != "" {
		b.WriteString("Document excerpt:\n" + excerpt + "\n")
	}
	b.WriteString("\nList what the document covers, what is missing, and concrete improvements.")
	return c.generate(ctx, b.String())
}

// SuggestTasks proposes remediation tasks for a control, as a plain list
// the caller presents to the user.
func (c *Client) SuggestTasks(ctx context.Context, controlCode, controlName, controlDescription, notes string) (string, error) {
	var b strings.Builder
	b.WriteString(systemPreamble)
	fmt.Fprintf(&b, "\n\nSuggest 3 to 5 concrete implementation tasks for ISO 27001 control %s (%s).\n", controlCode, controlName)
	if controlDescription != "" {
		b.WriteString("Control description: " + controlDescription + "\n")
	}
	if notes != "" {
		b.WriteString("Current notes from the organization: " + notes + "\n")
	}
	b.WriteString("Return each task as a single line starting with a dash.")
	return c.generate(ctx, b.String())
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
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// generate performs one generateContent call and extracts the first text
// candidate. Upstream failures are logged and collapsed into
// ErrUnavailable.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("assistant request failed")
		return "", ErrUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.logger.Warn().Err(err).Msg("assistant response read failed")
		return "", ErrUnavailable
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("assistant returned non-200")
		return "", ErrUnavailable
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.Warn().Err(err).Msg("assistant response decode failed")
		return "", ErrUnavailable
	}
	if out.Error != nil {
		c.logger.Warn().Int("code", out.Error.Code).Str("message", out.Error.Message).Msg("assistant API error")
		return "", ErrUnavailable
	}

	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				return text, nil
			}
		}
	}

	c.logger.Warn().Msg("assistant returned no text candidates")
	return "", ErrUnavailable
}
