package llm

import (
	"context"
	"strings"
	"time"

	"prflow/internal/errcodes"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	DefaultURL     = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second

	summarySystemPrompt = "You review pull requests. Write a concise Markdown summary of the " +
		"change for reviewers: what changed, why it matters and what to check carefully."
	summaryTemperature = 0.3

	rewordSystemPrompt = "You name pull requests. Read the diff and answer with one JSON object " +
		`{"pr_title": "...", "description": "..."}` + " and nothing else. The title is a short " +
		"imperative sentence in English. The description explains the change in a few sentences."
	rewordTemperature = 0.5
	rewordMaxTokens   = 500
)

var ErrEmptyResponse = errors.New("empty completion")

// Client talks to an OpenAI compatible chat completions endpoint.
type Client struct {
	rc    *resty.Client
	model string
}

type ClientOptions struct {
	// URL is the API base, /chat/completions is appended. Defaults to
	// DefaultURL.
	URL   string
	Key   string
	Model string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

func New(o *ClientOptions) (*Client, error) {
	if o.Key == "" {
		return nil, errors.Wrap(errcodes.ErrConfig, "llm.key is not configured")
	}

	url := o.URL
	if url == "" {
		url = DefaultURL
	}
	model := o.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(url, "/")).
		SetAuthToken(o.Key).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Client{rc: rc, model: model}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Complete sends one chat completion and returns the trimmed answer. Every
// failure is reported as errcodes.ErrUnavailable.
func (c *Client) Complete(ctx context.Context, req *Request) (string, error) {
	body := &completionRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
	}

	log.WithFields(log.Fields{
		"model":  c.model,
		"length": len(req.Prompt),
	}).Debug("llm request")

	res, err := c.rc.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", errors.Wrapf(errcodes.ErrUnavailable, "llm request failed: %v", err)
	}

	log.WithField("status", res.StatusCode()).Debug("llm response")

	parsed := gjson.ParseBytes(res.Body())
	if res.IsError() {
		msg := parsed.Get("error.message").String()
		if msg == "" {
			msg = res.Status()
		}
		return "", errors.Wrapf(errcodes.ErrUnavailable, "llm returned HTTP %d: %s", res.StatusCode(), msg)
	}

	content := strings.TrimSpace(parsed.Get("choices.0.message.content").String())
	if content == "" {
		return "", errors.Wrap(errcodes.ErrUnavailable, ErrEmptyResponse.Error())
	}

	return content, nil
}

// Reword asks for a title and description of prompt as a JSON object.
func (c *Client) Reword(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, &Request{
		System:      rewordSystemPrompt,
		Prompt:      prompt,
		Temperature: rewordTemperature,
		MaxTokens:   rewordMaxTokens,
	})
}

// Summarize asks for a reviewer oriented summary of prompt.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, &Request{
		System:      summarySystemPrompt,
		Prompt:      prompt,
		Temperature: summaryTemperature,
	})
}
