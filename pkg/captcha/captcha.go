package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

// Verifier checks a client proof for the named action.
type Verifier interface {
	Verify(ctx context.Context, token, action, remoteIP string) error
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token, action, remoteIP string) error

func (f VerifierFunc) Verify(ctx context.Context, token, action, remoteIP string) error {
	return f(ctx, token, action, remoteIP)
}

// siteverify response body.
type verifyResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Client talks to the reCAPTCHA siteverify endpoint.
type Client struct {
	secret    string
	minScore  float64
	verifyURL string
	http      *http.Client
	log       *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecret
	}
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		secret:    cfg.SecretKey,
		minScore:  cfg.MinScore,
		verifyURL: cfg.VerifyURL,
		http:      &http.Client{Timeout: cfg.Timeout},
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("captcha"))
	return c, nil
}

// Verify returns nil when the provider accepts token for action. Transport
// and decoding problems count as a failed verification.
func (c *Client) Verify(ctx context.Context, token, action, remoteIP string) error {
	if strings.TrimSpace(token) == "" {
		return ErrMissingToken
	}

	resp, err := c.siteverify(ctx, token, remoteIP)
	if err != nil {
		c.log.WarnContext(ctx, "recaptcha request failed", logger.Error(err), logger.Action(action))
		return errors.Join(ErrVerificationFailed, ErrUnavailable, err)
	}

	switch {
	case !resp.Success:
		c.log.InfoContext(ctx, "recaptcha rejected",
			logger.Action(action),
			slog.Any("error_codes", resp.ErrorCodes),
		)
		return ErrVerificationFailed
	case resp.Score < c.minScore:
		c.log.InfoContext(ctx, "recaptcha score below threshold",
			logger.Action(action),
			slog.Float64("score", resp.Score),
			slog.Float64("min_score", c.minScore),
		)
		return ErrVerificationFailed
	case resp.Action != action:
		c.log.InfoContext(ctx, "recaptcha action mismatch",
			logger.Action(action),
			slog.String("got_action", resp.Action),
		)
		return ErrVerificationFailed
	}
	return nil
}

func (c *Client) siteverify(ctx context.Context, token, remoteIP string) (*verifyResponse, error) {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	var out verifyResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
