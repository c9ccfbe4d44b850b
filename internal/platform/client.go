package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/qanda-hq/qanda-bot/internal/cards"
)

const defaultTokenURL = "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"

// ClientConfig holds connector client settings.
type ClientConfig struct {
	// ServiceURL is the connector base URL for the tenant.
	ServiceURL string

	// AppID and AppSecret are the bot's client credentials.
	AppID     string
	AppSecret string

	// TokenURL overrides the OAuth token endpoint. Empty uses the
	// public endpoint.
	TokenURL string
}

// Client implements Connector against the connector REST API
type Client struct {
	serviceURL string
	tokens     *tokenProvider
	client     *http.Client
}

// NewClient creates a new connector client
func NewClient(cfg ClientConfig) *Client {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &Client{
		serviceURL: strings.TrimRight(cfg.ServiceURL, "/"),
		tokens:     newTokenProvider(cfg, httpClient),
		client:     httpClient,
	}
}

type activity struct {
	Type        string           `json:"type"`
	Attachments []map[string]any `json:"attachments,omitempty"`
}

// SendCard posts a card attachment to the conversation
func (c *Client) SendCard(ctx context.Context, conversationID string, card *cards.RenderedCard) (string, error) {
	act := activity{
		Type: "message",
		Attachments: []map[string]any{{
			"contentType": card.ContentType,
			"content":     card.Content,
		}},
	}

	body, err := json.Marshal(act)
	if err != nil {
		return "", &UpstreamError{Op: "send", Err: err}
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities",
		c.serviceURL, url.PathEscape(conversationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &UpstreamError{Op: "send", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &UpstreamError{Op: "send", StatusCode: resp.StatusCode}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &UpstreamError{Op: "send", Err: fmt.Errorf("decode response: %w", err)}
	}

	return result.ID, nil
}

// DeleteActivity removes a previously sent activity
func (c *Client) DeleteActivity(ctx context.Context, conversationID, activityID string) error {
	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities/%s",
		c.serviceURL, url.PathEscape(conversationID), url.PathEscape(activityID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, http.NoBody)
	if err != nil {
		return &UpstreamError{Op: "delete", Err: err}
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted &&
		resp.StatusCode != http.StatusNoContent {
		return &UpstreamError{Op: "delete", StatusCode: resp.StatusCode}
	}

	return nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Op: "request", Err: err}
	}
	return resp, nil
}

// tokenProvider fetches and caches a client-credentials token.
type tokenProvider struct {
	tokenURL string
	appID    string
	secret   string
	client   *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func newTokenProvider(cfg ClientConfig, client *http.Client) *tokenProvider {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	return &tokenProvider{
		tokenURL: tokenURL,
		appID:    cfg.AppID,
		secret:   cfg.AppSecret,
		client:   client,
	}
}

// Token returns a cached token, refreshing it shortly before expiry.
func (p *tokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expires.Add(-time.Minute)) {
		return p.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.appID},
		"client_secret": {p.secret},
		"scope":         {"https://api.botframework.com/.default"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", &UpstreamError{Op: "token", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &UpstreamError{Op: "token", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{Op: "token", StatusCode: resp.StatusCode}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &UpstreamError{Op: "token", Err: fmt.Errorf("decode response: %w", err)}
	}

	p.token = result.AccessToken
	p.expires = time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)
	return p.token, nil
}
