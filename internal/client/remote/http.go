package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/daybookapp/daybook/internal/client/models"
	"github.com/daybookapp/daybook/internal/common"
)

// HTTPClient implements Client over the backend's JSON API. The access token
// obtained at login is attached as a bearer token to every entry call. Safe
// for concurrent use: Login runs on the UI goroutine while the engine's
// drain loop issues entry calls.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu          sync.RWMutex
	accessToken string
}

// NewHTTPClient constructs a client for the server at baseURL
// (e.g. "http://127.0.0.1:8080").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// apiResponse is the server's uniform response envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
}

type upsertResponse struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type fetchAllResponse struct {
	Entries []*models.JournalEntry `json:"entries"`
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", registerRequest{Email: email, Password: password})
	return err
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", registerRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	var resp loginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	c.setToken(resp.AccessToken)
	return resp.UserID, nil
}

func (c *HTTPClient) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/v1/health", nil)
	return err
}

func (c *HTTPClient) Upsert(ctx context.Context, entry *models.JournalEntry) (*UpsertResult, error) {
	data, err := c.do(ctx, http.MethodPut, "/api/v1/entries/"+entry.ID, entry)
	if err != nil {
		return nil, err
	}
	var resp upsertResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode upsert response: %w", err)
	}
	return &UpsertResult{ID: resp.ID, UpdatedAt: resp.UpdatedAt}, nil
}

func (c *HTTPClient) FetchAll(ctx context.Context) ([]*models.JournalEntry, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/v1/entries", nil)
	if err != nil {
		return nil, err
	}
	var resp fetchAllResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode entries response: %w", err)
	}
	return resp.Entries, nil
}

// do performs one API call and maps transport and status failures onto the
// sentinel error taxonomy.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	var envelope apiResponse
	if len(raw) > 0 {
		// A body that is not the standard envelope (e.g. a proxy error
		// page) is treated by status code alone.
		_ = json.Unmarshal(raw, &envelope)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return envelope.Data, nil
	}

	return nil, mapStatus(resp.StatusCode, envelope.Error)
}

func mapStatus(code int, msg string) error {
	if msg == "" {
		msg = http.StatusText(code)
	}
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, msg)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, msg)
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, msg)
	case code >= 400:
		return fmt.Errorf("%w: %s", common.ErrRejected, msg)
	default:
		return fmt.Errorf("%w: unexpected status %d", common.ErrInternal, code)
	}
}
