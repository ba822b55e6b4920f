package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daybookapp/daybook/internal/common"
	"github.com/daybookapp/daybook/internal/server/auth"
	"github.com/daybookapp/daybook/internal/server/models"
	"github.com/daybookapp/daybook/internal/server/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type fakeUserService struct {
	registerErr error
	loginResult *users.LoginResult
	loginErr    error

	registered []string
}

func (f *fakeUserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, email)
	return &models.User{ID: "u1", Email: email}, nil
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*users.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResult, nil
}

type fakeEntryService struct {
	upserts []*models.Entry
	stored  []*models.Entry

	upsertErr error
	listErr   error
}

func (f *fakeEntryService) Upsert(ctx context.Context, userID string, entry *models.Entry) (*models.Entry, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	entry.UserID = userID
	f.upserts = append(f.upserts, entry)
	stored := *entry
	if stored.ID == "local-abc" {
		stored.ID = "perm-1"
	}
	return &stored, nil
}

func (f *fakeEntryService) List(ctx context.Context, userID string) ([]*models.Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.stored, nil
}

func newTestServer(t *testing.T, us *fakeUserService, es *fakeEntryService) *httptest.Server {
	t.Helper()
	router := NewRouter(NewAuthHandler(us), NewEntryHandler(es), testSecret)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func validToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, testSecret, time.Minute)
	require.NoError(t, err)
	return token
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		serviceErr error
		wantStatus int
	}{
		{"success", map[string]string{"email": "a@b.com", "password": "password123"}, nil, http.StatusCreated},
		{"duplicate email", map[string]string{"email": "a@b.com", "password": "password123"}, common.ErrConflict, http.StatusConflict},
		{"weak password", map[string]string{"email": "a@b.com", "password": "short"}, fmt.Errorf("%w: too short", common.ErrRejected), http.StatusBadRequest},
		{"invalid email", map[string]string{"email": "not-an-email", "password": "password123"}, nil, http.StatusBadRequest},
		{"missing fields", map[string]string{}, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			us := &fakeUserService{registerErr: tt.serviceErr}
			srv := newTestServer(t, us, &fakeEntryService{})

			resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/register", "", tt.body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantStatus < 400, envelope.Success)
		})
	}
}

func TestLogin_ReturnsTokenAndUserID(t *testing.T) {
	us := &fakeUserService{loginResult: &users.LoginResult{UserID: "u1", AccessToken: "tok"}}
	srv := newTestServer(t, us, &fakeEntryService{})

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "",
		map[string]string{"email": "a@b.com", "password": "password123"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result struct {
		AccessToken string `json:"accessToken"`
		UserID      string `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "tok", result.AccessToken)
	assert.Equal(t, "u1", result.UserID)
}

func TestLogin_WrongCredentials(t *testing.T) {
	us := &fakeUserService{loginErr: common.ErrUnauthorized}
	srv := newTestServer(t, us, &fakeEntryService{})

	resp, envelope := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "",
		map[string]string{"email": "a@b.com", "password": "wrong-password"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Error)
}

func TestEntries_RequireAuth(t *testing.T) {
	srv := newTestServer(t, &fakeUserService{}, &fakeEntryService{})

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpsert_MintsPermanentID(t *testing.T) {
	es := &fakeEntryService{}
	srv := newTestServer(t, &fakeUserService{}, es)

	now := time.Now().UTC().Truncate(time.Second)
	body := map[string]any{
		"id":        "local-abc",
		"date":      "2024-01-15",
		"type":      "general",
		"blocks":    []map[string]any{{"id": "b1", "type": "paragraph", "text": "hi"}},
		"createdAt": now,
		"updatedAt": now,
	}

	resp, envelope := doJSON(t, http.MethodPut, srv.URL+"/api/v1/entries/local-abc", validToken(t, "u1"), body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result struct {
		ID        string    `json:"id"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "perm-1", result.ID)
	assert.True(t, result.UpdatedAt.Equal(now))

	require.Len(t, es.upserts, 1)
	assert.Equal(t, "u1", es.upserts[0].UserID)
	assert.Equal(t, "2024-01-15", es.upserts[0].Date)
}

func TestUpsert_PathAndBodyIDMismatch(t *testing.T) {
	srv := newTestServer(t, &fakeUserService{}, &fakeEntryService{})

	body := map[string]any{"id": "other", "date": "2024-01-15", "type": "general"}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/entries/local-abc", validToken(t, "u1"), body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpsert_InvalidDate(t *testing.T) {
	srv := newTestServer(t, &fakeUserService{}, &fakeEntryService{})

	body := map[string]any{"id": "local-abc", "date": "15/01/2024", "type": "general"}
	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/api/v1/entries/local-abc", validToken(t, "u1"), body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestList_ReturnsEntriesWithWireFields(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	es := &fakeEntryService{stored: []*models.Entry{
		{
			ID:        "e1",
			UserID:    "u1",
			Date:      "2024-01-15",
			Type:      "general",
			Blocks:    json.RawMessage(`[{"id":"b1","type":"paragraph","text":"hi"}]`),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}}
	srv := newTestServer(t, &fakeUserService{}, es)

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries", validToken(t, "u1"), nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, envelope.Success)

	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var result struct {
		Entries []struct {
			ID     string `json:"id"`
			Date   string `json:"date"`
			Type   string `json:"type"`
			Blocks []struct {
				ID   string `json:"id"`
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"blocks"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "e1", result.Entries[0].ID)
	assert.Equal(t, "2024-01-15", result.Entries[0].Date)
	require.Len(t, result.Entries[0].Blocks, 1)
	assert.Equal(t, "hi", result.Entries[0].Blocks[0].Text)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeUserService{}, &fakeEntryService{})

	resp, envelope := doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)
}
