package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranjeet229/KnowledgeScout/internal/auth"
	"github.com/ranjeet229/KnowledgeScout/internal/cache"
	"github.com/ranjeet229/KnowledgeScout/internal/config"
	"github.com/ranjeet229/KnowledgeScout/internal/ingest"
	"github.com/ranjeet229/KnowledgeScout/internal/query"
	"github.com/ranjeet229/KnowledgeScout/internal/search"
	"github.com/ranjeet229/KnowledgeScout/internal/stats"
	"github.com/ranjeet229/KnowledgeScout/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, auth.InitSchema(st.DB()))
	require.NoError(t, cache.InitSchema(st.DB()))
	require.NoError(t, stats.InitSchema(st.DB()))

	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Storage.UploadsDir = t.TempDir()

	local := cache.NewLocal(16, time.Minute)
	persisted := cache.NewPersisted(st.DB())
	tracker := stats.New(st.DB(), local)
	authSvc := auth.NewService(auth.NewUserStore(st.DB()), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	ingestSvc := ingest.NewService(st, tracker, cfg.Storage.UploadsDir, cfg.Ingest.MaxUploadBytes(), nil)
	engine := search.New(st, nil)
	querySvc := query.New(engine, local, persisted, cfg.Cache.TTL, nil)

	srv := New(cfg, authSvc, ingestSvc, st, querySvc, tracker, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON performs a JSON request and decodes the response body into out
// (when out is non-nil). token may be empty for anonymous requests.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func registerUser(t *testing.T, ts *httptest.Server, username string) (token, userID string) {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	status := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "hunter2",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func uploadDoc(t *testing.T, ts *httptest.Server, token, filename, content string, private bool) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("isPrivate", fmt.Sprintf("%t", private)))
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/docs", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegisterLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	token, _ := registerUser(t, ts, "alice")
	require.NotEmpty(t, token)

	// Duplicate registration is rejected.
	status := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "hunter2",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var loginResp struct {
		Token string `json:"token"`
	}
	status = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "hunter2",
	}, &loginResp)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, loginResp.Token)

	status = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUploadRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/docs", bytes.NewReader(nil))
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPrivateDocumentAccess(t *testing.T) {
	ts := newTestServer(t)
	ownerToken, _ := registerUser(t, ts, "owner")
	otherToken, _ := registerUser(t, ts, "other")

	uploaded := uploadDoc(t, ts, ownerToken, "secret.txt", "classified content", true)
	docID := uploaded["id"].(string)
	shareToken := uploaded["shareToken"].(string)
	require.NotEmpty(t, shareToken)

	// Another authenticated user is denied.
	status := doJSON(t, ts, http.MethodGet, "/api/docs/"+docID, otherToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Anonymous is denied too.
	status = doJSON(t, ts, http.MethodGet, "/api/docs/"+docID, "", nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// The share token opens the document but the response never echoes
	// the secret back to a non-owner.
	var viaToken map[string]any
	status = doJSON(t, ts, http.MethodGet, "/api/docs/"+docID+"?shareToken="+shareToken, otherToken, nil, &viaToken)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "classified content", viaToken["content"])
	_, present := viaToken["shareToken"]
	assert.False(t, present)

	// The owner sees the token.
	var asOwner map[string]any
	status = doJSON(t, ts, http.MethodGet, "/api/docs/"+docID, ownerToken, nil, &asOwner)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, shareToken, asOwner["shareToken"])
}

func TestGetDocNotFound(t *testing.T) {
	ts := newTestServer(t)

	status := doJSON(t, ts, http.MethodGet, "/api/docs/absent", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListDocsVisibility(t *testing.T) {
	ts := newTestServer(t)
	ownerToken, _ := registerUser(t, ts, "owner")
	otherToken, _ := registerUser(t, ts, "other")

	uploadDoc(t, ts, ownerToken, "pub.txt", "public content", false)
	uploadDoc(t, ts, ownerToken, "priv.txt", "private content", true)

	var asOwner struct {
		Documents []map[string]any `json:"documents"`
		Total     int64            `json:"total"`
	}
	status := doJSON(t, ts, http.MethodGet, "/api/docs", ownerToken, nil, &asOwner)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, asOwner.Total)
	for _, d := range asOwner.Documents {
		assert.Equal(t, true, d["isOwner"])
	}

	var asOther struct {
		Documents []map[string]any `json:"documents"`
		Total     int64            `json:"total"`
	}
	status = doJSON(t, ts, http.MethodGet, "/api/docs", otherToken, nil, &asOther)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, asOther.Total)
	require.Len(t, asOther.Documents, 1)
	assert.Equal(t, "pub.txt", asOther.Documents[0]["filename"])
	assert.Equal(t, false, asOther.Documents[0]["isOwner"])
}

func TestListDocsBadParams(t *testing.T) {
	ts := newTestServer(t)

	status := doJSON(t, ts, http.MethodGet, "/api/docs?limit=abc", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = doJSON(t, ts, http.MethodGet, "/api/docs?offset=-1", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAskCaching(t *testing.T) {
	ts := newTestServer(t)
	token, _ := registerUser(t, ts, "alice")
	uploadDoc(t, ts, token, "doc.txt", "alpha beta gamma", false)

	var first struct {
		Answer     string           `json:"answer"`
		References []map[string]any `json:"references"`
		Cached     bool             `json:"cached"`
	}
	status := doJSON(t, ts, http.MethodPost, "/api/ask", "", map[string]any{"query": "alpha"}, &first)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, first.Cached)
	require.Len(t, first.References, 1)
	assert.Contains(t, first.Answer, "Found 1 relevant reference(s)")

	var second struct {
		Cached bool `json:"cached"`
	}
	status = doJSON(t, ts, http.MethodPost, "/api/ask", "", map[string]any{"query": "alpha"}, &second)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, second.Cached)
}

func TestAskEmptyQuery(t *testing.T) {
	ts := newTestServer(t)

	status := doJSON(t, ts, http.MethodPost, "/api/ask", "", map[string]any{"query": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAskNoMatchesReturnsEmptyReferences(t *testing.T) {
	ts := newTestServer(t)

	var resp struct {
		Answer     string           `json:"answer"`
		References []map[string]any `json:"references"`
	}
	status := doJSON(t, ts, http.MethodPost, "/api/ask", "", map[string]any{"query": "absent"}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, resp.References)
	assert.Empty(t, resp.References)
	assert.Contains(t, resp.Answer, "No relevant documents found")
}

func TestRebuildRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	status := doJSON(t, ts, http.MethodPost, "/api/index/rebuild", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRebuildAndStats(t *testing.T) {
	ts := newTestServer(t)
	token, _ := registerUser(t, ts, "alice")
	uploadDoc(t, ts, token, "doc.txt", "alpha", false)

	var rebuild struct {
		Message string `json:"message"`
		Stats   struct {
			TotalDocuments int64 `json:"totalDocuments"`
			IndexVersion   int64 `json:"indexVersion"`
		} `json:"stats"`
	}
	status := doJSON(t, ts, http.MethodPost, "/api/index/rebuild", token, nil, &rebuild)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Index rebuilt successfully", rebuild.Message)
	assert.EqualValues(t, 1, rebuild.Stats.TotalDocuments)
	assert.EqualValues(t, 2, rebuild.Stats.IndexVersion)

	var current struct {
		TotalDocuments int64 `json:"totalDocuments"`
		IndexVersion   int64 `json:"indexVersion"`
	}
	status = doJSON(t, ts, http.MethodGet, "/api/index/stats", "", nil, &current)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, current.TotalDocuments)
	assert.EqualValues(t, 2, current.IndexVersion)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	var resp struct {
		Status string `json:"status"`
	}
	status := doJSON(t, ts, http.MethodGet, "/api/health", "", nil, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", resp.Status)
}

func TestInvalidTokenIsAnonymous(t *testing.T) {
	ts := newTestServer(t)
	token, _ := registerUser(t, ts, "owner")
	uploadDoc(t, ts, token, "priv.txt", "private", true)

	// A garbage bearer token degrades to anonymous rather than failing
	// the request outright.
	var resp struct {
		Total int64 `json:"total"`
	}
	status := doJSON(t, ts, http.MethodGet, "/api/docs", "garbage-token", nil, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, resp.Total)
}
