package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/docstack/docstack/internal/blacklist"
	"github.com/docstack/docstack/internal/config"
	"github.com/docstack/docstack/internal/documents"
	"github.com/docstack/docstack/internal/models"
	"github.com/docstack/docstack/internal/storage"
	"github.com/docstack/docstack/internal/tokens"
	"github.com/docstack/docstack/internal/users"
	"github.com/docstack/docstack/pkg/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type testEnv struct {
	router   *gin.Engine
	cfg      *config.Config
	usersSvc *users.Service
	docsSvc  *documents.Service
	user     *models.User
	token    string
}

// newTestEnv wires the full API surface against in-memory repositories and a
// temp-dir storage backend, with one registered and authenticated user.
func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithBlacklist(t, nil)
}

func newTestEnvWithBlacklist(t *testing.T, revoked *blacklist.Store) *testEnv {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "handlers-test-secret-32-bytes-xxxx"
	cfg.JWT.TTL = time.Hour
	cfg.Auth.BcryptCost = bcrypt.MinCost

	usersSvc := users.NewService(users.NewMemoryRepository(), cfg.Auth.BcryptCost)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	docsSvc := documents.NewService(documents.NewMemoryRepository(), store, 1024*1024, 10)

	u, err := usersSvc.Register(context.Background(), users.RegisterInput{
		FirstName: "Alice", LastName: "Smith",
		Email: "alice@example.com", Password: "secret123",
		Country: "DE", AgreeToTerms: true,
	})
	require.NoError(t, err)
	token, err := tokens.Generate(cfg.JWT.Secret, u, cfg.JWT.TTL)
	require.NoError(t, err)

	auth := middleware.RequireAuth(cfg.JWT.Secret, usersSvc, revoked)
	r := gin.New()
	api := r.Group("/api")
	NewAuthHandler(cfg, usersSvc, revoked).Register(api, auth)
	NewUsersHandler(usersSvc).Register(api)
	NewDocumentsHandler(docsSvc).Register(api, auth)
	NewAnalyticsHandler(docsSvc, usersSvc).Register(api, auth)

	return &testEnv{router: r, cfg: cfg, usersSvc: usersSvc, docsSvc: docsSvc, user: u, token: token}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type uploadFile struct {
	name    string
	mime    string
	content string
}

// upload posts a multipart form to /api/documents/upload.
func (e *testEnv) upload(t *testing.T, token string, fields map[string]string, files ...uploadFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.mime)
		part, err := w.CreatePart(hdr)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// uploadOne seeds a single active document and returns its id.
func (e *testEnv) uploadOne(t *testing.T, f uploadFile) string {
	t.Helper()
	w := e.upload(t, e.token, nil, f)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	body := decodeJSON(t, w)
	docs := body["documents"].([]any)
	require.Len(t, docs, 1)
	return docs[0].(map[string]any)["id"].(string)
}
