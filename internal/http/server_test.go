package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/guthaVamshi/ExpenseTracker/internal/core"
	"github.com/guthaVamshi/ExpenseTracker/internal/log"
	"github.com/guthaVamshi/ExpenseTracker/internal/services"
	"github.com/guthaVamshi/ExpenseTracker/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := storage.NewRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.DefaultConfig())
	srv := NewServer(":0",
		services.NewExpenseService(repo, nil),
		services.NewUserService(repo, bcrypt.MinCost),
		logger)
	t.Cleanup(func() { srv.rateLimiter.Stop() })
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any, username, password string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if username != "" {
		req.SetBasicAuth(username, password)
	}

	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, srv *Server, username, password string) core.User {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/register",
		core.User{Username: username, Password: password}, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user core.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user
}

func TestPublicStatusEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/health"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil, "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "UP", body["status"])
		assert.Equal(t, "Expense Tracker API", body["service"])
	}
}

func TestAPIDocsIsPublic(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api-docs", nil, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/by-month/{yearMonth}")
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct{ method, path string }{
		{http.MethodGet, "/test-auth"},
		{http.MethodGet, "/all"},
		{http.MethodGet, "/by-month/2024-03"},
		{http.MethodPost, "/add"},
		{http.MethodPut, "/updateExpense"},
		{http.MethodDelete, "/delete/1"},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := doJSON(t, srv, tc.method, tc.path, nil, "", "")
			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Unauthorized", body["error"])
			assert.Equal(t, "Authentication required", body["message"])
		})
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	srv := newTestServer(t)

	user := registerUser(t, srv, "alice", "secret123")
	assert.NotZero(t, user.ID)
	assert.Equal(t, "USER", user.Role)
	assert.Empty(t, user.Password)

	rec := doJSON(t, srv, http.MethodGet, "/test-auth", nil, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Authentication successful", rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/test-auth", nil, "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice", "secret123")

	rec := doJSON(t, srv, http.MethodPost, "/register",
		core.User{Username: "alice", Password: "other"}, "", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Username already exists", body["error"])
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/register", core.User{}, "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "username")
	assert.Contains(t, body.Errors, "password")
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice", "secret123")

	// Create
	rec := doJSON(t, srv, http.MethodPost, "/add", map[string]string{
		"expense":       "Lunch",
		"expenseType":   "Food",
		"expenseAmount": "12.50",
		"date":          "2024-03-15",
	}, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created core.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)
	assert.Equal(t, "2024-03-15", created.Date.String())

	// List all
	rec = doJSON(t, srv, http.MethodGet, "/all", nil, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []core.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "Lunch", all[0].Name)

	// List by month
	rec = doJSON(t, srv, http.MethodGet, "/by-month/2024-03", nil, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code)
	var march []core.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &march))
	assert.Len(t, march, 1)

	rec = doJSON(t, srv, http.MethodGet, "/by-month/2024-04", nil, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	// Update
	created.Name = "Dinner"
	rec = doJSON(t, srv, http.MethodPut, "/updateExpense", created, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated core.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Dinner", updated.Name)

	// Delete
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/delete/%d", created.ID), nil, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fmt.Sprintf("Expense with ID %d deleted successfully", created.ID), rec.Body.String())

	rec = doJSON(t, srv, http.MethodGet, "/all", nil, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestExpenseValidationListsAllViolations(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice", "secret123")

	rec := doJSON(t, srv, http.MethodPost, "/add", map[string]string{}, "alice", "secret123")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Expense name is required", body.Errors["expense"])
	assert.Equal(t, "Expense type is required", body.Errors["expenseType"])
	assert.Equal(t, "Expense amount is required", body.Errors["expenseAmount"])
}

func TestByMonthRejectsBadToken(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice", "secret123")

	rec := doJSON(t, srv, http.MethodGet, "/by-month/2024-3", nil, "alice", "secret123")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnershipIsolation(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice", "secret123")
	registerUser(t, srv, "bob", "hunter22")

	rec := doJSON(t, srv, http.MethodPost, "/add", map[string]string{
		"expense":       "Lunch",
		"expenseType":   "Food",
		"expenseAmount": "12.50",
		"date":          "2024-03-15",
	}, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code)

	var created core.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// Bob cannot see Alice's expense
	rec = doJSON(t, srv, http.MethodGet, "/all", nil, "bob", "hunter22")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	// Bob cannot update it
	created.Name = "Hijacked"
	rec = doJSON(t, srv, http.MethodPut, "/updateExpense", created, "bob", "hunter22")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Bob cannot delete it
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/delete/%d", created.ID), nil, "bob", "hunter22")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Alice still sees the original
	rec = doJSON(t, srv, http.MethodGet, "/all", nil, "alice", "secret123")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []core.Expense
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "Lunch", all[0].Name)
}

func TestDeleteInvalidID(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice", "secret123")

	rec := doJSON(t, srv, http.MethodDelete, "/delete/abc", nil, "alice", "secret123")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil, "", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
