package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/spendwise/internal/config"
	"github.com/mmynk/spendwise/internal/storage/sqlite"
)

type client struct {
	t       *testing.T
	baseURL string
}

// do sends a JSON request and decodes the JSON response into out when given.
func (c *client) do(method, path, token string, body any, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = strings.NewReader(raw)
		} else {
			payload, err := json.Marshal(body)
			require.NoError(c.t, err)
			reader = bytes.NewReader(payload)
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out), "%s %s", method, path)
	}
	return resp.StatusCode
}

type account struct {
	ID       string
	Username string
	Token    string
}

func (c *client) register(username string) account {
	c.t.Helper()

	var signup map[string]string
	status := c.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, &signup)
	require.Equal(c.t, http.StatusCreated, status)
	require.NotEmpty(c.t, signup["userId"])

	var login map[string]string
	status = c.do(http.MethodPost, "/auth/login", "", map[string]string{
		"identifier": username,
		"password":   "password123",
	}, &login)
	require.Equal(c.t, http.StatusOK, status)
	require.Equal(c.t, signup["userId"], login["userId"])
	require.Equal(c.t, username, login["username"])

	return account{ID: login["userId"], Username: username, Token: login["token"]}
}

type expenseJSON struct {
	ID                 string  `json:"id"`
	Description        string  `json:"description"`
	DisplayDescription string  `json:"displayDescription"`
	Amount             float64 `json:"amount"`
	Category           string  `json:"category"`
	Date               string  `json:"date"`
	UserID             string  `json:"userId"`
	SplitGroupID       *string `json:"splitGroupId"`
	IsSplitCreator     bool    `json:"isSplitCreator"`
	SplitUsers         []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"splitUsers"`
	SplitCreator *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"splitCreator"`
}

func newTestClient(t *testing.T) *client {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "spendwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Config{
		Port:           "0",
		CORSOrigins:    []string{"*"},
		JWTSecret:      "test-secret",
		JWTIssuer:      "spendwise-test",
		JWTTTL:         time.Hour,
		MetricsEnabled: true,
	}
	srv, err := New(cfg, store, nil, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &client{t: t, baseURL: ts.URL}
}

func TestSplitLifecycle(t *testing.T) {
	c := newTestClient(t)
	alice := c.register("alice")
	bob := c.register("bob")
	date := time.Now().UTC().Format("2006-01-02")

	// Alice pays 90 and splits it with Bob.
	var created expenseJSON
	status := c.do(http.MethodPost, "/expenses", alice.Token, map[string]any{
		"description":    "Dinner",
		"amount":         90,
		"category":       "Food",
		"date":           date,
		"splitWithUsers": []string{bob.ID},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, created.IsSplitCreator)
	require.NotNil(t, created.SplitGroupID)
	assert.Equal(t, 90.0, created.Amount)
	assert.Equal(t, "Dinner (Split with bob)", created.DisplayDescription)
	require.Len(t, created.SplitUsers, 1)
	assert.Equal(t, "bob", created.SplitUsers[0].Username)

	var bobs []expenseJSON
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/expenses", bob.Token, nil, &bobs))
	require.Len(t, bobs, 1)
	share := bobs[0]
	assert.Equal(t, 45.0, share.Amount)
	assert.Equal(t, *created.SplitGroupID, *share.SplitGroupID)
	assert.Equal(t, "Dinner (Split by alice)", share.DisplayDescription)
	require.NotNil(t, share.SplitCreator)
	assert.Equal(t, alice.ID, share.SplitCreator.ID)

	// Bob cannot edit or delete his share.
	var errBody map[string]string
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodPut, "/expenses/"+share.ID, bob.Token, map[string]any{"amount": 1}, &errBody))
	assert.NotEmpty(t, errBody["error"])
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodDelete, "/expenses/"+share.ID, bob.Token, nil, nil))

	// Bob cannot see Alice's record.
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPut, "/expenses/"+created.ID, bob.Token, map[string]any{"amount": 1}, nil))

	// Alice raises the amount; Bob's share follows.
	var updated expenseJSON
	status = c.do(http.MethodPut, "/expenses/"+created.ID, alice.Token, map[string]any{
		"amount":         120,
		"splitWithUsers": []string{bob.ID},
	}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 120.0, updated.Amount)
	assert.Equal(t, "Dinner", updated.Description)

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/expenses", bob.Token, nil, &bobs))
	require.Len(t, bobs, 1)
	assert.Equal(t, 60.0, bobs[0].Amount)

	// Deleting the creator removes the whole group.
	var msg map[string]string
	require.Equal(t, http.StatusOK, c.do(http.MethodDelete, "/expenses/"+created.ID, alice.Token, nil, &msg))
	assert.Equal(t, "Expense deleted successfully", msg["message"])
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodDelete, "/expenses/"+created.ID, alice.Token, nil, nil))

	var alices []expenseJSON
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/expenses", alice.Token, nil, &alices))
	assert.Empty(t, alices)
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/expenses", bob.Token, nil, &bobs))
	assert.Empty(t, bobs)

	var metricsBody strings.Builder
	resp, err := http.Get(c.baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	_, err = io.Copy(&metricsBody, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, metricsBody.String(), `spendwise_split_operations_total{op="create"} 1`)
	assert.Contains(t, metricsBody.String(), `spendwise_split_operations_total{op="delete"} 1`)
}

func TestStandaloneExpense(t *testing.T) {
	c := newTestClient(t)
	alice := c.register("alice")

	var created expenseJSON
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/expenses", alice.Token, map[string]any{
		"description": "Coffee",
		"amount":      3.5,
		"category":    "Food",
		"date":        "2026-01-15",
	}, &created))
	assert.Nil(t, created.SplitGroupID)
	assert.Nil(t, created.SplitCreator)
	assert.NotNil(t, created.SplitUsers)
	assert.Equal(t, "2026-01-15", created.Date)
	assert.Equal(t, alice.ID, created.UserID)

	var updated expenseJSON
	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/expenses/"+created.ID, alice.Token, map[string]any{
		"category": "Drinks",
	}, &updated))
	assert.Equal(t, "Drinks", updated.Category)
	assert.Equal(t, "Coffee", updated.Description)
	assert.Equal(t, 3.5, updated.Amount)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/expenses", alice.Token, map[string]any{
		"description": "Coffee",
		"amount":      -1,
		"category":    "Food",
		"date":        "2026-01-15",
	}, &errBody))
	assert.Equal(t, "amount", errBody["details"])

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/expenses", alice.Token, "{not json", nil))
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodPut, "/expenses/missing", alice.Token, map[string]any{}, nil))
}

func TestAuthErrors(t *testing.T) {
	c := newTestClient(t)
	c.register("alice")

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	}, &errBody))
	assert.Equal(t, `The username "alice" is already in use. Please choose another.`, errBody["error"])

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	}, &errBody))
	assert.Equal(t, `The email "alice@example.com" is already in use. Please choose another.`, errBody["error"])

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPost, "/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "wrong-password",
	}, &errBody))
	assert.Equal(t, "Invalid credentials", errBody["error"])

	// The older email field still works.
	var login map[string]string
	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	}, &login))
	assert.NotEmpty(t, login["token"])
	assert.Equal(t, "alice@example.com", login["email"])

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/expenses", "", nil, nil))
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/expenses", "garbage", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/users/budget", "", nil, nil))
}

func TestBudgetAndSearch(t *testing.T) {
	c := newTestClient(t)
	alice := c.register("alice")
	c.register("bob")
	c.register("bobby")

	var budget map[string]any
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/budget", alice.Token, nil, &budget))
	assert.Equal(t, 0.0, budget["budget"])
	assert.Equal(t, "alice", budget["username"])

	require.Equal(t, http.StatusOK, c.do(http.MethodPut, "/users/budget", alice.Token, map[string]any{"budget": 250.75}, &budget))
	assert.Equal(t, 250.75, budget["budget"])
	assert.Equal(t, "Budget updated successfully", budget["message"])

	for _, bad := range []string{`{"budget": -5}`, `{"budget": "100"}`, `{"budget": null}`, `{}`} {
		assert.Equal(t, http.StatusBadRequest, c.do(http.MethodPut, "/users/budget", alice.Token, bad, nil), bad)
	}

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/budget", alice.Token, nil, &budget))
	assert.Equal(t, 250.75, budget["budget"])

	var users []map[string]string
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/search?query=BO", alice.Token, nil, &users))
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0]["username"])
	assert.Equal(t, "bobby", users[1]["username"])

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/search?query=a", alice.Token, nil, &users))
	assert.Empty(t, users)

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/users/search?query=alice", alice.Token, nil, &users))
	assert.Empty(t, users)
}

func TestSummaryEndpoint(t *testing.T) {
	c := newTestClient(t)
	alice := c.register("alice")

	c.do(http.MethodPut, "/users/budget", alice.Token, map[string]any{"budget": 100}, nil)
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/expenses", alice.Token, map[string]any{
		"description": "Rent share",
		"amount":      40,
		"category":    "Home",
		"date":        "2026-03-02",
	}, nil))

	var summary struct {
		Month      string  `json:"month"`
		Total      float64 `json:"total"`
		Remaining  float64 `json:"remaining"`
		OverBudget bool    `json:"overBudget"`
		ByCategory []struct {
			Category string  `json:"category"`
			Total    float64 `json:"total"`
		} `json:"byCategory"`
	}
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/expenses/summary?month=2026-03", alice.Token, nil, &summary))
	assert.Equal(t, "2026-03", summary.Month)
	assert.Equal(t, 40.0, summary.Total)
	assert.Equal(t, 60.0, summary.Remaining)
	assert.False(t, summary.OverBudget)
	require.Len(t, summary.ByCategory, 1)
	assert.Equal(t, "Home", summary.ByCategory[0].Category)

	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/expenses/summary?month=march", alice.Token, nil, nil))
}

func TestHealthAndStatic(t *testing.T) {
	c := newTestClient(t)

	var health map[string]string
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/healthz", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	resp, err := http.Get(c.baseURL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<title>Spendwise</title>")
}
