package rest_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecofinds/internal/gateway"
	"ecofinds/internal/gateway/rest"
	"ecofinds/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	anonKey = "anon-key"
	userID  = "8d0b7f3e-2c1a-4e5b-9f6d-3a2b1c0d9e8f"
)

func newClient(t *testing.T, h http.HandlerFunc) *rest.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return rest.New(rest.Config{URL: srv.URL, AnonKey: anonKey, Timeout: 5 * time.Second})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSelect_EncodesQueryAndHeaders(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/products", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*,profiles(username)", q.Get("select"))
		assert.Equal(t, "eq.Books", q.Get("category"))
		assert.Equal(t, "ilike.%lamp%", q.Get("title"))
		assert.Equal(t, "created_at.desc.nullslast", q.Get("order"))
		assert.Equal(t, "6", q.Get("limit"))
		assert.Equal(t, anonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "p1", "title": "Lamp", "price": 19.999, "user_id": "u1", "profiles": map[string]any{"username": "sam"}},
		})
	})

	ctx := gateway.WithAccessToken(context.Background(), "user-token")
	q := gateway.From("products").Embed("profiles", "username").
		Eq("category", "Books").ILike("title", "%lamp%").
		Order("created_at", false).Limit(6)

	var products []models.Product
	require.NoError(t, client.Select(ctx, q, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "sam", products[0].SellerName())
	assert.Equal(t, 19.999, products[0].Price)
}

func TestSelect_SingleRowNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		assert.Equal(t, "eq.missing", r.URL.Query().Get("id"))
		assert.Equal(t, "Bearer "+anonKey, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusNotAcceptable, map[string]any{
			"code":    "PGRST116",
			"message": "JSON object requested, multiple (or no) rows returned",
			"details": "The result contains 0 rows",
		})
	})

	var p models.Product
	err := client.Select(context.Background(), gateway.From("products").Eq("id", "missing").Single(), &p)
	assert.True(t, gateway.IsNotFound(err))
}

func TestInsert_StripsServerColumnsAndReportsConflicts(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/cart", r.URL.Path)
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var rows []map[string]any
		require.NoError(t, json.Unmarshal(body, &rows))
		require.Len(t, rows, 1)
		assert.NotContains(t, rows[0], "id")
		assert.NotContains(t, rows[0], "created_at")
		assert.NotContains(t, rows[0], "products")
		assert.Equal(t, "u1", rows[0]["user_id"])

		writeJSON(w, http.StatusConflict, map[string]any{
			"code":    "23505",
			"message": `duplicate key value violates unique constraint "cart_user_id_product_id_key"`,
		})
	})

	err := client.Insert(context.Background(), "cart", []models.CartEntry{{UserID: "u1", ProductID: "p1"}}, nil)
	assert.True(t, gateway.IsUniqueViolation(err))
}

func TestInsert_ReturnsRepresentation(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		writeJSON(w, http.StatusCreated, []map[string]any{{"id": "p9", "title": "Chair", "user_id": "u1"}})
	})

	var out []models.Product
	err := client.Insert(context.Background(), "products", []models.Product{{Title: "Chair", UserID: "u1"}}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "p9", out[0].ID)
}

func TestUpdateAndDelete_UseFilters(t *testing.T) {
	var methods []string
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		assert.Equal(t, "eq.p1", r.URL.Query().Get("id"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.Method == http.MethodPatch {
			var values map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&values))
			assert.Equal(t, "New title", values["title"])
		}
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := gateway.WithAccessToken(context.Background(), "tok")
	require.NoError(t, client.Update(ctx, "products", map[string]any{"title": "New title"}, gateway.Eq("id", "p1")))
	require.NoError(t, client.Delete(ctx, "products", gateway.Eq("id", "p1")))
	assert.Equal(t, []string{http.MethodPatch, http.MethodDelete}, methods)
}

func TestAuth_SignInAndErrors(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "password123" {
				writeJSON(w, http.StatusBadRequest, map[string]any{
					"error":             "invalid_grant",
					"error_description": "Invalid login credentials",
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "tok",
				"user":         map[string]any{"id": userID, "email": body["email"]},
			})
		case "/auth/v1/user":
			assert.Equal(t, anonKey, r.Header.Get("apikey"))
			assert.Equal(t, "Bearer expired", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 401, "error_code": "bad_jwt", "msg": "invalid JWT"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	s, err := client.SignIn(context.Background(), "a@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)
	assert.Equal(t, userID, s.User.ID)

	_, err = client.SignIn(context.Background(), "a@example.com", "nope")
	assert.Equal(t, gateway.CodeInvalidCredentials, gateway.CodeOf(err))
	assert.Contains(t, err.Error(), "Invalid login credentials")

	_, err = client.GetUser(context.Background(), "expired")
	assert.Equal(t, gateway.CodeBadJWT, gateway.CodeOf(err))
}

func TestAuth_SignUpPendingConfirmation(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"username": "sam"}, body["data"])
		writeJSON(w, http.StatusOK, map[string]any{
			"id": userID, "email": "sam@example.com", "user_metadata": map[string]any{"username": "sam"},
		})
	})

	s, err := client.SignUp(context.Background(), gateway.Credentials{
		Email: "sam@example.com", Password: "password123", Data: map[string]any{"username": "sam"},
	})
	require.NoError(t, err)
	assert.Empty(t, s.AccessToken)
	assert.Equal(t, userID, s.User.ID)
	assert.Equal(t, "sam", s.User.MetadataString("username"))
}

func TestAuth_SignUpExistingUser(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"code": 422, "msg": "User already registered"})
	})

	_, err := client.SignUp(context.Background(), gateway.Credentials{Email: "a@example.com", Password: "password123"})
	assert.Equal(t, gateway.CodeUserExists, gateway.CodeOf(err))
}

func TestSelect_RejectsBadIdentifierWithoutCalling(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})
	var out []models.Product
	err := client.Select(context.Background(), gateway.From("products").Eq("title;drop", "x"), &out)
	assert.Equal(t, gateway.CodeInvalidRequest, gateway.CodeOf(err))
}

func TestAuth_SignOutAndGetUser(t *testing.T) {
	var loggedOut bool
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/auth/v1/logout":
			assert.Equal(t, http.MethodPost, r.Method)
			loggedOut = true
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/user":
			writeJSON(w, http.StatusOK, map[string]any{
				"id": userID, "email": "sam@example.com", "user_metadata": map[string]any{"username": "sam"},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	user, err := client.GetUser(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, "sam", user.MetadataString("username"))

	require.NoError(t, client.SignOut(context.Background(), "tok"))
	assert.True(t, loggedOut)

	_, err = client.GetUser(context.Background(), "")
	assert.Equal(t, gateway.CodeBadJWT, gateway.CodeOf(err))
}

func TestSelect_ErrorCodesFromStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{name: "expired JWT", status: http.StatusUnauthorized, body: `{"code":"PGRST301","message":"JWT expired"}`, code: gateway.CodeBadJWT},
		{name: "row policy", status: http.StatusForbidden, body: `{"code":"42501","message":"new row violates row-level security policy"}`, code: gateway.CodePermissionDenied},
		{name: "empty body", status: http.StatusConflict, body: ``, code: gateway.CodeUniqueViolation},
		{name: "server error", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, code: gateway.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			var out []models.Product
			err := client.Select(context.Background(), gateway.From("products"), &out)
			assert.Equal(t, tt.code, gateway.CodeOf(err))
		})
	}
}

func TestSelect_HonoursContext(t *testing.T) {
	release := make(chan struct{})
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, []map[string]any{})
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var out []models.Product
	err := client.Select(ctx, gateway.From("products"), &out)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
