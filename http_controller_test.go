package accounts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accounts "github.com/accountsd/go-accounts"
	"github.com/accountsd/go-accounts/middleware/jwtware"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type testApp struct {
	app    *fiber.App
	db     *bun.DB
	repo   accounts.RepositoryManager
	auther *accounts.Auther
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := newTestDB(t)
	repo := accounts.NewRepositoryManager(db)
	auther := newTestAuther(t, repo)

	app := fiber.New()

	guard := jwtware.New(jwtware.Config{
		TokenValidator: accounts.GuardTokenValidator(auther.TokenService()),
		UserResolver:   accounts.ResolveRequestUser(repo.Users()),
		ContextEnricher: func(ctx context.Context, user any) context.Context {
			if u, ok := user.(*accounts.User); ok {
				return accounts.WithContext(ctx, u)
			}
			return ctx
		},
	})

	controller := accounts.NewAccountController(
		accounts.WithRepositoryManager(repo),
		accounts.WithAuthenticator(auther),
	)
	controller.RegisterRoutes(app.Group("/api/users"), guard)

	return &testApp{app: app, db: db, repo: repo, auther: auther}
}

func (ta *testApp) request(t *testing.T, method, path, token string, payload any) (*http.Response, accounts.Response) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ta.app.Test(req, -1)
	require.NoError(t, err)

	var envelope accounts.Response
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &envelope))

	return res, envelope
}

func (ta *testApp) register(t *testing.T, username, email, password string) (accounts.Response, *http.Response) {
	t.Helper()
	res, envelope := ta.request(t, "POST", "/api/users/register", "", fiber.Map{
		"username": username,
		"email":    email,
		"password": password,
	})
	return envelope, res
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("Creates account and returns token", func(t *testing.T) {
		ta := newTestApp(t)

		res, envelope := ta.request(t, "POST", "/api/users/register", "", fiber.Map{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "password123",
		})

		assert.Equal(t, fiber.StatusCreated, res.StatusCode)
		assert.True(t, envelope.Success)
		require.NotNil(t, envelope.User)
		assert.Equal(t, "alice", envelope.User.Username)
		assert.Equal(t, "alice@example.com", envelope.User.Email)

		claims, err := ta.auther.TokenService().Validate(envelope.Token)
		require.NoError(t, err)
		assert.Equal(t, envelope.User.ID, claims.Subject())
	})

	t.Run("Response never carries the password", func(t *testing.T) {
		ta := newTestApp(t)

		req := httptest.NewRequest("POST", "/api/users/register",
			bytes.NewReader([]byte(`{"username":"alice","email":"alice@example.com","password":"password123"}`)))
		req.Header.Set("Content-Type", "application/json")

		res, err := ta.app.Test(req, -1)
		require.NoError(t, err)

		raw, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "password")
	})

	t.Run("Accepts short email addresses", func(t *testing.T) {
		ta := newTestApp(t)

		res, envelope := ta.request(t, "POST", "/api/users/register", "", fiber.Map{
			"username": "alice",
			"email":    "a@b.c",
			"password": "password123",
		})

		assert.Equal(t, fiber.StatusCreated, res.StatusCode)
		assert.True(t, envelope.Success)
		require.NotNil(t, envelope.User)
		assert.Equal(t, "a@b.c", envelope.User.Email)
	})

	t.Run("Invalid payload", func(t *testing.T) {
		ta := newTestApp(t)

		tests := []struct {
			name    string
			payload fiber.Map
		}{
			{"Missing username", fiber.Map{"email": "a@example.com", "password": "password123"}},
			{"Bad email", fiber.Map{"username": "alice", "email": "not-an-email", "password": "password123"}},
			{"Short password", fiber.Map{"username": "alice", "email": "a@example.com", "password": "123"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res, envelope := ta.request(t, "POST", "/api/users/register", "", tt.payload)
				assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
				assert.False(t, envelope.Success)
			})
		}
	})

	t.Run("Duplicate email or username", func(t *testing.T) {
		ta := newTestApp(t)
		ta.register(t, "alice", "alice@example.com", "password123")

		res, envelope := ta.request(t, "POST", "/api/users/register", "", fiber.Map{
			"username": "someone",
			"email":    "alice@example.com",
			"password": "password123",
		})
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
		assert.False(t, envelope.Success)
		assert.Equal(t, "User with this email or username already exists", envelope.Message)

		res, envelope = ta.request(t, "POST", "/api/users/register", "", fiber.Map{
			"username": "alice",
			"email":    "someone@example.com",
			"password": "password123",
		})
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
		assert.Equal(t, "User with this email or username already exists", envelope.Message)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("Valid credentials", func(t *testing.T) {
		ta := newTestApp(t)
		registered, _ := ta.register(t, "alice", "alice@example.com", "password123")

		res, envelope := ta.request(t, "POST", "/api/users/login", "", fiber.Map{
			"email":    "alice@example.com",
			"password": "password123",
		})

		assert.Equal(t, fiber.StatusOK, res.StatusCode)
		assert.True(t, envelope.Success)
		assert.NotEmpty(t, envelope.Token)
		require.NotNil(t, envelope.User)
		assert.Equal(t, registered.User.ID, envelope.User.ID)
	})

	t.Run("Wrong password and unknown email are indistinguishable", func(t *testing.T) {
		ta := newTestApp(t)
		ta.register(t, "alice", "alice@example.com", "password123")

		resWrong, envWrong := ta.request(t, "POST", "/api/users/login", "", fiber.Map{
			"email":    "alice@example.com",
			"password": "not-the-password",
		})
		resUnknown, envUnknown := ta.request(t, "POST", "/api/users/login", "", fiber.Map{
			"email":    "nobody@example.com",
			"password": "password123",
		})

		assert.Equal(t, fiber.StatusUnauthorized, resWrong.StatusCode)
		assert.Equal(t, fiber.StatusUnauthorized, resUnknown.StatusCode)
		assert.Equal(t, envWrong, envUnknown)
		assert.Equal(t, "Invalid credentials", envWrong.Message)
	})

	t.Run("Invalid payload", func(t *testing.T) {
		ta := newTestApp(t)

		res, envelope := ta.request(t, "POST", "/api/users/login", "", fiber.Map{
			"email": "not-an-email",
		})
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
		assert.False(t, envelope.Success)
	})

	t.Run("Store fault is a server error, not invalid credentials", func(t *testing.T) {
		ta := newTestApp(t)
		ta.register(t, "alice", "alice@example.com", "password123")

		require.NoError(t, ta.db.Close())

		res, envelope := ta.request(t, "POST", "/api/users/login", "", fiber.Map{
			"email":    "alice@example.com",
			"password": "password123",
		})

		assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
		assert.False(t, envelope.Success)
		assert.Equal(t, "Error in user login", envelope.Message)
	})
}

func TestProfileShowEndpoint(t *testing.T) {
	t.Run("Returns the current account", func(t *testing.T) {
		ta := newTestApp(t)
		registered, _ := ta.register(t, "alice", "alice@example.com", "password123")

		res, envelope := ta.request(t, "GET", "/api/users/profile", registered.Token, nil)

		assert.Equal(t, fiber.StatusOK, res.StatusCode)
		assert.True(t, envelope.Success)
		assert.Empty(t, envelope.Token)
		require.NotNil(t, envelope.User)
		assert.Equal(t, registered.User.ID, envelope.User.ID)
		assert.Equal(t, "alice", envelope.User.Username)
	})

	t.Run("Rejects unusable tokens", func(t *testing.T) {
		ta := newTestApp(t)
		ta.register(t, "alice", "alice@example.com", "password123")

		now := time.Now()
		expired, err := ta.auther.TokenService().SignClaims(&accounts.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "accounts-test",
				Subject:   "whatever",
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			},
		})
		require.NoError(t, err)

		tests := []struct {
			name  string
			token string
		}{
			{"No token", ""},
			{"Garbage token", "garbage"},
			{"Expired token", expired},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res, envelope := ta.request(t, "GET", "/api/users/profile", tt.token, nil)
				assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
				assert.False(t, envelope.Success)
				assert.Equal(t, "Not authorized to access this route", envelope.Message)
			})
		}
	})

	t.Run("Valid token for a deleted account", func(t *testing.T) {
		ta := newTestApp(t)
		registered, _ := ta.register(t, "alice", "alice@example.com", "password123")

		_, err := ta.db.NewDelete().Model((*accounts.User)(nil)).
			Where("id = ?", registered.User.ID).
			Exec(context.Background())
		require.NoError(t, err)

		res, envelope := ta.request(t, "GET", "/api/users/profile", registered.Token, nil)
		assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
		assert.False(t, envelope.Success)
		assert.Equal(t, "User not found", envelope.Message)
	})
}

func TestProfileUpdateEndpoint(t *testing.T) {
	t.Run("Updates username and email", func(t *testing.T) {
		ta := newTestApp(t)
		registered, _ := ta.register(t, "alice", "alice@example.com", "password123")

		res, envelope := ta.request(t, "PUT", "/api/users/profile", registered.Token, fiber.Map{
			"username": "alicia",
			"email":    "alicia@example.com",
		})

		assert.Equal(t, fiber.StatusOK, res.StatusCode)
		assert.True(t, envelope.Success)
		require.NotNil(t, envelope.User)
		assert.Equal(t, "alicia", envelope.User.Username)
		assert.Equal(t, "alicia@example.com", envelope.User.Email)

		res, envelope = ta.request(t, "GET", "/api/users/profile", registered.Token, nil)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
		assert.Equal(t, "alicia", envelope.User.Username)
	})

	t.Run("Email owned by another account", func(t *testing.T) {
		ta := newTestApp(t)
		alice, _ := ta.register(t, "alice", "alice@example.com", "password123")
		ta.register(t, "bob", "bob@example.com", "password123")

		res, envelope := ta.request(t, "PUT", "/api/users/profile", alice.Token, fiber.Map{
			"email": "bob@example.com",
		})

		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
		assert.False(t, envelope.Success)
		assert.Equal(t, "Email already in use", envelope.Message)

		_, current := ta.request(t, "GET", "/api/users/profile", alice.Token, nil)
		assert.Equal(t, "alice@example.com", current.User.Email)
	})

	t.Run("Invalid email", func(t *testing.T) {
		ta := newTestApp(t)
		registered, _ := ta.register(t, "alice", "alice@example.com", "password123")

		res, envelope := ta.request(t, "PUT", "/api/users/profile", registered.Token, fiber.Map{
			"email": "not-an-email",
		})
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
		assert.False(t, envelope.Success)
	})

	t.Run("Rejected without a token", func(t *testing.T) {
		ta := newTestApp(t)

		res, envelope := ta.request(t, "PUT", "/api/users/profile", "", fiber.Map{
			"username": "ghost",
		})
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
		assert.Equal(t, "Not authorized to access this route", envelope.Message)
	})
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	ta := newTestApp(t)

	registered, res := ta.register(t, "alice", "alice@example.com", "password123")
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	_, login := ta.request(t, "POST", "/api/users/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.NotEmpty(t, login.Token)

	_, profile := ta.request(t, "GET", "/api/users/profile", login.Token, nil)
	assert.Equal(t, registered.User.ID, profile.User.ID)
	assert.Equal(t, "alice", profile.User.Username)
	assert.Equal(t, "alice@example.com", profile.User.Email)
}
