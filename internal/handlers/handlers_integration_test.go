package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"akun/internal/handlers"
	"akun/internal/middleware"
	"akun/internal/models"
	"akun/internal/repositories"
	"akun/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds a Fiber app against an in-memory SQLite database with the
// same route layout as main.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	userRepo := repositories.NewGORMUserRepository(db)
	authService := services.NewAuthService(userRepo, nil, "test_jwt_secret", bcrypt.MinCost, time.Hour)
	authHandler := handlers.NewAuthHandler(authService, 5*time.Second)

	app := fiber.New()
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)

	protected := api.Group("", middleware.AuthRequired(authService))
	protected.Get("/me", authHandler.HandleMe)

	return app
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

func TestRegister(t *testing.T) {
	app := setupApp(t)

	t.Run("created", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/register", map[string]string{
			"name":            "Al",
			"email":           "al@x.com",
			"password":        "secret1!",
			"confirmPassword": "secret1!",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Equal(t, "User registered successfully", body["message"])
		assert.NotContains(t, body, "advisory")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/register", map[string]string{
			"name":            "Al Again",
			"email":           "al@x.com",
			"password":        "other1!",
			"confirmPassword": "other1!",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "Email already registered", body["message"])
	})

	t.Run("weak password registers with advisory", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/register", map[string]string{
			"name":            "Bo",
			"email":           "bo@x.com",
			"password":        "secret1",
			"confirmPassword": "secret1",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Contains(t, body["advisory"], "special character")
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := []struct {
			name string
			body map[string]string
			want string
		}{
			{"missing fields", map[string]string{"name": "A"}, "all fields are required"},
			{"invalid email", map[string]string{"name": "A", "email": "not-an-email", "password": "abcdef", "confirmPassword": "abcdef"}, "valid email"},
			{"short password", map[string]string{"name": "A", "email": "a@b.com", "password": "abc", "confirmPassword": "abc"}, "at least 6 characters"},
			{"mismatch", map[string]string{"name": "A", "email": "a@b.com", "password": "abcdef", "confirmPassword": "xyz123"}, "do not match"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				resp, body := postJSON(t, app, "/api/register", tc.body)
				assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
				assert.Contains(t, body["message"], tc.want)
			})
		}
	})
}

func TestLoginRoundTrip(t *testing.T) {
	app := setupApp(t)

	resp, _ := postJSON(t, app, "/api/register", map[string]string{
		"name":            "Al",
		"email":           "al@x.com",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("success greets by name and issues token", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/login", map[string]string{
			"email":    "al@x.com",
			"password": "secret1",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Al", body["name"])
		assert.Equal(t, "Login successful", body["message"])
		assert.NotEmpty(t, body["token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/login", map[string]string{
			"email":    "al@x.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", body["message"])
	})

	t.Run("unknown email", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/login", map[string]string{
			"email":    "nope@x.com",
			"password": "secret1",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "User not found", body["message"])
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := postJSON(t, app, "/api/login", map[string]string{
			"email": "al@x.com",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestProtectedProfile(t *testing.T) {
	app := setupApp(t)

	resp, _ := postJSON(t, app, "/api/register", map[string]string{
		"name":            "Al",
		"email":           "al@x.com",
		"password":        "secret1!",
		"confirmPassword": "secret1!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, app, "/api/login", map[string]string{
		"email":    "al@x.com",
		"password": "secret1!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	t.Run("with token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var profile map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&profile))
		assert.Equal(t, "Al", profile["name"])
		assert.Equal(t, "al@x.com", profile["email"])
	})

	t.Run("without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("with garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
