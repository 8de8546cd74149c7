package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"akun/internal/models"
	"akun/internal/services"
	"akun/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	authService  *services.AuthService
	storeTimeout time.Duration
}

// NewAuthHandler creates a new AuthHandler. storeTimeout bounds every store
// round trip so a stalled database call cannot hang a connection.
func NewAuthHandler(authService *services.AuthService, storeTimeout time.Duration) *AuthHandler {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &AuthHandler{
		authService:  authService,
		storeTimeout: storeTimeout,
	}
}

// RegisterRoutes registers the public auth routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	input, err := validation.ValidateRegistration(req.Name, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.storeTimeout)
	defer cancel()

	if _, err := h.authService.Register(ctx, input.Name, input.Email, input.Password); err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Email already registered",
			})
		}
		log.Printf("Error registering user %s: %v", input.Email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}

	resp := fiber.Map{
		"message": "User registered successfully",
	}
	// Strength is advisory: the account is created, the client is told.
	if strengthErr := validation.CheckPasswordStrength(input.Password); strengthErr != nil {
		resp["advisory"] = strengthErr.Error()
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleLogin verifies credentials and returns the display name and a
// session token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	input, err := validation.ValidateLogin(req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.storeTimeout)
	defer cancel()

	user, token, err := h.authService.Login(ctx, input.Email, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "User not found",
			})
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid credentials",
			})
		default:
			log.Printf("Error during login for %s: %v", input.Email, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal server error",
			})
		}
	}

	return c.JSON(fiber.Map{
		"name":    user.Name,
		"message": "Login successful",
		"token":   token,
	})
}

// HandleMe returns the profile of the authenticated user. It runs behind
// middleware.AuthRequired, which stores the token claims in Locals.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid or expired token",
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.storeTimeout)
	defer cancel()

	user, err := h.authService.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		log.Printf("Error loading profile %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"name":  user.Name,
		"email": user.Email,
	})
}
