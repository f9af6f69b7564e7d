package handlers

import (
	"strings"

	"hxstudio-auth/internal/core/domain"
	"hxstudio-auth/internal/core/services"
	"hxstudio-auth/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// LoginRequest represents login request body.
// UserName is the registered email; Email is accepted as an alias.
type LoginRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AssignRoleRequest represents assign role request body
type AssignRoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ChangePasswordRequest represents change password request body
type ChangePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register handles user registration
// @Summary Register new user
// @Description Create a user and assign the requested role
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	err := h.authService.Register(c.UserContext(), &services.RegisterInput{
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return response.Success(c, nil)
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with email and password and return an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response{result=services.LoginResponse}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	email := strings.TrimSpace(req.UserName)
	if email == "" {
		email = strings.TrimSpace(req.Email)
	}

	result, err := h.authService.Login(c.UserContext(), &services.LoginInput{
		Email:    email,
		Password: req.Password,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return response.Success(c, result)
}

// AssignRole handles role assignment
// @Summary Assign role
// @Description Grant a role to a user, creating the role if needed
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body AssignRoleRequest true "Email and role"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/auth/assignRole [post]
func (h *AuthHandler) AssignRole(c *fiber.Ctx) error {
	var req AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.authService.AssignRole(c.UserContext(), req.Email, req.Role); err != nil {
		return h.fail(c, err)
	}

	return response.Success(c, nil)
}

// ChangePassword handles password change
// @Summary Change password
// @Description Replace the password after verifying the current one
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/auth/changePassword [post]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	err := h.authService.ChangePassword(c.UserContext(), &services.ChangePasswordInput{
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return h.fail(c, err)
	}

	return response.Success(c, nil)
}

// Me returns the authenticated user
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.GetProfile(c.UserContext(), userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return response.Unauthorized(c, "Unauthorized")
		}
		return h.fail(c, err)
	}

	return response.Success(c, fiber.Map{"user": user})
}

// fail maps service errors to responses. Unexpected errors are
// already logged by the service and reach the client as a generic 500.
func (h *AuthHandler) fail(c *fiber.Ctx, err error) error {
	if domain.IsBusinessError(err) {
		return response.BadRequest(c, err.Error())
	}
	return response.InternalServerError(c)
}
