package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pharmat-audit/internal/api/dto"
	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/service"
)

// AuthHandler exposes account, session and one-time code endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.AuthMiddleware
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.AuthMiddleware) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions}
}

// CheckEmail handles POST /api/check-email.
func (h *AuthHandler) CheckEmail(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	exists, err := h.auth.CheckEmail(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"exists": exists}})
}

// SendCode handles POST /api/send-code.
func (h *AuthHandler) SendCode(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	result, err := h.auth.SendCode(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SendCodeResponse{
		Status:    string(result.Outcome),
		ExpiresAt: result.ExpiresAt.UTC(),
		DevCode:   result.Code,
	}})
}

// VerifyCode handles POST /api/verify-code.
func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.auth.VerifyCode(c.UserContext(), req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"verified": true}})
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	_, session, err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	h.sessions.WriteSession(c, session.Token)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewSessionResponse(session.Claim)})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	_, session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.sessions.WriteSession(c, session.Token)
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(session.Claim)})
}

// Session handles GET /api/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	claim, _ := auth.ClaimFromContext(c)
	if err := auth.RequireAuthenticated(claim); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSessionResponse(*claim)})
}

// Logout handles POST /api/logout. It clears the cookie whether or not a session is present.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claim, _ := auth.ClaimFromContext(c)
	h.auth.Logout(c.UserContext(), claim)
	h.sessions.ClearSession(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}
