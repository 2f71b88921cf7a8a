package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pharmat-audit/internal/api/dto"
	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/service"
)

// ProfileHandler exposes the caller's profile.
type ProfileHandler struct {
	profiles *service.ProfileService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /api/profile.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	claim, _ := auth.ClaimFromContext(c)
	profile, err := h.profiles.Get(c.UserContext(), claim)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"profile": dto.NewProfileResponse(profile)}})
}

// Save handles POST /api/profile.
func (h *ProfileHandler) Save(c *fiber.Ctx) error {
	var req dto.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	first, last := req.Names()

	claim, _ := auth.ClaimFromContext(c)
	profile, err := h.profiles.Save(c.UserContext(), claim, service.ProfileInput{
		FirstName:  first,
		LastName:   last,
		Pharmacies: req.Pharmacies,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"profile": dto.NewProfileResponse(profile)}})
}
