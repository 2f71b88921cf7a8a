package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pharmat-audit/internal/api/dto"
	"github.com/spec-kit/pharmat-audit/internal/auth"
	"github.com/spec-kit/pharmat-audit/internal/domain"
	"github.com/spec-kit/pharmat-audit/internal/service"
)

// SubmissionsHandler exposes task submission endpoints.
type SubmissionsHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionsHandler constructs handler.
func NewSubmissionsHandler(submissions *service.SubmissionService) *SubmissionsHandler {
	return &SubmissionsHandler{submissions: submissions}
}

// List handles GET /api/submissions?pharmacies=a,b.
func (h *SubmissionsHandler) List(c *fiber.Ctx) error {
	claim, _ := auth.ClaimFromContext(c)
	subs, err := h.submissions.List(c.UserContext(), claim, parsePharmacies(c.Query("pharmacies")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"submissions": dto.NewSubmissionList(subs)}})
}

// Save handles POST /api/submissions.
func (h *SubmissionsHandler) Save(c *fiber.Ctx) error {
	var req dto.SaveSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	claim, _ := auth.ClaimFromContext(c)
	sub, err := h.submissions.Save(c.UserContext(), claim, service.SubmissionInput{
		PharmacyIndex: req.PharmacyIndex,
		TaskKey:       req.TaskKey,
		FileName:      req.FileName,
		FileURL:       req.FileURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"submission": dto.NewSubmissionResponse(*sub)}})
}

// UpdateStatus handles POST /api/submissions/status.
func (h *SubmissionsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	claim, _ := auth.ClaimFromContext(c)
	sub, err := h.submissions.Review(c.UserContext(), claim, service.ReviewInput{
		Key: domain.SubmissionKey{
			EmployeeEmail: req.EmployeeEmail,
			PharmacyIndex: req.PharmacyIndex,
			TaskKey:       req.TaskKey,
		},
		Status:     req.Status,
		ReviewNote: req.ReviewNote,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"submission": dto.NewSubmissionResponse(*sub)}})
}

// Delete handles POST /api/submissions/delete.
func (h *SubmissionsHandler) Delete(c *fiber.Ctx) error {
	var req dto.DeleteSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	claim, _ := auth.ClaimFromContext(c)
	if err := h.submissions.Delete(c.UserContext(), claim, req.PharmacyIndex, req.TaskKey); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func parsePharmacies(raw string) []domain.PharmacyIndex {
	var out []domain.PharmacyIndex
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, domain.PharmacyIndex(part))
		}
	}
	return out
}
