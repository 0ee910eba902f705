package proof

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"coswo/internal/auth"
	"coswo/pkg/apperr"
)

type ProofHandler struct {
	service *ProofService
}

func NewProofHandler(service *ProofService) *ProofHandler {
	return &ProofHandler{service: service}
}

func claimsFrom(c echo.Context) (*auth.JWTClaims, bool) {
	claims, ok := c.Get("user").(*auth.JWTClaims)
	return claims, ok && claims != nil
}

// Upload handles POST /api/donations/:id/proofs (multipart form).
func (h *ProofHandler) Upload(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "proof file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "could not read proof file"})
	}
	defer file.Close()

	qualityScore := 0.0
	if raw := c.FormValue("quality_score"); raw != "" {
		qualityScore, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "quality_score must be a number"})
		}
	}

	input := UploadInput{
		ProofType:    c.FormValue("proof_type"),
		QualityScore: qualityScore,
		FileName:     fileHeader.Filename,
		File:         file,
	}
	p, err := h.service.Upload(c.Request().Context(), claims, c.Param("id"), input)
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusCreated, p)
}

// Select handles PUT /api/donations/:id/proofs/:proofId/select.
func (h *ProofHandler) Select(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	p, err := h.service.Select(c.Request().Context(), claims, c.Param("id"), c.Param("proofId"))
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, p)
}

// Dispatch handles POST /api/donations/:id/proofs/send.
func (h *ProofHandler) Dispatch(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	if err := h.service.Dispatch(c.Request().Context(), claims, c.Param("id")); err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Proof dispatched to donor"})
}

// List handles GET /api/donations/:id/proofs.
func (h *ProofHandler) List(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	proofs, err := h.service.List(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, proofs)
}
