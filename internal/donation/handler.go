package donation

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coswo/internal/auth"
	"coswo/pkg/apperr"
)

type DonationHandler struct {
	service *Service
}

func NewDonationHandler(service *Service) *DonationHandler {
	return &DonationHandler{service: service}
}

func claimsFrom(c echo.Context) (*auth.JWTClaims, bool) {
	claims, ok := c.Get("user").(*auth.JWTClaims)
	return claims, ok && claims != nil
}

// Submit handles POST /api/donations.
func (h *DonationHandler) Submit(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	d, err := h.service.Submit(c.Request().Context(), claims, req)
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusCreated, d)
}

// Mine handles GET /api/donations/mine.
func (h *DonationHandler) Mine(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	donations, err := h.service.ListMine(c.Request().Context(), claims)
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, donations)
}

// Pending handles GET /api/donations/pending.
func (h *DonationHandler) Pending(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	pending, err := h.service.ListPendingApprovals(c.Request().Context(), claims)
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, pending)
}

// Approve handles PUT /api/donations/:id/approve.
func (h *DonationHandler) Approve(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	d, err := h.service.Approve(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, d)
}

// Reject handles PUT /api/donations/:id/reject.
func (h *DonationHandler) Reject(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	d, err := h.service.Reject(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, d)
}

// Advance handles PUT /api/donations/:id/advance.
func (h *DonationHandler) Advance(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	var req AdvanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	d, err := h.service.AdvanceDelivery(c.Request().Context(), claims, c.Param("id"), req)
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, d)
}
