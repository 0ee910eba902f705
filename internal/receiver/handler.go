package receiver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coswo/internal/auth"
	"coswo/pkg/apperr"
)

type ReceiverHandler struct {
	service *ReceiverService
}

func NewReceiverHandler(service *ReceiverService) *ReceiverHandler {
	return &ReceiverHandler{service: service}
}

// Create handles POST /api/receivers.
func (h *ReceiverHandler) Create(c echo.Context) error {
	claims, ok := c.Get("user").(*auth.JWTClaims)
	if !ok || claims == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	var req CreateReceiverRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	receiver, err := h.service.Register(c.Request().Context(), claims, req)
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusCreated, receiver)
}

// Verify handles PUT /api/receivers/:id/verify.
func (h *ReceiverHandler) Verify(c echo.Context) error {
	claims, ok := c.Get("user").(*auth.JWTClaims)
	if !ok || claims == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	receiver, err := h.service.Verify(c.Request().Context(), claims, c.Param("id"), req)
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, receiver)
}

// ListVerified handles GET /api/receivers/verified.
func (h *ReceiverHandler) ListVerified(c echo.Context) error {
	receivers, err := h.service.ListVerified(c.Request().Context())
	if err != nil {
		return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
	}
	return c.JSON(http.StatusOK, receivers)
}
