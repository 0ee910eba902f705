package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"coswo/internal/auth"
	"coswo/pkg/apperr"
)

type StatsHandler struct {
	service *Service
}

func NewStatsHandler(service *Service) *StatsHandler {
	return &StatsHandler{service: service}
}

// Dashboard handles GET /api/dashboard and dispatches on the caller's role.
func (h *StatsHandler) Dashboard(c echo.Context) error {
	claims, ok := c.Get("user").(*auth.JWTClaims)
	if !ok || claims == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or missing token"})
	}

	ctx := c.Request().Context()
	switch claims.Role {
	case auth.RoleDonor:
		dashboard, err := h.service.DonorDashboard(ctx, claims)
		if err != nil {
			return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
		}
		return c.JSON(http.StatusOK, dashboard)
	case auth.RoleAdministrator:
		dashboard, err := h.service.AdminDashboard(ctx)
		if err != nil {
			return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
		}
		return c.JSON(http.StatusOK, dashboard)
	case auth.RoleBatchStaff:
		dashboard, err := h.service.StaffDashboard(ctx, claims)
		if err != nil {
			return c.JSON(apperr.HTTPStatus(err), apperr.Payload(err))
		}
		return c.JSON(http.StatusOK, dashboard)
	default:
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Unknown role"})
	}
}
