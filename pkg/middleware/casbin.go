package middleware

import (
	"net/http"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/labstack/echo/v4"

	"coswo/internal/auth"
)

var (
	enforcer     *casbin.Enforcer
	enforcerOnce sync.Once
	enforcerErr  error
)

const rbacModel = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && r.act == p.act`

// policies maps each role to the routes it may call. Paths use keyMatch2
// placeholders so the actual request path matches the route shape.
var policies = [][]string{
	{auth.RoleDonor, "/api/donations", "POST"},
	{auth.RoleDonor, "/api/donations/mine", "GET"},
	{auth.RoleDonor, "/api/donations/:id/proofs", "GET"},

	{auth.RoleAdministrator, "/api/donations/pending", "GET"},
	{auth.RoleAdministrator, "/api/donations/:id/approve", "PUT"},
	{auth.RoleAdministrator, "/api/donations/:id/reject", "PUT"},
	{auth.RoleAdministrator, "/api/donations/:id/proofs", "GET"},
	{auth.RoleAdministrator, "/api/receivers/:id/verify", "PUT"},

	{auth.RoleBatchStaff, "/api/donations/:id/advance", "PUT"},
	{auth.RoleBatchStaff, "/api/donations/:id/proofs", "POST"},
	{auth.RoleBatchStaff, "/api/donations/:id/proofs", "GET"},
	{auth.RoleBatchStaff, "/api/donations/:id/proofs/:proofId/select", "PUT"},
	{auth.RoleBatchStaff, "/api/donations/:id/proofs/send", "POST"},
	{auth.RoleBatchStaff, "/api/receivers", "POST"},

	{auth.RoleDonor, "/api/receivers/verified", "GET"},
	{auth.RoleBatchStaff, "/api/receivers/verified", "GET"},
	{auth.RoleAdministrator, "/api/receivers/verified", "GET"},

	{auth.RoleDonor, "/api/profile", "GET"},
	{auth.RoleBatchStaff, "/api/profile", "GET"},
	{auth.RoleAdministrator, "/api/profile", "GET"},

	{auth.RoleDonor, "/api/dashboard", "GET"},
	{auth.RoleBatchStaff, "/api/dashboard", "GET"},
	{auth.RoleAdministrator, "/api/dashboard", "GET"},
}

func initEnforcer() (*casbin.Enforcer, error) {
	enforcerOnce.Do(func() {
		m, err := model.NewModelFromString(rbacModel)
		if err != nil {
			enforcerErr = err
			return
		}
		enforcer, enforcerErr = casbin.NewEnforcer(m)
		if enforcerErr != nil {
			return
		}
		_, enforcerErr = enforcer.AddPolicies(policies)
	})
	return enforcer, enforcerErr
}

// CasbinMiddleware enforces role-based access per request. The services still
// re-check roles so the policy table is a first gate, not the only one.
func CasbinMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get("user").(*auth.JWTClaims)
		if !ok || claims == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing user claims"})
		}
		enf, err := initEnforcer()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "RBAC system error"})
		}

		allowed, err := enf.Enforce(claims.Role, c.Request().URL.Path, c.Request().Method)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "RBAC system error"})
		}
		if !allowed {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: insufficient permissions"})
		}
		return next(c)
	}
}
