package middleware

import (
	"tunilearn/backend/config"
	"tunilearn/backend/models"
	"tunilearn/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const (
	claimsKey       = "claims"
	invalidTokenKey = "invalidToken"

	MsgNoToken           = "No token provided."
	MsgInvalidToken      = "Invalid or expired token."
	MsgAdminOnly         = "Admin access only."
	MsgTeacherOnly       = "Teacher access only."
	MsgStudentOnly       = "Student access only."
	MsgTeacherOrAdmin    = "Teacher or admin access only."
	MsgProfileIncomplete = "Profile completion required."
)

// Identify decodes the bearer token or the token cookie when one is sent.
// Requests without a token continue anonymously.
func Identify(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := utils.ExtractToken(c)
		if raw == "" {
			return c.Next()
		}
		claims, err := utils.ParseJWTToken(raw, cfg)
		if err != nil {
			c.Locals(invalidTokenKey, true)
			return c.Next()
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// CurrentClaims returns the verified claims, or nil for anonymous callers.
func CurrentClaims(c *fiber.Ctx) *utils.Claims {
	claims, _ := c.Locals(claimsKey).(*utils.Claims)
	return claims
}

func hasInvalidToken(c *fiber.Ctx) bool {
	invalid, _ := c.Locals(invalidTokenKey).(bool)
	return invalid
}

// RequireAuth rejects anonymous callers with 401 and bad tokens with 403.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hasInvalidToken(c) {
			return utils.Forbidden(c, MsgInvalidToken)
		}
		if CurrentClaims(c) == nil {
			return utils.Unauthorized(c, MsgNoToken)
		}
		return c.Next()
	}
}

// OnlyRoles lets through callers whose role claim is one of roles.
// Anonymous callers are rejected with 403 as well.
func OnlyRoles(message string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hasInvalidToken(c) {
			return utils.Forbidden(c, MsgInvalidToken)
		}
		claims := CurrentClaims(c)
		if claims != nil {
			for _, role := range roles {
				if claims.Role == role {
					return c.Next()
				}
			}
		}
		if message == "" {
			message = "Forbidden"
		}
		return utils.Forbidden(c, message)
	}
}

func IsAdmin() fiber.Handler {
	return OnlyRoles(MsgAdminOnly, models.RoleAdmin)
}

func IsTeacher() fiber.Handler {
	return OnlyRoles(MsgTeacherOnly, models.RoleTeacher)
}

func IsStudent() fiber.Handler {
	return OnlyRoles(MsgStudentOnly, models.RoleStudent)
}

func IsTeacherOrAdmin() fiber.Handler {
	return OnlyRoles(MsgTeacherOrAdmin, models.RoleTeacher, models.RoleAdmin)
}

// RequireProfileCompletion blocks accounts that have not picked a role yet.
func RequireProfileCompletion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hasInvalidToken(c) {
			return utils.Forbidden(c, MsgInvalidToken)
		}
		claims := CurrentClaims(c)
		if claims == nil || !claims.ProfileCompleted {
			return utils.Forbidden(c, MsgProfileIncomplete)
		}
		return c.Next()
	}
}
