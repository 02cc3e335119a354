package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	AcademyID string   `json:"academy_id,omitempty"`
	Email     string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// CanManageAcademy reports whether the caller may act on the given academy.
func (c *JWTClaims) CanManageAcademy(academyID string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleSuperAdmin {
		return true
	}
	return c.Role == RoleAdmin && c.AcademyID != "" && c.AcademyID == academyID
}
