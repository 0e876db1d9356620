package types

import "github.com/golang-jwt/jwt/v5"

// Role identifies which account table a token subject lives in
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleClient Role = "client"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleClient:
		return true
	default:
		return false
	}
}

// Claims represents the JWT claims
type Claims struct {
	SubjectID uint `json:"sub_id"`
	Role      Role `json:"role"`
	jwt.RegisteredClaims
}
