package transfer

import "github.com/golang-jwt/jwt/v5"

// CustomClaims are carried by console tokens and OAuth state tokens.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
