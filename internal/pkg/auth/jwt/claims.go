package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims issued by the Groovz server.
type Payload struct {
	// StandardClaims embeds the standard JWT fields (Exp, Iat, Iss) used
	// for validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the account identifier the token authenticates. Empty for
	// admin tokens.
	UserID string `json:"user_id,omitempty"`

	// Role separates ordinary sessions from the admin dashboard session
	// (e.g. "user" or "admin").
	Role string `json:"role"`
}
