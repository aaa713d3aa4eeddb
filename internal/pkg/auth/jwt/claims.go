package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for Hubchat.
// It includes standard claims required by the JWT specification and custom claims
// necessary for identifying users within the chat system.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the unique identifier of the authenticated user.
	ID string `json:"id"`

	// Username is the login name of the authenticated user.
	Username string `json:"username"`

	// Nickname is the display name carried in the token so clients can render
	// the signed-in user without an extra profile fetch.
	Nickname string `json:"nickname,omitempty"`
}
