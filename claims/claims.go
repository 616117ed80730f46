package claims

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// AccessClaims represents the JWT claims minted by the external
// identity/wallet provider. The subject is the creator's user ID.
type AccessClaims struct {
	Email        string                 `json:"email"`
	UserMetaData map[string]interface{} `json:"user_metadata"`
	jwt.StandardClaims
}

// MetaString reads a string field from the user metadata, or "" when it
// is absent or not a string.
func (c *AccessClaims) MetaString(key string) string {
	if c.UserMetaData == nil {
		return ""
	}
	value, _ := c.UserMetaData[key].(string)
	return value
}
