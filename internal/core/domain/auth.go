package domain

import "time"

// TokenPair is the credential material issued by the backend on login and
// refresh. Lifetimes are backend-supplied millisecond durations; the gateway
// never guesses expirations on its own.
type TokenPair struct {
	AccessToken            string `json:"accessToken"`
	RefreshToken           string `json:"refreshToken"`
	TokenType              string `json:"tokenType,omitempty"`
	AccessTokenExpireInMs  int64  `json:"accessTokenExpireInMs"`
	RefreshTokenExpireInMs int64  `json:"refreshTokenExpireInMs"`
}

// AccessTTL returns the access token lifetime as a duration.
func (p TokenPair) AccessTTL() time.Duration {
	return time.Duration(p.AccessTokenExpireInMs) * time.Millisecond
}

// RefreshTTL returns the refresh token lifetime as a duration.
func (p TokenPair) RefreshTTL() time.Duration {
	return time.Duration(p.RefreshTokenExpireInMs) * time.Millisecond
}

// LoginData is the payload of a successful login or refresh envelope.
// UserInfo is present on login; refresh responses carry only the tokens.
type LoginData struct {
	TokenPair
	UserInfo *UserInfo `json:"userInfo,omitempty"`
}

// Credentials is the login request body submitted by the client.
type Credentials struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}
