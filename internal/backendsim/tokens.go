package backendsim

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

func (s *Server) issueTokens(user *domain.UserInfo) (*domain.TokenPair, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"roles": user.Roles,
		"exp":   time.Now().Add(s.accessTTL).Unix(),
		"iat":   time.Now().Unix(),
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:            access,
		RefreshToken:           s.store.issueRefreshToken(user.ID, s.refreshTTL),
		TokenType:              "Bearer",
		AccessTokenExpireInMs:  s.accessTTL.Milliseconds(),
		RefreshTokenExpireInMs: s.refreshTTL.Milliseconds(),
	}, nil
}
