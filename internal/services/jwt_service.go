package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims はセッションCookieに入れるクレームです。
// SID はDB上のセッショントークンで、署名の検証後にDBで有効性を確認します。
type SessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// JWTService はセッションCookieの署名と検証を扱います。
type JWTService struct {
	secret []byte
}

// NewJWTService は新しいJWTServiceを作成します。
func NewJWTService(secret string) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &JWTService{secret: []byte(secret)}, nil
}

// GenerateToken はセッショントークンを含む署名済みのJWTを生成します。
func (s *JWTService) GenerateToken(sessionToken string, userID int64, issuedAt, expiresAt time.Time) (string, error) {
	claims := &SessionClaims{
		SID: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken はJWTを検証し、含まれるセッショントークンを返します。
func (s *JWTService) ValidateToken(tokenString string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.SID == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.SID, nil
}
