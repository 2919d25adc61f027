package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/ledgerplay/tictactoe-wager/internal/entity"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenTTL = 24 * time.Hour

// AuthService issues and checks the bearer tokens the API hands each
// player when a game is created. Tokens bind an HTTP caller to a ledger
// address; they have nothing to do with transaction signatures.
type AuthService interface {
	GenerateToken(addr entity.Address) (string, error)
	ParseToken(token string) (entity.Address, error)
}

type authServiceImpl struct {
	secretKey string
}

func NewAuthService(secretKey string) AuthService {
	return &authServiceImpl{
		secretKey: secretKey,
	}
}

func (that *authServiceImpl) GenerateToken(addr entity.Address) (string, error) {
	claims := jwt.MapClaims{}
	claims["address"] = string(addr)
	claims["exp"] = time.Now().Add(tokenTTL).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(that.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (that *authServiceImpl) ParseToken(tokenString string) (entity.Address, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method", ErrInvalidToken)
		}

		return []byte(that.secretKey), nil
	})
	if err != nil {
		return entity.ZeroAddress, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return entity.ZeroAddress, ErrInvalidToken
	}

	addr, ok := claims["address"].(string)
	if !ok || addr == "" {
		return entity.ZeroAddress, ErrInvalidToken
	}

	return entity.Address(addr), nil
}
