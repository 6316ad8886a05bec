package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IDClaims описывает данные пользователя, хранящиеся в ID-токене.
type IDClaims struct {
	Name                 string `json:"name"`  // Отображаемое имя
	Email                string `json:"email"` // Электронная почта
	jwt.RegisteredClaims        // Subject, Issuer, ExpiresAt и пр.
}

// ErrIncompleteClaims — в токене нет subject или почты.
var ErrIncompleteClaims = errors.New("token is missing subject or email")

// GenerateToken создаёт ID-токен и подписывает его секретным ключом.
//
// Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(subject, name, email string) (string, error) {
	now := time.Now()
	claims := IDClaims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит ID-токен, проверяет подпись, срок действия и издателя,
// возвращает IDClaims, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*IDClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &IDClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*IDClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrIncompleteClaims)
	}
	return claims, nil
}
