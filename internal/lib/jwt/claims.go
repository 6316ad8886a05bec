// Package jwt выпускает и проверяет ID-токены, которыми провайдер входа через Google
// подтверждает личность пользователя.
//
// Maker определяет интерфейс для создания и проверки токенов с subject, именем и почтой.
// MakerImpl — реализация на HMAC-ключе со сроком жизни токена.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга ID-токенов.
type Maker interface {
	// GenerateToken выпускает токен для subject с отображаемым именем и почтой.
	GenerateToken(subject, name, email string) (string, error)
	// ParseToken проверяет подпись, срок действия и издателя токена.
	ParseToken(tokenStr string) (*IDClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа,
// времени жизни токена (TTL) и ожидаемого издателя.
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
	issuer    string        // Издатель, которого ожидает ParseToken.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl.
func NewJWTMaker(secretKey, issuer string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		issuer:    issuer,
	}
}
