// Package models содержит доменные структуры, общие для всех компонентов рантайма:
// личность пользователя и элемент каталога уроков.
package models

// UserIdentity описывает аутентифицированного пользователя.
// Создаётся провайдером аутентификации и не изменяется после создания.
type UserIdentity struct {
	ID          string `json:"id"`           // Уникальный идентификатор пользователя
	DisplayName string `json:"display_name"` // Отображаемое имя
	Email       string `json:"email"`        // Электронная почта
}
