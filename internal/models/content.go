package models

import "time"

// ContentItem представляет урок из каталога.
// Каталог поставляется внешним источником, структура неизменяема.
type ContentItem struct {
	ID         string        `json:"id" yaml:"id"`
	Title      string        `json:"title" yaml:"title"`
	IsFreeTier bool          `json:"is_free_tier" yaml:"free_tier"`
	MediaRef   string        `json:"media_ref" yaml:"media_ref"`
	Duration   time.Duration `json:"duration" yaml:"duration"` // Длительность озвучки, при 0 используется значение по умолчанию
}
