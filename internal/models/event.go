package models

// Event — любое событие, которое принимает центральный стор.
// Name используется в логах и метриках.
type Event interface {
	Name() string
}
