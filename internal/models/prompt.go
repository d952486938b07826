package models

import (
	"time"
)

type Prompt struct {
	ID         int64
	Title      string
	Content    string
	IsFavorite bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
