package models

import (
	"time"
)

type User struct {
	ID             int64
	Email          string
	HashedPassword string
	DisplayName    *string // nil if user never set it
	CreatedAt      time.Time
}
