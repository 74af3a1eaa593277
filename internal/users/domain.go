package users

import (
	"time"

	"github.com/stockyard-erp/stockyard/internal/rbac"
)

// User is a staff account. HiredAt is nil when the hire date was never
// recorded.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         rbac.Role
	Phone        string
	HiredAt      *time.Time
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
