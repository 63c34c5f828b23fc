package domain

import "time"

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// AppUser is an account keyed by a user-supplied email address or phone
// number. Customers have no password; admins carry a stored secret.
type AppUser struct {
	ID           string
	PhoneOrEmail string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}
