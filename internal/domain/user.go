package domain

import (
	"github.com/google/uuid"
)

// =============================================================================
// USER DOMAIN TYPES
// =============================================================================

// Role is the authorization role of a user.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User represents the authenticated user stored in context.
// Accounts and sessions are issued by an external auth service; this is
// the minimal view the commerce core needs.
type User struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  Role
}

// Requester returns the principal used for authorization checks.
func (u *User) Requester() Requester {
	return Requester{UserID: u.ID, Role: u.Role, Email: u.Email}
}

// Requester identifies who is calling a service operation.
type Requester struct {
	UserID uuid.UUID
	Role   Role
	Email  string
}

// IsAdmin reports whether the requester has the admin role.
func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// Address is a stored shipping address belonging to a user.
type Address struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	FullName   string    `json:"fullName"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
}

// Snapshot returns the denormalized copy stored on an order.
func (a Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		FullName:   a.FullName,
		Address:    a.Address,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// User-specific errors.
var (
	ErrUserNotFound    = &Error{Code: ENOTFOUND, Message: "User not found"}
	ErrAddressNotFound = &Error{Code: ENOTFOUND, Message: "Address not found"}
	ErrAddressNotOwned = &Error{Code: EFORBIDDEN, Message: "Address does not belong to this user"}
	ErrAdminRequired   = &Error{Code: EFORBIDDEN, Message: "Admin access required"}
)
