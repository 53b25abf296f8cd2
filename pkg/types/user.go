package types

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Role           Role      `db:"role" json:"role"`
	RegisterNumber *string   `db:"register_number" json:"registerNumber"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// PublicUser is the shape embedded in item and claim responses. It carries
// no credential material.
type PublicUser struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Role           Role    `json:"role"`
	RegisterNumber *string `json:"registerNumber"`
}

func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		RegisterNumber: u.RegisterNumber,
	}
}
