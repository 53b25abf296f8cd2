package seed

import (
	"context"
	"errors"
	"fmt"

	"lostlink/internal/store"
	"lostlink/internal/utils"
	"lostlink/pkg/types"

	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	ID             string
	Name           string
	Email          string
	Password       string
	Role           types.Role
	RegisterNumber string
}

// Development accounts with fixed IDs so seeded items can reference them.
// To generate new IDs: `go run ./cmd/lostlink nanoid`
var seedUsers = []seedUser{
	{ID: "AdminSeed0000000000000000000000A", Name: "Desk Admin", Email: "admin@lostlink.test", Password: "admin-dev-password", Role: types.RoleAdmin},
	{ID: "StudentSeed00000000000000000001A", Name: "Priya Raman", Email: "priya.raman+seed1@lostlink.test", Password: "student-dev-password", Role: types.RoleUser, RegisterNumber: "21CS104"},
	{ID: "StudentSeed00000000000000000002A", Name: "Arjun Nair", Email: "arjun.nair+seed2@lostlink.test", Password: "student-dev-password", Role: types.RoleUser, RegisterNumber: "21EC221"},
	{ID: "StudentSeed00000000000000000003A", Name: "Meera Joseph", Email: "meera.joseph+seed3@lostlink.test", Password: "student-dev-password", Role: types.RoleUser, RegisterNumber: "22ME078"},
}

// SeedUsers inserts the development accounts. Existing accounts are left
// untouched so reseeding never resets a changed password.
func SeedUsers(ctx context.Context, userRepo *store.UserRepository) error {
	seeded := 0
	for _, entry := range seedUsers {
		_, err := userRepo.User(ctx, entry.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrUserNotFound) {
			return fmt.Errorf("failed to fetch seed user %s: %w", entry.ID, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(entry.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password for %s: %w", entry.ID, err)
		}

		user := &types.User{
			ID:           entry.ID,
			Name:         entry.Name,
			Email:        entry.Email,
			PasswordHash: string(hash),
			Role:         entry.Role,
		}
		if entry.RegisterNumber != "" {
			user.RegisterNumber = utils.StringPtr(entry.RegisterNumber)
		}

		if err := userRepo.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("failed to create seed user %s: %w", entry.ID, err)
		}
		seeded++
	}

	fmt.Printf("Users seeded: %d inserted\n", seeded)
	return nil
}
