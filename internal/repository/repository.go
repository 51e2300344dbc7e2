package repository

import (
	"github.com/shoplistapp/auth-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User     UserRepository
	Role     RoleRepository
	Token    TokenRepository
	Identity IdentityRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Role:     NewRoleRepository(db),
		Token:    NewTokenRepository(db),
		Identity: NewIdentityRepository(db),
	}
}
