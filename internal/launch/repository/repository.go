package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories groups every repository over one *gorm.DB
type Repositories struct {
	db       *gorm.DB
	Product  *ProductRepository
	Activity *ActivityRepository
	Template *TemplateRepository
	User     *UserRepository
	Role     *RoleRepository
	Group    *GroupRepository
}

// NewRepositories builds the repository set
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:       db,
		Product:  NewProductRepository(db),
		Activity: NewActivityRepository(db),
		Template: NewTemplateRepository(db),
		User:     NewUserRepository(db),
		Role:     NewRoleRepository(db),
		Group:    NewGroupRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Ping checks the database connection
func (r *Repositories) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
