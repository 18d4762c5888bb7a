package entity

import (
	"time"
)

// User is a planner account
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	Username     string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:100;not null"`
	Email        string     `json:"email" gorm:"size:128"`
	PasswordHash string     `json:"-" gorm:"size:100"`
	AuthMethod   string     `json:"auth_method" gorm:"size:16;not null;default:local"`
	Status       string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// associations
	Roles  []Role  `json:"roles,omitempty" gorm:"many2many:user_roles;"`
	Groups []Group `json:"groups,omitempty" gorm:"many2many:group_members;"`

	// not persisted
	RoleCodes []string `json:"role_codes,omitempty" gorm:"-"`
}

func (User) TableName() string {
	return "users"
}

// Role is an assignable responsibility such as masterdata or kam
type Role struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Code        string    `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsSystem    bool      `json:"is_system" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Role) TableName() string {
	return "roles"
}

// Group sources. Directory groups are created and renamed by synchronisation.
const (
	GroupSourceLocal = "local"
)

// Group bundles users that share roles
type Group struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Name        string    `json:"name" gorm:"size:100;not null;uniqueIndex:idx_group_source_name"`
	Description string    `json:"description" gorm:"type:text"`
	Source      string    `json:"source" gorm:"size:16;not null;default:local;uniqueIndex:idx_group_source_name;index:idx_group_external"`
	ExternalID  string    `json:"external_id,omitempty" gorm:"size:512;index:idx_group_external"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// associations
	Members []User `json:"members,omitempty" gorm:"many2many:group_members;"`
	Roles   []Role `json:"roles,omitempty" gorm:"many2many:group_roles;"`
}

func (Group) TableName() string {
	return "user_groups"
}

// EffectiveRoleCodes is the union of direct and group role codes, in first-seen order.
// Roles and Groups.Roles must be preloaded.
func (u *User) EffectiveRoleCodes() []string {
	seen := make(map[string]bool)
	codes := []string{}
	add := func(code string) {
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	for _, r := range u.Roles {
		add(r.Code)
	}
	for _, g := range u.Groups {
		for _, r := range g.Roles {
			add(r.Code)
		}
	}
	return codes
}
