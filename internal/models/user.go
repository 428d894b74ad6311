package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// UserRole is one of the three per-institution roles (spec.md §6).
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleProfessor UserRole = "professor"
	RoleAdmin     UserRole = "admin"
)

// User represents an application user stored in the users table.
//
// InstitutionRoles maps institution id to the roles the user holds there
// (spec.md §9 open questions: the canonical shape is a mapping, not the
// single global role the source's earlier model variant used). A user with
// no entry for an institution has no access to it.
type User struct {
	ID               string         `db:"id" json:"id"`
	Email            string         `db:"email" json:"email"`
	PasswordHash     string         `db:"password_hash" json:"-"`
	FullName         string         `db:"full_name" json:"full_name"`
	InstitutionRoles types.JSONText `db:"institution_roles" json:"institution_roles"`
	Active           bool           `db:"active" json:"active"`
	LastLogin        *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Roles decodes the user's per-institution role mapping.
func (u *User) Roles() (map[string][]UserRole, error) {
	if len(u.InstitutionRoles) == 0 {
		return map[string][]UserRole{}, nil
	}
	var out map[string][]UserRole
	if err := u.InstitutionRoles.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// HasRole reports whether the user holds role at institutionID.
func (u *User) HasRole(institutionID string, role UserRole) bool {
	roles, err := u.Roles()
	if err != nil {
		return false
	}
	for _, r := range roles[institutionID] {
		if r == role {
			return true
		}
	}
	return false
}

// EncodeInstitutionRoles marshals a role mapping for storage.
func EncodeInstitutionRoles(roles map[string][]UserRole) (types.JSONText, error) {
	if roles == nil {
		roles = map[string][]UserRole{}
	}
	b, err := json.Marshal(roles)
	if err != nil {
		return nil, err
	}
	return types.JSONText(b), nil
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	InstitutionID string
	Role          *UserRole
	Active        *bool
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
