package entity

import (
	"encoding/json"
	"fmt"
)

// Role is the closed set of member roles.
type Role int

const (
	RoleMember Role = iota
	RoleCoManager
	RoleDirector
)

var roleNames = map[Role]string{
	RoleMember:    "Member",
	RoleCoManager: "Co-manager",
	RoleDirector:  "Director",
}

func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return RoleMember, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) CanLockSlot() bool {
	return r == RoleDirector || r == RoleCoManager
}

func (r Role) CanEditLogistics() bool {
	return r == RoleDirector || r == RoleCoManager
}

func (r Role) CanManageMembers() bool {
	return r == RoleDirector
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, int(r))
	}
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role" swaggertype:"string" enums:"Member,Co-manager,Director"`
	Badge  string `json:"badge,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// Identity is the opaque seed handed over by the identity provider.
type Identity struct {
	UserID      string
	DisplayName string
	Email       string
	Avatar      string
}

func (i Identity) AsMember(role Role) Member {
	return Member{
		ID:     i.UserID,
		Name:   i.DisplayName,
		Role:   role,
		Email:  i.Email,
		Avatar: i.Avatar,
	}
}
