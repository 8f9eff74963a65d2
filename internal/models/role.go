package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the closed set of account kinds. The zero value is not a valid role.
type Role int

const (
	RoleTeacher Role = iota + 1
	RoleParent
	RoleChild
)

// Roles lists every valid role
var Roles = []Role{RoleTeacher, RoleParent, RoleChild}

// ParseRole accepts the stored tag or the legacy Spanish tag
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "teacher", "docente":
		return RoleTeacher, nil
	case "parent", "representante":
		return RoleParent, nil
	case "child", "nino", "niño", "student":
		return RoleChild, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// String returns the stored tag
func (r Role) String() string {
	switch r {
	case RoleTeacher:
		return "teacher"
	case RoleParent:
		return "parent"
	case RoleChild:
		return "child"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleParent, RoleChild:
		return true
	default:
		return false
	}
}

// Scan implements sql.Scanner
func (r *Role) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value implements driver.Valuer
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return r.String(), nil
}

func (r Role) MarshalJSON() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
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
