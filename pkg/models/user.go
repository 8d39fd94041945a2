package models

// User is a staff account that can be assigned to complaints and resolved as
// a notification recipient.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"  validate:"required,min=1"`
	Email  string   `json:"email" validate:"required,email"`
	Phone  string   `json:"phone,omitempty"`
	Roles  []string `json:"roles"`
	Active bool     `json:"active"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}

	return false
}
