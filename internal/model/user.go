package model

// User carries the contact facts this service needs about a participant.
// Account management lives in a separate service; we only read.
type User struct {
	ID                    string // users.id
	Name                  string // users.name
	Phone                 string // users.phone
	Email                 string // users.email
	EmergencyContactPhone string // users.emergency_contact_phone
}

// Contact returns the preferred reachable contact for the user: phone when
// present, email otherwise.  Empty when neither is set.
func (u *User) Contact() string {
	if u == nil {
		return ""
	}
	if u.Phone != "" {
		return u.Phone
	}
	return u.Email
}
