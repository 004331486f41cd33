package models

import "time"

type UserRole string

const (
	UserRoleTutor   UserRole = "TUTOR"
	UserRoleStudent UserRole = "STUDENT"
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleUnknown UserRole = "UNKNOWN"
)

func ParseUserRole(s string) UserRole {
	switch UserRole(s) {
	case UserRoleTutor, UserRoleStudent, UserRoleAdmin:
		return UserRole(s)
	default:
		return UserRoleUnknown
	}
}

type User struct {
	ID               int64
	Email            *string
	CountryCode      *string
	Mobile           *string
	PasswordHash     []byte
	Role             UserRole
	IsMobileVerified bool
	IsEmailVerified  bool
	IsSignupComplete bool
	Active           bool
	LastLoginAt      *time.Time
	DeletedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullMobile combines the country code and national number into the
// form used as a login identifier and token claim.
func (u User) FullMobile() string {
	if u.Mobile == nil {
		return ""
	}
	cc := ""
	if u.CountryCode != nil {
		cc = *u.CountryCode
	}
	return cc + *u.Mobile
}

// LoginID is the identifier embedded in access tokens: email for
// admins, combined mobile for everyone else.
func (u User) LoginID() string {
	if u.Role == UserRoleAdmin {
		return u.EmailOrEmpty()
	}
	return u.FullMobile()
}

func (u User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
