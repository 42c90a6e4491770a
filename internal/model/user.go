package model

import "time"

// User represents an account holder. The password is only ever stored as a bcrypt hash.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:255;not null;uniqueIndex"`
	Firstname      string    `json:"firstname" gorm:"size:255;not null"`
	Lastname       *string   `json:"lastname" gorm:"size:255"`
	Email          string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash   string    `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	ProfilePicture *string   `json:"profile_picture" gorm:"size:1024"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// Identity is the public part of a session: who the caller is.
type Identity struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

// Identity returns the id and email pair handed back on signup and login.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email}
}

// ProfileUpdate carries the profile fields a user may change. Nil fields are left untouched.
type ProfileUpdate struct {
	Firstname      *string
	Lastname       *string
	Email          *string
	ProfilePicture *string
}

// Empty reports whether no field was supplied.
func (p ProfileUpdate) Empty() bool {
	return p.Firstname == nil && p.Lastname == nil && p.Email == nil && p.ProfilePicture == nil
}

// Columns returns the supplied fields keyed by column name.
func (p ProfileUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, 4)
	if p.Firstname != nil {
		cols["firstname"] = *p.Firstname
	}
	if p.Lastname != nil {
		cols["lastname"] = *p.Lastname
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.ProfilePicture != nil {
		cols["profile_picture"] = *p.ProfilePicture
	}
	return cols
}
