package entity

import (
	"fmt"
	"regexp"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`.+@.+\..+`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

type User struct {
	ID                string    `bson:"_id,omitempty"`
	FullName          string    `bson:"full_name"`
	Email             string    `bson:"email"`
	PasswordHash      string    `bson:"password_hash"`
	ProfilePictureURL string    `bson:"profile_picture_url,omitempty"`
	PhoneNumber       string    `bson:"phone_number,omitempty"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func NewUser(fullName, email, passwordHash string) (*User, error) {
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name cannot be empty", ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: please use a valid email", ErrValidation)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", ErrValidation)
	}
	now := time.Now().UTC()
	return &User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) SetPhoneNumber(phone string) error {
	if phone != "" && !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: please use a valid phone number", ErrValidation)
	}
	u.PhoneNumber = phone
	u.UpdatedAt = time.Now().UTC()
	return nil
}
