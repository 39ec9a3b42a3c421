package usermodels

import "time"

// UserType is the account tier of a user.
type UserType string

const (
	UserTypeUser  UserType = "user"
	UserTypeAdmin UserType = "admin"
	UserTypeOwner UserType = "owner"
)

// Valid reports whether t is one of the known tiers.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeUser, UserTypeAdmin, UserTypeOwner:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	FirstName    string    `json:"firstName" bson:"firstName"`
	LastName     string    `json:"lastName" bson:"lastName"`
	UserType     UserType  `json:"userType" bson:"userType"`
	IsVerified   bool      `json:"isVerified" bson:"isVerified"`
	ProfileImage string    `json:"profileImage" bson:"profileImage"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// FullName joins first and last name the way member listings display them.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
