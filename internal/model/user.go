package model

// User is the persisted row of the users table. Salt and Pass never leave
// the service; use Public for anything user-facing.
type User struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	UID     string `gorm:"column:uid;not null;uniqueIndex"`
	Salt    string `gorm:"column:salt;not null"`
	Pass    string `gorm:"column:pass;not null"`
	Created string `gorm:"column:created"`
	Edited  string `gorm:"column:edited"`
}

func (User) TableName() string {
	return "users"
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:      u.ID,
		UID:     u.UID,
		Created: u.Created,
		Edited:  u.Edited,
	}
}

// PublicUser is the externally visible projection of a User.
type PublicUser struct {
	ID      uint64 `json:"id"`
	UID     string `json:"uid"`
	Created string `json:"created"`
	Edited  string `json:"edited"`
}

type UserCollection struct {
	Users []PublicUser `json:"users"`
	Count int          `json:"count"`
}

// Credential is the transient uid/password pair of a create or login
// request. It is never persisted or logged.
type Credential struct {
	UID string
	Pwd string
}

// UserPatch carries the mutable fields of an update.
type UserPatch struct {
	UID *string
}
