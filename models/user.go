package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

// User is a creator. The ID is the subject assigned by the external
// identity provider; the handle composes every link path the creator
// owns.
type User struct {
	ID     string `json:"id"`
	Handle string `json:"handle" gorm:"unique_index"`

	Name      string `json:"name"`
	Email     string `json:"-"`
	AvatarURL string `json:"avatar_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return tableName("users")
}

// UserByID loads a user by identity-provider subject.
func UserByID(db *gorm.DB, id string) (*User, error) {
	return loadUser(db.Where("id = ?", id))
}

// UserByHandle resolves a user by their public handle.
func UserByHandle(db *gorm.DB, handle string) (*User, error) {
	return loadUser(db.Where("handle = ?", handle))
}

func loadUser(query *gorm.DB) (*User, error) {
	user := &User{}
	if result := query.First(user); result.Error != nil {
		if result.RecordNotFound() {
			return nil, ModelNotFoundError{"user"}
		}
		return nil, errors.Wrap(result.Error, "loading user")
	}
	return user, nil
}

// HandleAvailable reports whether a handle can still be claimed, with
// the given user excluded so a creator can keep their own handle on
// profile updates.
func HandleAvailable(db *gorm.DB, handle, excludeUserID string) (bool, error) {
	result := db.Where("handle = ? AND id <> ?", handle, excludeUserID).First(&User{})
	if result.Error == nil {
		return false, nil
	}
	if result.RecordNotFound() {
		return true, nil
	}
	return false, errors.Wrap(result.Error, "checking handle availability")
}
