package data

import (
	"errors"

	"gorm.io/gorm"
)

// User contains the login information and game progress for each registered
// player. Users are never deleted while the server is running.
type User struct {
	ID       uint64 `gorm:"primaryKey"`
	Username string `gorm:"unique; not null"`
	Password string `gorm:"not null"`
	Score    int    `gorm:"default:0"`
}

// AskedQuestion records that a question has been served to a user.
type AskedQuestion struct {
	ID         uint64 `gorm:"primaryKey"`
	UserID     uint64 `gorm:"index; not null"`
	QuestionID uint64 `gorm:"not null"`
}

// FindUser searches for a user with the specified username, returning the
// *User instance if found or nil if there is no match.
func FindUser(db *gorm.DB, username string) (*User, error) {
	var user User
	err := db.Where("username = ?", username).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// AllUsers returns every registered user.
func AllUsers(db *gorm.DB) ([]User, error) {
	var users []User
	if err := db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser persists the User record to the database.
func CreateUser(db *gorm.DB, user *User) error {
	return db.Create(user).Error
}

// AddScore increments the user's score by points, updating both the database
// record and the passed struct.
func AddScore(db *gorm.DB, user *User, points int) error {
	err := db.Model(user).Update("score", gorm.Expr("score + ?", points)).Error
	if err != nil {
		return err
	}
	user.Score += points
	return nil
}

// MarkQuestionAsked records that the question was served to the user. Asking
// the same question twice only produces one record.
func MarkQuestionAsked(db *gorm.DB, user *User, questionID uint64) error {
	asked, err := WasQuestionAsked(db, user, questionID)
	if err != nil {
		return err
	}
	if asked {
		return nil
	}
	return db.Create(&AskedQuestion{UserID: user.ID, QuestionID: questionID}).Error
}

// WasQuestionAsked reports whether the question has been served to the user.
func WasQuestionAsked(db *gorm.DB, user *User, questionID uint64) (bool, error) {
	var count int64
	err := db.Model(&AskedQuestion{}).
		Where("user_id = ? AND question_id = ?", user.ID, questionID).
		Count(&count).Error
	return count > 0, err
}

// QuestionsAsked returns the IDs of every question served to the user.
func QuestionsAsked(db *gorm.DB, user *User) ([]uint64, error) {
	var ids []uint64
	err := db.Model(&AskedQuestion{}).
		Where("user_id = ?", user.ID).
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
