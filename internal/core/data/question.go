package data

import (
	"errors"

	"gorm.io/gorm"
)

// NumberOfOptions is how many answer options every question carries.
const NumberOfOptions = 4

// Question is one entry in the question bank. Questions are immutable once
// created.
type Question struct {
	ID      uint64 `gorm:"primaryKey"`
	Text    string `gorm:"not null"`
	Option1 string `gorm:"not null"`
	Option2 string `gorm:"not null"`
	Option3 string `gorm:"not null"`
	Option4 string `gorm:"not null"`
	// Answer is the 1-based index of the correct option.
	Answer int `gorm:"not null"`
}

// Options returns the answer options in display order. The correct option is
// Options()[q.Answer-1].
func (q *Question) Options() [NumberOfOptions]string {
	return [NumberOfOptions]string{q.Option1, q.Option2, q.Option3, q.Option4}
}

// IsCorrect reports whether the 1-based answer index is the correct one.
func (q *Question) IsCorrect(answer int) bool {
	return answer == q.Answer
}

// FindQuestion returns the question with the given ID or nil if none exists.
func FindQuestion(db *gorm.DB, id uint64) (*Question, error) {
	var question Question
	err := db.First(&question, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &question, nil
}

// AllQuestions returns the entire question bank.
func AllQuestions(db *gorm.DB) ([]Question, error) {
	var questions []Question
	if err := db.Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// QuestionIDs returns the IDs of every question in the bank.
func QuestionIDs(db *gorm.DB) ([]uint64, error) {
	var ids []uint64
	if err := db.Model(&Question{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateQuestion persists the Question record to the database.
func CreateQuestion(db *gorm.DB, question *Question) error {
	return db.Create(question).Error
}
