package model

import (
	"time"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

type Question struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	TestID      uint             `json:"test_id" gorm:"not null;index"`
	Text        string           `json:"text" gorm:"type:text;not null"`
	Type        QuestionType     `json:"type" gorm:"type:varchar(32);not null"`
	OrderInTest int              `json:"order_in_test" gorm:"not null"`
	Points      int              `json:"points" gorm:"not null;default:1"`
	Options     []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type QuestionOption struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	QuestionID      uint      `json:"question_id" gorm:"not null;index"`
	Text            string    `json:"text" gorm:"type:text;not null"`
	IsCorrect       bool      `json:"is_correct" gorm:"not null;default:false"`
	OrderInQuestion int       `json:"order_in_question" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CorrectOptionIDs lists the ids of the options flagged correct.
func (q *Question) CorrectOptionIDs() []uint {
	var ids []uint
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
