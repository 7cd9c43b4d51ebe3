package model

import (
	"time"
)

type TestStatus string

const (
	TestStatusDraft     TestStatus = "draft"
	TestStatusPublished TestStatus = "published"
	TestStatusArchived  TestStatus = "archived"
)

type Test struct {
	ID                uint       `gorm:"primarykey" json:"id"`
	CourseID          uint       `json:"course_id" gorm:"not null;index"`
	Course            Course     `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Title             string     `json:"title" gorm:"not null"`
	Description       string     `json:"description,omitempty" gorm:"type:text"`
	PassingScore      int        `json:"passing_score" gorm:"not null"`              // percentage, 0-100
	DurationMinutes   int        `json:"duration_minutes" gorm:"not null;default:0"` // 0 = untimed
	TotalPoints       int        `json:"total_points" gorm:"not null;default:0"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	MaxAttempts       int        `json:"max_attempts" gorm:"not null;default:0"` // 0 = unlimited
	IsCertificateTest bool       `json:"is_certificate_test" gorm:"not null;default:false"`
	Status            TestStatus `json:"status" gorm:"type:varchar(16);not null;default:'draft';index"`
	Questions         []Question `json:"questions,omitempty" gorm:"foreignKey:TestID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Duration is the allowed time per attempt; zero means untimed.
func (t *Test) Duration() time.Duration {
	return time.Duration(t.DurationMinutes) * time.Minute
}

// SumQuestionPoints adds up the points of the loaded questions.
func (t *Test) SumQuestionPoints() int {
	total := 0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}

// QuestionByID returns the loaded question with the given id.
func (t *Test) QuestionByID(id uint) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
