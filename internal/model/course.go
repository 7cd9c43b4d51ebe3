package model

import (
	"time"
)

type Course struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Title       string    `json:"title" gorm:"not null"`
	Code        string    `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Student struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Enrollment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	StudentID uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course,priority:1"`
	CourseID  uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_student_course,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Course{},
		&Student{},
		&Enrollment{},
		&Test{},
		&Question{},
		&QuestionOption{},
		&TestAttempt{},
		&Answer{},
		&Certificate{},
	}
}
