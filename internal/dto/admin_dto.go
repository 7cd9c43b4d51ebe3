package dto

import "time"

// OptionCreateDTO is one answer choice of a question.
type OptionCreateDTO struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionCreateDTO is used within TestCreateDTO and for adding a question to a draft test.
type QuestionCreateDTO struct {
	Text        string            `json:"text" binding:"required"`
	Type        string            `json:"type" binding:"required,oneof=multiple_choice true_false"`
	OrderInTest int               `json:"order_in_test" binding:"min=0"`
	Points      int               `json:"points" binding:"required,min=1"`
	Options     []OptionCreateDTO `json:"options" binding:"required,min=2,dive"`
}

// TestCreateDTO is for admin to create a new test with all its questions.
type TestCreateDTO struct {
	CourseID          uint                `json:"course_id" binding:"required"`
	Title             string              `json:"title" binding:"required"`
	Description       string              `json:"description,omitempty"`
	PassingScore      int                 `json:"passing_score" binding:"min=0,max=100"`
	DurationMinutes   int                 `json:"duration_minutes" binding:"min=0"`
	TotalPoints       int                 `json:"total_points" binding:"min=0"` // reconciled with the question points
	DueDate           *time.Time          `json:"due_date,omitempty"`
	MaxAttempts       int                 `json:"max_attempts" binding:"min=0"`
	IsCertificateTest bool                `json:"is_certificate_test"`
	Publish           bool                `json:"publish"`
	Questions         []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

type TestStatusUpdateDTO struct {
	Status string `json:"status" binding:"required,oneof=draft published archived"`
}

type CourseCreateDTO struct {
	Title       string `json:"title" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"description,omitempty"`
}

type StudentCreateDTO struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type EnrollmentCreateDTO struct {
	StudentID uint `json:"student_id" binding:"required"`
	CourseID  uint `json:"course_id" binding:"required"`
}

type RevokeCertificateDTO struct {
	Reason string `json:"reason" binding:"required"`
}

type CourseResponseDTO struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type StudentResponseDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type EnrollmentResponseDTO struct {
	ID        uint      `json:"id"`
	StudentID uint      `json:"student_id"`
	CourseID  uint      `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminOptionDTO exposes correctness flags; only admin responses use it.
type AdminOptionDTO struct {
	ID              uint   `json:"id"`
	Text            string `json:"text"`
	IsCorrect       bool   `json:"is_correct"`
	OrderInQuestion int    `json:"order_in_question"`
}

type AdminQuestionDTO struct {
	ID          uint             `json:"id"`
	TestID      uint             `json:"test_id"`
	Text        string           `json:"text"`
	Type        string           `json:"type"`
	OrderInTest int              `json:"order_in_test"`
	Points      int              `json:"points"`
	Options     []AdminOptionDTO `json:"options"`
}

// AdminTestResponseDTO is the full test definition returned to admins.
type AdminTestResponseDTO struct {
	ID                uint               `json:"id"`
	CourseID          uint               `json:"course_id"`
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	PassingScore      int                `json:"passing_score"`
	DurationMinutes   int                `json:"duration_minutes"`
	TotalPoints       int                `json:"total_points"`
	DueDate           *time.Time         `json:"due_date,omitempty"`
	MaxAttempts       int                `json:"max_attempts"`
	IsCertificateTest bool               `json:"is_certificate_test"`
	Status            string             `json:"status"`
	Questions         []AdminQuestionDTO `json:"questions"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
