package dto

// SubmittedAnswerDTO is a student's answer to a single question.
type SubmittedAnswerDTO struct {
	QuestionID        uint   `json:"question_id" binding:"required"`
	SelectedOptionIDs []uint `json:"selected_option_ids"`
	TextAnswer        string `json:"text_answer,omitempty"`
}

// TestAttemptSubmitDTO is the request DTO for closing an attempt.
type TestAttemptSubmitDTO struct {
	AttemptID uint                 `json:"attempt_id" binding:"required"`
	Answers   []SubmittedAnswerDTO `json:"answers" binding:"dive"`
}

// PracticeCheckDTO grades answers without recording an attempt.
type PracticeCheckDTO struct {
	Answers []SubmittedAnswerDTO `json:"answers" binding:"required,min=1,dive"`
}
