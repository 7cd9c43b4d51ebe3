package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Answer is graded once at submission and never mutated afterwards.
type Answer struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	TestAttemptID     uint           `json:"test_attempt_id" gorm:"not null;index"`
	QuestionID        uint           `json:"question_id" gorm:"not null;index"`
	SelectedOptionIDs datatypes.JSON `json:"selected_option_ids" gorm:"type:json"`
	TextAnswer        string         `json:"text_answer,omitempty" gorm:"type:text"`
	IsCorrect         bool           `json:"is_correct" gorm:"not null;default:false"`
	PointsEarned      int            `json:"points_earned" gorm:"not null;default:0"`
	CreatedAt         time.Time      `json:"created_at"`
}

// SetSelected stores the chosen option ids.
func (a *Answer) SetSelected(ids []uint) error {
	if ids == nil {
		ids = []uint{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	a.SelectedOptionIDs = datatypes.JSON(raw)
	return nil
}

// Selected decodes the chosen option ids. Undecodable payloads yield nil.
func (a *Answer) Selected() []uint {
	if len(a.SelectedOptionIDs) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(a.SelectedOptionIDs, &ids); err != nil {
		return nil
	}
	return ids
}
