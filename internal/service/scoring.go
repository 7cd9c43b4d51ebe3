package service

import (
	"math"

	"github.com/lshigami/learnhub/internal/model"
)

// GradeAnswer is the single scoring rule shared by submitted attempts and
// practice checks. Unknown option ids, empty selections and unknown question
// types are graded as incorrect.
func GradeAnswer(q model.Question, selected []uint) (bool, int) {
	chosen := distinct(selected)
	if len(chosen) == 0 {
		return false, 0
	}

	known := make(map[uint]bool, len(q.Options))
	for _, o := range q.Options {
		known[o.ID] = o.IsCorrect
	}
	for id := range chosen {
		if _, ok := known[id]; !ok {
			return false, 0
		}
	}

	correct := distinct(q.CorrectOptionIDs())
	if len(correct) == 0 {
		return false, 0
	}

	switch q.Type {
	case model.QuestionTypeMultipleChoice:
		if len(chosen) != len(correct) {
			return false, 0
		}
		for id := range chosen {
			if !correct[id] {
				return false, 0
			}
		}
		return true, q.Points
	case model.QuestionTypeTrueFalse:
		if len(chosen) != 1 {
			return false, 0
		}
		for id := range chosen {
			if known[id] {
				return true, q.Points
			}
		}
		return false, 0
	default:
		return false, 0
	}
}

// PercentageScore is round(100*score/total), or 0 when total is not positive.
func PercentageScore(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) * 100 / float64(total)))
}

func IsPassing(percentage, passingScore int) bool {
	return percentage >= passingScore
}

func distinct(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
