// Package testutil provides an in-memory database and seed data for package
// tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lshigami/learnhub/database"
	"github.com/lshigami/learnhub/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Uint64

// NewDB opens a private in-memory database with every table migrated. The
// pool is capped at one connection so all goroutines see the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func next() uint64 { return seq.Add(1) }

func SeedCourse(t *testing.T, db *gorm.DB, title string) *model.Course {
	t.Helper()
	course := &model.Course{Title: title, Code: fmt.Sprintf("C-%d", next())}
	require.NoError(t, db.Create(course).Error)
	return course
}

func SeedStudent(t *testing.T, db *gorm.DB, name string) *model.Student {
	t.Helper()
	student := &model.Student{Name: name, Email: fmt.Sprintf("student%d@example.com", next())}
	require.NoError(t, db.Create(student).Error)
	return student
}

func Enroll(t *testing.T, db *gorm.DB, studentID, courseID uint) {
	t.Helper()
	require.NoError(t, db.Create(&model.Enrollment{StudentID: studentID, CourseID: courseID}).Error)
}

// TestOptions tweaks the test created by SeedTest.
type TestOptions struct {
	PassingScore      int
	DurationMinutes   int
	MaxAttempts       int
	IsCertificateTest bool
	DueDate           *time.Time
	Status            model.TestStatus
	// QuestionPoints holds one entry per question. Each question is multiple
	// choice with one correct option followed by one wrong option.
	QuestionPoints []int
}

// SeedTest creates a test with its questions and options. Defaults: published,
// passing score 70, two questions of 5 points.
func SeedTest(t *testing.T, db *gorm.DB, courseID uint, opts TestOptions) *model.Test {
	t.Helper()
	if opts.PassingScore == 0 {
		opts.PassingScore = 70
	}
	if opts.Status == "" {
		opts.Status = model.TestStatusPublished
	}
	if len(opts.QuestionPoints) == 0 {
		opts.QuestionPoints = []int{5, 5}
	}

	test := &model.Test{
		CourseID:          courseID,
		Title:             fmt.Sprintf("Test %d", next()),
		PassingScore:      opts.PassingScore,
		DurationMinutes:   opts.DurationMinutes,
		MaxAttempts:       opts.MaxAttempts,
		IsCertificateTest: opts.IsCertificateTest,
		DueDate:           opts.DueDate,
		Status:            opts.Status,
	}
	for i, points := range opts.QuestionPoints {
		test.Questions = append(test.Questions, model.Question{
			Text:        fmt.Sprintf("Question %d", i+1),
			Type:        model.QuestionTypeMultipleChoice,
			OrderInTest: i + 1,
			Points:      points,
			Options: []model.QuestionOption{
				{Text: "right", IsCorrect: true, OrderInQuestion: 1},
				{Text: "wrong", IsCorrect: false, OrderInQuestion: 2},
			},
		})
		test.TotalPoints += points
	}
	require.NoError(t, db.Create(test).Error)
	return test
}

// CorrectOption returns the id of the correct option of question i.
func CorrectOption(test *model.Test, i int) uint {
	return test.Questions[i].Options[0].ID
}

// WrongOption returns the id of the wrong option of question i.
func WrongOption(test *model.Test, i int) uint {
	return test.Questions[i].Options[1].ID
}
