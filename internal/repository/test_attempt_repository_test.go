package repository

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/learnhub/internal/model"
	"github.com/lshigami/learnhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNumberedAssignsDistinctNumbersUnderConcurrency(t *testing.T) {
	db := testutil.NewDB(t)
	course := testutil.SeedCourse(t, db, "Go Basics")
	student := testutil.SeedStudent(t, db, "Ada")
	test := testutil.SeedTest(t, db, course.ID, testutil.TestOptions{})
	repo := NewTestAttemptRepository(db)

	const workers = 8
	numbers := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				attempt := &model.TestAttempt{
					TestID:    test.ID,
					StudentID: student.ID,
					CourseID:  course.ID,
					StartTime: time.Now().UTC(),
					Status:    model.AttemptCompleted,
				}
				created, err := repo.CreateNumbered(context.Background(), attempt)
				if !assert.NoError(t, err) {
					return
				}
				if created {
					numbers <- attempt.AttemptNumber
					return
				}
			}
		}()
	}
	wg.Wait()
	close(numbers)

	var got []int
	for n := range numbers {
		got = append(got, n)
	}
	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, got)
}

func TestCreateNumberedRejectsSecondOpenAttempt(t *testing.T) {
	db := testutil.NewDB(t)
	course := testutil.SeedCourse(t, db, "Go Basics")
	student := testutil.SeedStudent(t, db, "Ada")
	test := testutil.SeedTest(t, db, course.ID, testutil.TestOptions{})
	repo := NewTestAttemptRepository(db)
	ctx := context.Background()

	newAttempt := func() *model.TestAttempt {
		return &model.TestAttempt{
			TestID:    test.ID,
			StudentID: student.ID,
			CourseID:  course.ID,
			StartTime: time.Now().UTC(),
			Status:    model.AttemptInProgress,
		}
	}

	first := newAttempt()
	created, err := repo.CreateNumbered(ctx, first)
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, 1, first.AttemptNumber)

	second := newAttempt()
	created, err = repo.CreateNumbered(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, second.ID)

	open, err := repo.FindOpen(ctx, test.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, open.ID)
}

func TestCompleteOnlyTransitionsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	course := testutil.SeedCourse(t, db, "Go Basics")
	student := testutil.SeedStudent(t, db, "Ada")
	test := testutil.SeedTest(t, db, course.ID, testutil.TestOptions{})
	repo := NewTestAttemptRepository(db)
	ctx := context.Background()

	attempt := &model.TestAttempt{
		TestID:    test.ID,
		StudentID: student.ID,
		CourseID:  course.ID,
		StartTime: time.Now().UTC(),
		Status:    model.AttemptInProgress,
	}
	created, err := repo.CreateNumbered(ctx, attempt)
	require.NoError(t, err)
	require.True(t, created)

	end := time.Now().UTC()
	attempt.EndTime = &end
	attempt.Score = 10
	attempt.TotalPossiblePoints = 10
	attempt.PercentageScore = 100
	attempt.Passed = true

	ok, err := repo.Complete(ctx, attempt)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Complete(ctx, attempt)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptCompleted, stored.Status)
	assert.Equal(t, 100, stored.PercentageScore)

	ok, err = repo.Transition(ctx, attempt.ID, model.AttemptInProgress, model.AttemptAbandoned, end)
	require.NoError(t, err)
	assert.False(t, ok)
}
