package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lshigami/learnhub/internal/repository"
	"github.com/lshigami/learnhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	values map[string]string
	sets   int
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.values[key] = value
	c.sets++
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

type downCache struct{}

func (downCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}
func (downCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}
func (downCache) Delete(context.Context, string) error { return errors.New("connection refused") }

func TestCacheOrLoad(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{values: map[string]string{}}
	loads := 0
	load := func() (string, error) {
		loads++
		return "Go Basics", nil
	}

	for i := 0; i < 3; i++ {
		v, err := cacheOrLoad(ctx, cache, "course:1:title", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "Go Basics", v)
	}
	assert.Equal(t, 1, loads)
	assert.Equal(t, 1, cache.sets)

	_, err := cacheOrLoad(ctx, cache, "course:2:title", time.Minute, func() (string, error) {
		return "", errors.New("boom")
	})
	assert.Error(t, err)
	assert.NotContains(t, cache.values, "course:2:title")
}

func TestCatalogSurvivesCacheOutage(t *testing.T) {
	db := testutil.NewDB(t)
	course := testutil.SeedCourse(t, db, "Networking")
	student := testutil.SeedStudent(t, db, "Linus")

	catalog := NewCourseCatalog(repository.NewCourseRepository(db), downCache{}, nil)
	directory := NewStudentDirectory(repository.NewStudentRepository(db), downCache{}, nil)
	ctx := context.Background()

	title, err := catalog.CourseTitle(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Networking", title)

	name, err := directory.StudentName(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linus", name)

	_, err = catalog.CourseTitle(ctx, course.ID+100)
	assert.Error(t, err)
}

func TestNewCacheWithoutClientIsNoop(t *testing.T) {
	cache := NewCache(nil)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
