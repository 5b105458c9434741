package scope_test

import (
	"testing"

	"github.com/coursetutor/backend/internal/scope"
	"github.com/stretchr/testify/assert"
)

func TestShouldAllow(t *testing.T) {
	t.Run("public function is allowed for everyone", func(t *testing.T) {
		assert.True(t, scope.ShouldAllow("", nil))
		assert.True(t, scope.ShouldAllow("", []string{"course:read"}))
		assert.True(t, scope.ShouldAllow("", []string{"*"}))
	})

	t.Run("no scope denies private function", func(t *testing.T) {
		assert.False(t, scope.ShouldAllow("course:read", nil))
	})

	t.Run("wildcard allows everything", func(t *testing.T) {
		assert.True(t, scope.ShouldAllow("course:manage", []string{"*"}))
	})

	t.Run("exact scope", func(t *testing.T) {
		userScope := []string{"course:read"}

		assert.True(t, scope.ShouldAllow("course:read", userScope))
		assert.False(t, scope.ShouldAllow("course:write", userScope))
		assert.False(t, scope.ShouldAllow("quiz:read", userScope))
	})

	t.Run("resource wildcard", func(t *testing.T) {
		userScope := []string{"quiz:*"}

		assert.True(t, scope.ShouldAllow("quiz:take", userScope))
		assert.True(t, scope.ShouldAllow("quiz:read", userScope))
		assert.False(t, scope.ShouldAllow("course:read", userScope))
	})

	t.Run("action wildcard", func(t *testing.T) {
		userScope := []string{"*:read"}

		assert.True(t, scope.ShouldAllow("course:read", userScope))
		assert.True(t, scope.ShouldAllow("enrollment:read", userScope))
		assert.False(t, scope.ShouldAllow("course:write", userScope))
	})

	t.Run("bad scope format never matches", func(t *testing.T) {
		assert.False(t, scope.ShouldAllow("course:read", []string{"course:read:write"}))
		assert.False(t, scope.ShouldAllow("course", []string{"course:*"}))
	})
}

func TestStudentScopes(t *testing.T) {
	for _, fnScope := range []string{
		scope.CourseRead, scope.CourseWrite, scope.QuizRead, scope.QuizWrite,
		scope.EnrollmentRead, scope.EnrollmentWrite, scope.MeRead, scope.RankingRead,
		scope.BookmarkRead, scope.BookmarkWrite,
	} {
		assert.True(t, scope.ShouldAllow(fnScope, scope.Student), fnScope)
	}

	assert.False(t, scope.ShouldAllow(scope.CourseManage, scope.Student))
	assert.True(t, scope.ShouldAllow(scope.CourseManage, scope.Admin))
}
