// Package scope matches "resource:action" permission scopes.
package scope

import (
	"strings"
)

// Scopes checked by the API.
const (
	CourseRead      = "course:read"
	CourseWrite     = "course:write"
	CourseManage    = "course:manage"
	QuizRead        = "quiz:read"
	QuizWrite       = "quiz:write"
	EnrollmentWrite = "enrollment:write"
	EnrollmentRead  = "enrollment:read"
	MeRead          = "me:read"
	RankingRead     = "ranking:read"
	BookmarkRead    = "bookmark:read"
	BookmarkWrite   = "bookmark:write"
	All             = "*"
)

// Student is the scope set granted to every registered user.
var Student = []string{CourseRead, CourseWrite, "quiz:*", "enrollment:*", "me:*", "bookmark:*", RankingRead}

// Admin is the scope set granted to administrators.
var Admin = []string{All}

// ShouldAllow checks if a user with given scopes can access a function requiring fnScope
// fnScope format: "resource:action" (e.g. "course:read") or empty for public functions
// userScope format: array of "resource:action", "resource:*", "*:action" or "*" patterns
func ShouldAllow(fnScope string, userScope []string) bool {
	// Public functions are accessible to everyone
	if fnScope == "" {
		return true
	}

	fnResource, fnAction, ok := split(fnScope)
	if !ok {
		return false
	}

	for _, scope := range userScope {
		if scope == All {
			return true
		}

		scopeResource, scopeAction, ok := split(scope)
		if !ok {
			continue
		}

		resourceMatch := scopeResource == "*" || scopeResource == fnResource
		actionMatch := scopeAction == "*" || scopeAction == fnAction

		if resourceMatch && actionMatch {
			return true
		}
	}

	return false
}

func split(scope string) (resource, action string, ok bool) {
	parts := strings.Split(scope, ":")
	if len(parts) != 2 {
		return "", "", false
	}

	return parts[0], parts[1], true
}
