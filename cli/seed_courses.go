package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/coursetutor/backend/internal/course"
)

// SystemOwnerID owns the seeded courses when no owner is given.
const SystemOwnerID = "system"

// SeedResult counts the seeded courses.
type SeedResult struct {
	Created int
	Skipped int
}

// SeedCourses creates the courses of an import file. A course whose
// title is already used by the same owner is skipped.
func (c *Context) SeedCourses(ctx context.Context, r io.Reader, ownerEmail string) (SeedResult, error) {
	drafts, err := course.ParseImport(r)
	if err != nil {
		return SeedResult{}, err
	}

	ownerID := SystemOwnerID
	if ownerEmail != "" {
		owner, err := c.useraccount.GetUserByEmail(ctx, ownerEmail)
		if err != nil {
			return SeedResult{}, fmt.Errorf("get owner %q: %w", ownerEmail, err)
		}
		ownerID = owner.ID
	}

	var result SeedResult
	for i, d := range drafts {
		exists, err := c.courseExists(ctx, ownerID, strings.TrimSpace(d.Title))
		if err != nil {
			return result, err
		}
		if exists {
			log.Printf("⚠️ Course %q already exists, skipping creation", d.Title)
			result.Skipped++
			continue
		}

		created, err := c.courses.Create(ctx, ownerID, d)
		if err != nil {
			return result, fmt.Errorf("course #%d (%q): %w", i, d.Title, err)
		}

		log.Printf("✅ Course %q (%d lessons, %s) is created", created.Title, len(created.Lessons), created.ID)
		result.Created++
	}

	return result, nil
}

func (c *Context) courseExists(ctx context.Context, ownerID, title string) (bool, error) {
	courses, _, err := c.courses.List(ctx, course.Filter{Query: title, Limit: course.MaxListLimit})
	if err != nil {
		return false, fmt.Errorf("list courses: %w", err)
	}

	for _, existing := range courses {
		if existing.OwnerID == ownerID && existing.Title == title {
			return true, nil
		}
	}

	return false, nil
}
