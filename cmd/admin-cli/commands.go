package main

import (
	"context"
	"fmt"
	"os"

	ctcli "github.com/coursetutor/backend/cli"
	"github.com/coursetutor/backend/internal/workers"
	"github.com/urfave/cli/v3"
)

func newMigrateCommand(clictx *ctcli.Context) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Migrate the database to the latest version",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Println("Migrating the database to the latest version…")
			if err := clictx.Migrate(ctx); err != nil {
				return err
			}

			fmt.Println("✅ Migration complete!")
			return nil
		},
	}
}

func newPromoteAdminCommand(clictx *ctcli.Context) *cli.Command {
	return &cli.Command{
		Name:  "promote-admin",
		Usage: "Promote a user to an administrator account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Usage:    "The email of the user to promote.",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			email := c.String("email")
			fmt.Println("Promoting user", email, "to an administrator account.")

			if err := clictx.PromoteAdmin(ctx, email); err != nil {
				return err
			}

			fmt.Println("✅ User", email, "has been promoted to an administrator. They need to log in again.")

			return nil
		},
	}
}

func newSeedCoursesCommand(clictx *ctcli.Context) *cli.Command {
	return &cli.Command{
		Name:        "seed-courses",
		Usage:       "Seed the courses from a JSON file",
		Description: "Seed the courses from a JSON file. It should be a list of courses with `{title, description, author?, difficulty?, estimatedHours?, lessons: [{title?, content, order?, quiz?}]}`.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "The JSON file to seed the courses from.",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "owner",
				Usage: "The email of the user owning the courses. Defaults to the system.",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			f, err := os.Open(c.String("file"))
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer func() { _ = f.Close() }()

			fmt.Printf("Seeding the courses from %q…\n", c.String("file"))

			result, err := clictx.SeedCourses(ctx, f, c.String("owner"))
			// the course events are written in the background
			workers.Global.Wait()
			if err != nil {
				return err
			}

			fmt.Printf("✅ Courses seeded! (%d created, %d skipped)\n", result.Created, result.Skipped)
			return nil
		},
	}
}

func newTakeQuizCommand(clictx *ctcli.Context) *cli.Command {
	return &cli.Command{
		Name:  "take-quiz",
		Usage: "Take the quiz of a lesson in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "course",
				Usage:    "The ID of the course.",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "lesson",
				Usage:    "The 0-based index of the lesson.",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return clictx.TakeQuiz(ctx, c.String("course"), int(c.Int("lesson")))
		},
	}
}

func newRootCommand(subcommands ...*cli.Command) *cli.Command {
	return &cli.Command{
		Name:     "admin-cli",
		Usage:    "A CLI tool for managing the CourseTutor instance.",
		Commands: subcommands,
	}
}
