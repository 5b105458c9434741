package main

import (
	"context"
	"log"
	"os"

	ctcli "github.com/coursetutor/backend/cli"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/deps"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/useraccount"

	_ "github.com/coursetutor/backend/internal/deps/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := deps.Config()
	if err != nil {
		log.Fatal(err)
	}

	s, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	redisClient, err := deps.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	eventService := events.NewEventService(s)
	authStorage := auth.NewRedisStorage(redisClient, auth.WithTokenExpire(cfg.Auth.TokenTTL))

	c := ctcli.NewContext(
		s,
		useraccount.NewContext(s, authStorage, eventService),
		course.NewService(s, eventService),
	)

	rootCommand := newRootCommand(
		newMigrateCommand(c),
		newPromoteAdminCommand(c),
		newSeedCoursesCommand(c),
		newTakeQuizCommand(c),
	)

	if err := rootCommand.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
