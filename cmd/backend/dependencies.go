package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Depado/ginprom"
	"github.com/coursetutor/backend/httpapi"
	authservice "github.com/coursetutor/backend/httpapi/auth"
	bookmarkservice "github.com/coursetutor/backend/httpapi/bookmarks"
	courseservice "github.com/coursetutor/backend/httpapi/courses"
	meservice "github.com/coursetutor/backend/httpapi/me"
	quizservice "github.com/coursetutor/backend/httpapi/quiz"
	rankingservice "github.com/coursetutor/backend/httpapi/ranking"
	"github.com/coursetutor/backend/internal/analytics"
	"github.com/coursetutor/backend/internal/auth"
	"github.com/coursetutor/backend/internal/bookmark"
	"github.com/coursetutor/backend/internal/config"
	"github.com/coursetutor/backend/internal/course"
	"github.com/coursetutor/backend/internal/enrollment"
	"github.com/coursetutor/backend/internal/events"
	"github.com/coursetutor/backend/internal/gauth"
	"github.com/coursetutor/backend/internal/httputils"
	"github.com/coursetutor/backend/internal/quiz"
	"github.com/coursetutor/backend/internal/ranking"
	"github.com/coursetutor/backend/internal/store"
	"github.com/coursetutor/backend/internal/useraccount"
	"github.com/coursetutor/backend/internal/workers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/rueidis"
	sloggin "github.com/samber/slog-gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"

	_ "github.com/coursetutor/backend/internal/deps/logger"
)

// GAuthFlow creates the Google login flow, or returns nil when the
// Google login is not configured.
func GAuthFlow(redisClient rueidis.Client, cfg config.BackendConfig) *gauth.Flow {
	if !cfg.GAuth.Enabled() {
		slog.Info("google login is not configured")
		return nil
	}

	oauthConfig := gauth.BuildOAuthConfig(cfg.GAuth, cfg.Server.URI+"/api/auth/google/callback")
	return gauth.NewFlow(oauthConfig, gauth.NewRedisStateStorage(redisClient), cfg.GAuth.RedirectURIs)
}

// UserAccount creates the user account context.
func UserAccount(s *store.Store, storage auth.Storage, eventService *events.EventService) *useraccount.Context {
	return useraccount.NewContext(s, storage, eventService)
}

// CourseService creates the course service.
func CourseService(s *store.Store, eventService *events.EventService) *course.Service {
	return course.NewService(s, eventService)
}

// EnrollmentService creates the enrollment service over the courses.
func EnrollmentService(s *store.Store, courses *course.Service, eventService *events.EventService) *enrollment.Service {
	return enrollment.NewService(s, courses, eventService)
}

// QuizService creates the quiz service with the sessions kept in Redis.
func QuizService(s *store.Store, courses *course.Service, redisClient rueidis.Client, eventService *events.EventService, cfg config.BackendConfig) *quiz.Service {
	sessions := quiz.NewRedisSessionStorage(redisClient, cfg.Quiz.SessionTTL)
	return quiz.NewService(s, courses, sessions, eventService)
}

// AnalyticsService creates the course view analytics.
func AnalyticsService(s *store.Store, enrollments *enrollment.Service) *analytics.Service {
	return analytics.NewService(s, enrollments)
}

// BookmarkService creates the lesson bookmarks over the courses.
func BookmarkService(s *store.Store, courses *course.Service) *bookmark.Service {
	return bookmark.NewService(s, courses)
}

// AuthMiddleware creates an auth.Middleware that can be injected into gin.
func AuthMiddleware(storage auth.Storage) Middleware {
	return Middleware{
		Handler: auth.Middleware(storage),
	}
}

// MachineMiddleware creates a machine middleware that can be injected into gin.
func MachineMiddleware() Middleware {
	return Middleware{
		Handler: httputils.MachineMiddleware(),
	}
}

// CorsMiddleware creates a cors middleware that can be injected into gin.
func CorsMiddleware(cfg config.BackendConfig) Middleware {
	return Middleware{
		Handler: cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "User-Agent", "Referer"},
			AllowCredentials: true,
		}),
	}
}

// AuthService creates the account endpoints.
func AuthService(ua *useraccount.Context, cfg config.BackendConfig, flow *gauth.Flow) *authservice.AuthService {
	return authservice.NewAuthService(ua, cfg, flow)
}

// CoursesService creates the course, enrollment and course analytics endpoints.
func CoursesService(courses *course.Service, enrollments *enrollment.Service, analytics *analytics.Service) *courseservice.CourseService {
	return courseservice.NewCourseService(courses, enrollments, analytics)
}

// MeService creates the current user endpoints.
func MeService(s *store.Store, enrollments *enrollment.Service) *meservice.MeService {
	return meservice.NewMeService(s, enrollments)
}

// QuizSessionService creates the quiz session endpoints.
func QuizSessionService(quizzes *quiz.Service) *quizservice.QuizService {
	return quizservice.NewQuizService(quizzes)
}

// LeaderboardService creates the ranking endpoint.
func LeaderboardService(s *store.Store) *rankingservice.RankingService {
	return rankingservice.NewRankingService(ranking.NewService(s))
}

// BookmarksService creates the lesson bookmark endpoints.
func BookmarksService(bookmarks *bookmark.Service) *bookmarkservice.BookmarkService {
	return bookmarkservice.NewBookmarkService(bookmarks)
}

// GinEngine creates a gin engine.
func GinEngine(services []httpapi.Service, middlewares []Middleware, s *store.Store, cfg config.BackendConfig) *gin.Engine {
	engine := gin.New()

	if err := engine.SetTrustedProxies(cfg.TrustProxies); err != nil {
		slog.Error("error setting trusted proxies", "error", err)
	}

	prom := ginprom.New(
		ginprom.Engine(engine),
		ginprom.Namespace("coursetutor"),
		ginprom.Subsystem("http"),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz", "/metrics"),
	)

	engine.Use(
		otelgin.Middleware(cfg.OTel.ServiceName),
		sloggin.New(slog.Default()),
		prom.Instrument(),
	)

	for _, middleware := range middlewares {
		engine.Use(middleware.Handler)
	}

	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		if err := s.Ping(c.Request.Context()); err != nil {
			httputils.Error(c, http.StatusServiceUnavailable, "database unavailable", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	httpapi.Register(api, services...)

	return engine
}

// GinLifecycle starts the gin engine.
func GinLifecycle(lifecycle fx.Lifecycle, engine *gin.Engine, cfg config.BackendConfig) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				slog.Info("gin engine starting", "address", srv.Addr, "proto", cfg.Server.GetProto())

				var err error
				if cfg.Server.CertFile != nil && cfg.Server.KeyFile != nil {
					err = srv.ListenAndServeTLS(*cfg.Server.CertFile, *cfg.Server.KeyFile)
				} else {
					err = srv.ListenAndServe()
				}
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("error running gin engine", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil {
				slog.Error("error shutting down gin engine", "error", err)
			}

			// flush the pending events before the store is closed
			workers.Global.Wait()
			return nil
		},
	})
}

// Middleware is a middleware that can be injected into gin.
type Middleware struct {
	Handler gin.HandlerFunc
}

// AnnotateMiddleware annotates a middleware function to be injected into gin.
func AnnotateMiddleware(f any) any {
	return fx.Annotate(
		f,
		fx.ResultTags(`group:"middlewares"`),
	)
}

// AnnotateService annotates a service function to be injected into gin.
func AnnotateService(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(httpapi.Service)),
		fx.ResultTags(`group:"services"`),
	)
}
