package main

import (
	"github.com/coursetutor/backend/internal/deps"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		deps.FxCommonModule,
		fx.Provide(
			GAuthFlow,
			UserAccount,
			CourseService,
			EnrollmentService,
			QuizService,
			AnalyticsService,
			BookmarkService,
			AnnotateMiddleware(MachineMiddleware),
			AnnotateMiddleware(CorsMiddleware),
			AnnotateMiddleware(AuthMiddleware),
			AnnotateService(AuthService),
			AnnotateService(CoursesService),
			AnnotateService(MeService),
			AnnotateService(QuizSessionService),
			AnnotateService(LeaderboardService),
			AnnotateService(BookmarksService),
			fx.Annotate(
				GinEngine,
				fx.ParamTags(`group:"services"`, `group:"middlewares"`),
			),
		),
		fx.Invoke(GinLifecycle),
	)

	app.Run()
}
