package routes

import (
	"log"

	"tunilearn/backend/config"
	"tunilearn/backend/controllers"
	"tunilearn/backend/middleware"
	_ "tunilearn/backend/docs"
	"tunilearn/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"gorm.io/gorm"
)

// NewApp builds the HTTP application with the global middleware chain and all routes.
func NewApp(db *gorm.DB, cfg *config.Config, logger *log.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "TuniLearn",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: utils.NewErrorHandler(logger),
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: cfg.CORSOrigin != "*",
	}))
	app.Use(compress.New())
	app.Use(etag.New())
	app.Use(middleware.LoggingMiddleware(logger, cfg.LogFormat != "json"))

	app.Static("/uploads", cfg.UploadDir, fiber.Static{Browse: false})
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	SetupRoutes(app, db, cfg, logger)
	return app
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *log.Logger) {
	dashboardController := controllers.NewDashboardController(db, cfg, logger)
	app.Get("/health", dashboardController.Health)

	api := app.Group("/api", middleware.Identify(cfg))

	// Gates
	authenticated := middleware.RequireAuth()
	adminOnly := middleware.IsAdmin()
	teacherOnly := middleware.IsTeacher()
	studentOnly := middleware.IsStudent()
	teacherOrAdmin := middleware.IsTeacherOrAdmin()
	profileDone := middleware.RequireProfileCompletion()

	courseUploads := middleware.UploadFields(map[string]int{"thumbnail": 1, "resources": 10})
	sectionUploads := middleware.UploadFields(map[string]int{"pdf": 1})
	profileUploads := middleware.UploadFields(map[string]int{"profileImage": 1})

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, logger)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RegisterRateLimiter(), authController.Register)
	auth.Post("/login", middleware.LoginRateLimiter(), authController.Login)
	auth.Get("/google", authController.GoogleLogin)
	auth.Post("/google", authController.GoogleTokenLogin)
	auth.Get("/google/callback", authController.GoogleCallback)
	auth.Get("/me", authenticated, authController.Me)
	auth.Get("/check", authController.Check)
	auth.Post("/logout", authController.Logout)
	auth.Post("/complete-profile", authenticated, authController.CompleteProfile)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg, logger)
	courses := api.Group("/courses")
	courses.Get("/", coursesController.GetCourses)
	courses.Post("/", teacherOnly, profileDone, courseUploads, coursesController.CreateCourse)
	courses.Post("/compose", teacherOnly, profileDone, coursesController.ComposeCourse)
	courses.Get("/:id", coursesController.GetCourse)
	courses.Put("/:id", teacherOrAdmin, courseUploads, coursesController.UpdateCourse)
	courses.Delete("/:id", teacherOrAdmin, coursesController.DeleteCourse)
	courses.Patch("/:id/approve", adminOnly, coursesController.ApproveCourse)
	courses.Post("/:courseId/chapters", teacherOrAdmin, coursesController.AddChapter)

	// Chapters routes
	chaptersController := controllers.NewChaptersController(db, cfg, logger)
	sectionsController := controllers.NewSectionsController(db, cfg, logger)
	chapters := api.Group("/chapters")
	chapters.Get("/", chaptersController.GetChapters)
	chapters.Post("/", teacherOrAdmin, chaptersController.CreateChapter)
	chapters.Get("/:id", chaptersController.GetChapter)
	chapters.Put("/:id", teacherOrAdmin, chaptersController.UpdateChapter)
	chapters.Delete("/:id", teacherOrAdmin, chaptersController.DeleteChapter)
	chapters.Post("/:chapterId/sections", teacherOrAdmin, sectionUploads, sectionsController.CreateSection)

	// Sections routes
	sections := api.Group("/sections")
	sections.Get("/", sectionsController.GetSections)
	sections.Post("/", teacherOrAdmin, sectionUploads, sectionsController.CreateSection)
	sections.Post("/upload-pdf", teacherOnly, sectionUploads, sectionsController.UploadPDF)
	sections.Get("/:id", sectionsController.GetSection)
	sections.Put("/:id", teacherOrAdmin, sectionUploads, sectionsController.UpdateSection)
	sections.Delete("/:id", teacherOrAdmin, sectionsController.DeleteSection)

	// Subjects routes
	subjectsController := controllers.NewSubjectsController(db, cfg, logger)
	api.Get("/subjects", subjectsController.GetSubjects)
	api.Post("/subjects", teacherOrAdmin, subjectsController.CreateSubject)

	// Enrollments routes
	enrollmentsController := controllers.NewEnrollmentsController(db, cfg, logger)
	api.Post("/enrollments", studentOnly, profileDone, enrollmentsController.Enroll)
	api.Get("/enrollments/students/:id/enrollments", authenticated, enrollmentsController.GetStudentEnrollments)

	// Profile routes
	teacherController := controllers.NewTeacherController(db, cfg, logger)
	api.Get("/teacher/:id", teacherController.GetTeacher)
	api.Put("/teacher/:id", authenticated, profileUploads, teacherController.UpdateTeacher)

	userController := controllers.NewUserController(db, cfg, logger)
	api.Get("/users/:id", authenticated, userController.GetUser)
	api.Put("/users/:id", authenticated, userController.UpdateUser)

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/admin", adminOnly, profileDone, dashboardController.GetAdminDashboard)
	dashboard.Get("/teacher", teacherOnly, profileDone, dashboardController.GetTeacherDashboard)
	dashboard.Get("/student", studentOnly, profileDone, dashboardController.GetStudentDashboard)
}
