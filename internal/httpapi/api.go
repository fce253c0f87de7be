// Package httpapi assembles the gin router and the JSON handlers for the
// identity, catalog and attendance surfaces.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classtrack/internal/attendance"
	"classtrack/internal/auth"
	"classtrack/internal/catalog"
	"classtrack/internal/config"
	"classtrack/internal/httpmiddleware"
	"classtrack/internal/metrics"
	"classtrack/internal/user"
)

// UserStore is the identity surface the handlers need.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	ByEmail(ctx context.Context, email string) (user.User, error)
	ByID(ctx context.Context, id string) (user.User, error)
}

// CatalogStore is the catalog surface the handlers need.
type CatalogStore interface {
	CreateCourse(ctx context.Context, c catalog.Course) (catalog.Course, error)
	GetCourse(ctx context.Context, id string) (catalog.Course, error)
	ListCourses(ctx context.Context) ([]catalog.Course, error)
	UpdateCourse(ctx context.Context, c catalog.Course) (catalog.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	CreateTimetable(ctx context.Context, t catalog.Timetable) (catalog.Timetable, error)
	ListTimetables(ctx context.Context, courseID string) ([]catalog.Timetable, error)
	UpdateTimetable(ctx context.Context, t catalog.Timetable) (catalog.Timetable, error)
	DeleteTimetable(ctx context.Context, id string) error
	Enroll(ctx context.Context, courseID, studentID string) (catalog.Enrollment, error)
	Unenroll(ctx context.Context, courseID, studentID string) error
	EnrolledStudents(ctx context.Context, courseID string) ([]catalog.Student, error)
}

// Healther reports a dependency's liveness for /healthz.
type Healther interface {
	Healthy(ctx context.Context) bool
}

// API bundles the handler dependencies.
type API struct {
	Cfg        config.App
	Log        *zap.Logger
	Users      UserStore
	Catalog    CatalogStore
	Attendance *attendance.Service
	Redis      Healther
	DBPing     func(ctx context.Context) error
}

// Router builds the gin engine with the full middleware chain and routes.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(a.Log))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(a.Cfg.RateLimitPerMin, a.Cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running")
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", a.healthz)

	api := r.Group("/api")

	authz := api.Group("/auth")
	authz.POST("/register", a.register)
	authz.POST("/login", a.login)
	authz.GET("/me", a.requireAuth(), a.me)

	courses := api.Group("/courses", a.requireAuth())
	courses.POST("", a.teacherOrAdmin(), a.createCourse)
	courses.GET("", a.listCourses)
	courses.GET("/:id", a.getCourse)
	courses.PUT("/:id", a.teacherOrAdmin(), a.updateCourse)
	courses.DELETE("/:id", a.teacherOrAdmin(), a.deleteCourse)
	courses.POST("/:id/enroll", a.teacherOrAdmin(), a.enrollStudent)
	courses.DELETE("/:id/enroll/:studentId", a.teacherOrAdmin(), a.unenrollStudent)
	courses.GET("/:id/students", a.teacherOrAdmin(), a.enrolledStudents)

	timetables := api.Group("/timetables", a.requireAuth())
	timetables.POST("", a.teacherOrAdmin(), a.createTimetable)
	timetables.GET("", a.listTimetables)
	timetables.GET("/by-course/:courseId", a.listTimetablesByCourse)
	timetables.PUT("/:id", a.teacherOrAdmin(), a.updateTimetable)
	timetables.DELETE("/:id", a.teacherOrAdmin(), a.deleteTimetable)

	att := api.Group("/attendance", a.requireAuth())
	att.POST("/session", a.teacherOrAdmin(), a.createSession)
	att.GET("/session/:id", a.getSession)
	att.GET("/session/:id/qr.png", a.sessionQRImage)
	att.GET("/session/:id/records", a.teacherOrAdmin(), a.sessionRecords)
	att.POST("/scan", a.studentOnly(), a.scan)
	att.GET("/history/:courseId", a.studentOnly(), a.history)
	att.GET("/calendar/:courseId", a.studentOnly(), a.calendar)
	att.GET("/course/:courseId/students", a.teacherOrAdmin(), a.roster)
	att.GET("/course/:courseId/attendance-matrix", a.teacherOrAdmin(), a.attendanceMatrix)
	att.GET("/course/:courseId/export", a.teacherOrAdmin(), a.exportMatrix)

	return r
}

func (a *API) requireAuth() gin.HandlerFunc {
	return auth.RequireAuth(a.Cfg.JWTSigningKey, a.Cfg.JWTIssuer)
}

func (a *API) teacherOrAdmin() gin.HandlerFunc {
	return auth.RequireRole(user.RoleTeacher, user.RoleAdmin)
}

func (a *API) studentOnly() gin.HandlerFunc {
	return auth.RequireRole(user.RoleStudent)
}

func (a *API) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	dbHealthy := a.DBPing == nil || a.DBPing(ctx) == nil
	redisHealthy := a.Redis != nil && a.Redis.Healthy(ctx)
	status := http.StatusOK
	if !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "db": dbHealthy, "redis": redisHealthy})
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
