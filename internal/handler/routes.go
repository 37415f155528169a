package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bizex-academy/portal-api/internal/middleware"
	"github.com/bizex-academy/portal-api/internal/models"
	"github.com/bizex-academy/portal-api/internal/service"
)

// Handlers bundles every HTTP handler of the API.
type Handlers struct {
	Auth        *AuthHandler
	Catalog     *CatalogHandler
	Roster      *RosterHandler
	Enrollments *EnrollmentHandler
	Workflow    *WorkflowHandler
	Team        *TeamHandler
	Reports     *ReportHandler
	Metrics     *MetricsHandler
}

// RouteDeps carries the cross-cutting dependencies route registration needs.
type RouteDeps struct {
	Auth  *service.AuthService
	Audit middleware.AuditWriter
}

// RegisterRoutes mounts the versioned API under /api/v1.
//
// Writes require ADMIN or STAFF; reads additionally allow MENTOR. Report
// downloads are authorized by their signed token alone so links can be
// shared outside an authenticated session.
func RegisterRoutes(r *gin.Engine, h Handlers, deps RouteDeps) {
	v1 := r.Group("/api/v1")

	v1.POST("/auth/login", h.Auth.Login)
	v1.POST("/auth/refresh", h.Auth.Refresh)
	if h.Reports != nil {
		v1.GET("/reports/download/:token", h.Reports.Download)
	}

	authed := v1.Group("", middleware.JWT(deps.Auth))
	authed.POST("/auth/logout", h.Auth.Logout)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)
	authed.GET("/auth/me", h.Auth.Me)

	read := authed.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleMentor))
	write := authed.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))

	read.GET("/courses", h.Catalog.ListCourses)
	read.GET("/courses/:id", h.Catalog.GetCourse)

	catalogWrite := write.Group("", middleware.Audit(deps.Audit, models.AuditActionCatalogWrite, "catalog"))
	catalogWrite.POST("/courses", h.Catalog.CreateCourse)
	catalogWrite.PUT("/courses/:id", h.Catalog.UpdateCourse)
	catalogWrite.POST("/courses/:id/cycles", h.Catalog.AddCycle)
	catalogWrite.PUT("/courses/:id/cycles/:cycleId", h.Catalog.UpdateCycle)
	catalogWrite.POST("/courses/:id/cycles/:cycleId/lessons", h.Catalog.AddLesson)
	catalogWrite.PUT("/courses/:id/cycles/:cycleId/lessons/:lessonId", h.Catalog.UpdateLesson)
	catalogWrite.PUT("/courses/:id/cycles/:cycleId/lessons/:lessonId/rename", h.Catalog.RenameLesson)
	catalogWrite.DELETE("/courses/:id/cycles/:cycleId/lessons/:lessonId", h.Catalog.DeleteLesson)

	read.GET("/students", h.Roster.List)
	read.GET("/students/:id", h.Roster.Get)

	rosterWrite := write.Group("", middleware.Audit(deps.Audit, models.AuditActionRosterWrite, "roster"))
	rosterWrite.POST("/students", h.Roster.Intake)
	rosterWrite.PATCH("/students/:id", h.Roster.Update)

	read.GET("/students/:id/enrollments/:courseId/:cycleId", h.Enrollments.GetLedger)

	enrollmentWrite := write.Group("", middleware.Audit(deps.Audit, models.AuditActionEnrollmentWrite, "enrollment"))
	enrollmentWrite.POST("/enrollments", h.Enrollments.Enroll)
	enrollmentWrite.PATCH("/students/:id/enrollments/:courseId/:cycleId", h.Enrollments.UpdateDetails)
	enrollmentWrite.PUT("/students/:id/enrollments/:courseId/:cycleId/payments", h.Enrollments.ReplacePayments)
	enrollmentWrite.PUT("/students/:id/enrollments/:courseId/:cycleId/transfer", h.Enrollments.Transfer)
	enrollmentWrite.PUT("/students/:id/enrollments/:courseId/:cycleId/toggle", h.Enrollments.ToggleStatus)

	read.GET("/courses/:id/cycles/:cycleId/onboarding", h.Workflow.Onboarding)
	read.GET("/courses/:id/cycles/:cycleId/strategy", h.Workflow.Strategy)
	read.GET("/courses/:id/cycles/:cycleId/hotlist", h.Workflow.Hotlist)
	read.GET("/courses/:id/cycles/:cycleId/attendance", h.Workflow.Attendance)

	attendanceWrite := write.Group("", middleware.Audit(deps.Audit, models.AuditActionAttendanceWrite, "attendance"))
	attendanceWrite.PUT("/courses/:id/cycles/:cycleId/attendance/:studentId", h.Workflow.SetAttendance)

	read.GET("/team", h.Team.List)
	read.GET("/team/:id", h.Team.Get)

	teamWrite := write.Group("", middleware.Audit(deps.Audit, models.AuditActionTeamWrite, "team"))
	teamWrite.POST("/team", h.Team.Create)
	teamWrite.PUT("/team/:id", h.Team.Update)
	teamWrite.DELETE("/team/:id", h.Team.Deactivate)

	if h.Reports != nil {
		reportWrite := write.Group("", middleware.Audit(deps.Audit, models.AuditActionReportRequest, "report"))
		reportWrite.POST("/reports", h.Reports.Request)
		read.GET("/reports/:id", h.Reports.Get)
	}

	admin := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/metrics/snapshot", h.Metrics.Snapshot)
}
