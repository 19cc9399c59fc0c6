package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/viewing-scheduler/internal/audit"
	"github.com/BruksfildServices01/viewing-scheduler/internal/config"
	domain "github.com/BruksfildServices01/viewing-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/viewing-scheduler/internal/geo"
	"github.com/BruksfildServices01/viewing-scheduler/internal/handlers"
	infraRepo "github.com/BruksfildServices01/viewing-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/viewing-scheduler/internal/middleware"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
	"github.com/BruksfildServices01/viewing-scheduler/internal/storage"
	"github.com/BruksfildServices01/viewing-scheduler/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/viewing-scheduler/internal/usecase/appointment"
	ucOffice "github.com/BruksfildServices01/viewing-scheduler/internal/usecase/office"
)

// Deps are the process-wide singletons the routes are built from.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Log    *zap.Logger
	Geo    geo.Lookup
	Photos storage.ObjectStore
	Audit  *audit.Dispatcher
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// ======================================================
	// INFRA
	// ======================================================
	uow := infraRepo.NewGormUnitOfWork(d.DB)
	users := infraRepo.NewGormUsers(d.DB)
	offices := domain.NamedOffice{Name: cfg.MainOfficeName}
	calc := domain.NewCalculator(d.Geo, cfg.VisitDuration())

	// ======================================================
	// USE CASES
	// ======================================================
	appointmentUC := handlers.AppointmentUseCases{
		Create:   ucAppointment.NewCreateAppointment(uow, offices, calc, d.Audit, d.Log),
		Update:   ucAppointment.NewUpdateAppointment(uow, offices, calc, d.Audit, d.Log),
		Delete:   ucAppointment.NewDeleteAppointment(uow, d.Audit),
		Cancel:   ucAppointment.NewCancelAppointment(uow, d.Audit),
		Complete: ucAppointment.NewCompleteAppointment(uow, d.Audit),
		Schedule: ucAppointment.NewListSchedule(uow),
		Slots: ucAppointment.NewSuggestSlots(uow, offices, calc, ucAppointment.SlotWindow{
			DayStart: cfg.SlotDayStart,
			DayEnd:   cfg.SlotDayEnd,
			Step:     cfg.SlotStep(),
		}),
	}

	ensureOffice := ucOffice.NewEnsureOffice(d.DB, d.Geo, d.Log)

	// ======================================================
	// HANDLERS
	// ======================================================
	loc := timezone.Location(cfg.DisplayTimezone)

	authHandler := handlers.NewAuthHandler(d.DB, cfg)
	meHandler := handlers.NewMeHandler(d.DB, users)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentUC, loc)
	propertyHandler := handlers.NewPropertyHandler(d.DB, d.Geo, d.Photos, d.Log)
	officeHandler := handlers.NewOfficeHandler(d.DB, cfg.MainOfficeName, ensureOffice)
	customerHandler := handlers.NewCustomerHandler(d.DB)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB, loc)
	adminHandler := handlers.NewAdminHandler(users, d.Log)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// PRIVATE API
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg), middleware.ActiveUser(users))
		{
			secured.GET("/me", meHandler.GetMe)
			secured.PATCH("/me", meHandler.UpdateMe)
			secured.DELETE("/me", meHandler.DeleteAccount)
			secured.GET("/me/audit-logs", auditLogsHandler.List)

			secured.GET("/office", officeHandler.Get)
			secured.PUT("/office", officeHandler.Update)

			secured.GET("/customers", customerHandler.List)

			secured.GET("/properties", propertyHandler.List)
			secured.POST("/properties", propertyHandler.Create)
			secured.GET("/properties/:id", propertyHandler.Get)
			secured.PATCH("/properties/:id", propertyHandler.Update)
			secured.DELETE("/properties/:id", propertyHandler.Delete)
			secured.POST("/properties/:id/photo", propertyHandler.UploadPhoto)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/appointments", appointmentHandler.Create)
			secured.GET("/appointments", appointmentHandler.Schedule)
			secured.GET("/appointments/slots", appointmentHandler.Slots)
			secured.PATCH("/appointments/:id", appointmentHandler.Update)
			secured.DELETE("/appointments/:id", appointmentHandler.Delete)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)

			// ------------------------------
			// ADMIN
			// ------------------------------
			admin := secured.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/appointments", appointmentHandler.AdminSchedule)
				admin.PATCH("/appointments/:id", appointmentHandler.AdminUpdate)
				admin.DELETE("/appointments/:id", appointmentHandler.AdminDelete)

				admin.DELETE("/properties/:id", propertyHandler.ForceDelete)

				admin.GET("/users", adminHandler.ListUsers)
				admin.PATCH("/users/:id/status", adminHandler.SetUserStatus)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
			}
		}
	}
}
