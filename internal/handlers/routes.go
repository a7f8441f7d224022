package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sjperalta/dealer-ledger/internal/middleware"
	"github.com/sjperalta/dealer-ledger/internal/models"
)

// Register mounts the API on v1. Everything but health and login needs a
// token, and each section is gated by its permission.
func (h *Handlers) Register(v1 *gin.RouterGroup, jwtSecret string) {
	// Public
	v1.GET("/health", h.Health.Index)
	v1.POST("/auth/login", h.Auth.Login)

	protected := v1.Group("")
	protected.Use(middleware.Auth(jwtSecret))

	ledger := protected.Group("/ledger", middleware.RequirePermission(models.PermTransactions))
	{
		ledger.GET("", h.Ledger.Index)
		ledger.POST("", h.Ledger.Create)
		ledger.GET("/summary", h.Ledger.Summary)
		ledger.GET("/categories", h.Ledger.Categories)
		ledger.PUT("/:entry_id", h.Ledger.Update)
		ledger.DELETE("/:entry_id", h.Ledger.Delete)
	}

	installments := protected.Group("/installments", middleware.RequirePermission(models.PermTransactions))
	{
		installments.GET("", h.Installment.Index)
		installments.POST("", h.Installment.Create)
		installments.GET("/overdue", h.Installment.Overdue)
		installments.POST("/refresh", h.Installment.Refresh)
		installments.GET("/:plan_id", h.Installment.Show)
		installments.DELETE("/:plan_id", h.Installment.Delete)
		installments.GET("/:plan_id/payments", h.Installment.Payments)
		installments.POST("/:plan_id/payments", h.Installment.RecordPayment)
	}

	invoices := protected.Group("/invoices", middleware.RequirePermission(models.PermInvoices))
	{
		invoices.GET("", h.Invoice.Index)
		invoices.POST("", h.Invoice.Create)
		invoices.GET("/next-number", h.Invoice.NextNumber)
		invoices.GET("/summary", h.Invoice.Summary)
		invoices.POST("/render-pending", h.Invoice.RenderPending)
		invoices.GET("/:number", h.Invoice.Show)
		invoices.POST("/:number/regenerate", h.Invoice.Regenerate)
		invoices.GET("/:number/file", h.Invoice.Download)
	}

	protected.GET("/reports/:kind", middleware.RequirePermission(models.PermReports), h.Report.Show)

	backups := protected.Group("/backups", middleware.RequirePermission(models.PermBackup))
	{
		backups.GET("", h.Backup.Index)
		backups.POST("", h.Backup.Create)
		backups.POST("/:backup_id/restore", h.Backup.Restore)
		backups.DELETE("/:backup_id", h.Backup.Delete)
	}
	protected.GET("/jobs/status", middleware.RequirePermission(models.PermBackup), h.Job.Status)

	logs := protected.Group("/audit", middleware.RequirePermission(models.PermLogs))
	{
		logs.GET("", h.Audit.Index)
		logs.GET("/export", h.Audit.Export)
	}

	cars := protected.Group("/cars", middleware.RequirePermission(models.PermCars))
	{
		cars.GET("", h.Car.Index)
		cars.POST("", h.Car.Create)
		cars.GET("/:car_id", h.Car.Show)
	}

	clients := protected.Group("/clients", middleware.RequirePermission(models.PermClients))
	{
		clients.GET("", h.Client.Index)
		clients.POST("", h.Client.Create)
		clients.GET("/:client_id", h.Client.Show)
	}

	users := protected.Group("/users", middleware.RequirePermission(models.PermUsers))
	{
		users.GET("", h.User.Index)
		users.POST("", h.User.Create)
		users.GET("/:user_id", h.User.Show)
		users.PATCH("/:user_id/status", h.User.SetStatus)
	}
}
