package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sathvik-zluri/moneytrack/internal/download"
	handler "github.com/sathvik-zluri/moneytrack/internal/handlers"
	"github.com/sathvik-zluri/moneytrack/internal/repository"
)

// RegisterRoutes wires every endpoint. db may be nil, which disables the
// upload history endpoints.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, sessions *handler.SessionStore, registry *download.Registry) {
	var history handler.BatchStore
	if db != nil {
		history = repository.NewUploadBatchRepository(db)
	}

	pageHandler := handler.NewPageHandler(sessions)
	txHandler := handler.NewTransactionsHandler(sessions)
	uploadHandler := handler.NewUploadHandler(sessions)
	downloadHandler := handler.NewDownloadHandler(registry)
	historyHandler := handler.NewHistoryHandler(history)

	r.GET("/", pageHandler.Index)
	r.GET("/downloads/:ref", downloadHandler.Serve)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api.GET("/state", pageHandler.State)
	api.GET("/export", txHandler.Export)

	// Transaction routes
	tx := api.Group("/transactions")
	tx.GET("", txHandler.List)
	tx.POST("", txHandler.Create)
	tx.POST("/bulk-delete", txHandler.BulkDelete)
	tx.POST("/modal/close", txHandler.CloseModal)
	tx.GET("/:id/form", txHandler.Form)
	tx.PUT("/:id", txHandler.Update)
	tx.DELETE("/:id", txHandler.Delete)

	// Upload surface routes
	up := api.Group("/upload")
	up.POST("", uploadHandler.Upload)
	up.POST("/open", uploadHandler.Open)
	up.POST("/close", uploadHandler.Close)
	up.POST("/drag", uploadHandler.Drag)
	up.POST("/browse", uploadHandler.Browse)

	// Upload history routes
	uploads := api.Group("/uploads")
	{
		uploads.GET("", historyHandler.List)
		uploads.GET("/:id/errors", historyHandler.Errors)
	}
}
