package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/manoj99-eng/krisco-backend/internal/api/handlers"
	"github.com/manoj99-eng/krisco-backend/internal/api/middleware"
	"github.com/manoj99-eng/krisco-backend/internal/service"
)

type Services struct {
	Classification *service.ClassificationService
	Offers         *service.OfferService
	Orders         *service.OrderService
	Imports        *service.ImportService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.SessionTokenHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Imports != nil {
			importHandler := handlers.NewImportHandler(services.Imports)
			importGroup := apiGroup.Group("/imports")
			{
				importGroup.POST("/stock", importHandler.ImportStock)
				importGroup.POST("/movement", importHandler.ImportMovement)
				importGroup.POST("/items", importHandler.ImportItems)
			}
		}

		if services.Classification != nil {
			classificationHandler := handlers.NewClassificationHandler(services.Classification)
			classificationGroup := apiGroup.Group("/classification")
			{
				classificationGroup.POST("/run", classificationHandler.Run)
				classificationGroup.GET("/snapshots", classificationHandler.Snapshots)
				classificationGroup.GET("/available_dates", classificationHandler.AvailableDates)
			}
		}

		if services.Offers != nil {
			offerHandler := handlers.NewOfferHandler(services.Offers)

			// Working-set routes are scoped to the caller's session token.
			workingSetGroup := apiGroup.Group("/offers/working_set", middleware.SessionToken())
			{
				workingSetGroup.POST("/filter", offerHandler.Filter)
				workingSetGroup.GET("/rows", offerHandler.Rows)
				workingSetGroup.PUT("/rows/:sku", offerHandler.EditRow)
				workingSetGroup.DELETE("/rows/:sku", offerHandler.RemoveRow)
				workingSetGroup.POST("/discounts", offerHandler.ApplyDiscounts)
				workingSetGroup.POST("/reset", offerHandler.Reset)
				workingSetGroup.DELETE("", offerHandler.Discard)
				workingSetGroup.POST("/export", offerHandler.Export)
			}

			offerGroup := apiGroup.Group("/offers")
			{
				offerGroup.GET("/artifacts", offerHandler.ListArtifacts)
				offerGroup.GET("/artifacts/:id", offerHandler.GetArtifact)
				offerGroup.GET("/artifacts/:id/download", offerHandler.DownloadArtifact)
				offerGroup.POST("/artifacts/:id/send", offerHandler.SendArtifact)
				offerGroup.GET("/email_log", offerHandler.EmailLog)
			}
		}

		if services.Orders != nil {
			orderHandler := handlers.NewOrderHandler(services.Orders)
			orderGroup := apiGroup.Group("/orders")
			{
				// Submission consumes the caller's working set, so it is
				// the one order route that needs a session token.
				orderGroup.POST("", middleware.SessionToken(), orderHandler.Submit)
				orderGroup.GET("", orderHandler.List)
				orderGroup.GET("/:order_id", orderHandler.Get)
				orderGroup.POST("/:order_id/approve", orderHandler.Approve)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
