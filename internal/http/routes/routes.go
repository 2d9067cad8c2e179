package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-normalizer/internal/http/handlers"
	"github.com/phambaophuc/image-normalizer/internal/http/middleware"
	"go.uber.org/zap"
)

const (
	multipartForm = "multipart/form-data"
	jsonBody      = "application/json"

	// headroom for multipart boundaries, form fields and JSON framing
	bodySlack = 1 << 20
)

type Router struct {
	imageHandler   *handlers.ImageHandler
	logger         *zap.Logger
	allowedOrigins []string
	maxUploadBytes int64
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	logger *zap.Logger,
	allowedOrigins []string,
	maxUploadBytes int64,
) *Router {
	return &Router{
		imageHandler:   imageHandler,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		maxUploadBytes: maxUploadBytes,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()
	if r.maxUploadBytes > 0 {
		router.MaxMultipartMemory = r.maxUploadBytes
	}

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS(r.allowedOrigins))
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.imageHandler.HealthCheck)
		v1.GET("/stats", r.imageHandler.GetStats)
		v1.GET("/jobs/:id", r.imageHandler.GetJob)

		images := v1.Group("/images")
		{
			images.DELETE("/*key", r.imageHandler.DeleteImage)

			files := images.Group("",
				middleware.RequireContentType(multipartForm),
				middleware.LimitBody(r.multipartLimit()))
			files.POST("/validate", r.imageHandler.ValidateImage)
			files.POST("/normalize", r.imageHandler.NormalizeImage)
			files.POST("/batch/normalize", r.imageHandler.BatchNormalize)
			files.POST("/placeholder", r.imageHandler.Placeholder)

			payloads := images.Group("",
				middleware.RequireContentType(jsonBody),
				middleware.LimitBody(r.jsonLimit()))
			payloads.POST("/upload", r.imageHandler.UploadImage)
			payloads.POST("/normalize/async", r.imageHandler.NormalizeAsync)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image normalizer is running",
		})
	})

	return router
}

// multipartLimit admits a full batch of maximum size files.
func (r *Router) multipartLimit() int64 {
	return r.maxUploadBytes*handlers.MaxBatchFiles + bodySlack
}

// jsonLimit admits one maximum size image encoded as a base64 data URL.
func (r *Router) jsonLimit() int64 {
	return r.maxUploadBytes*4/3 + bodySlack
}
