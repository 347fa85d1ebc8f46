package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/service"
)

// Services are the collaborators the HTTP layer calls into.
type Services struct {
	Auth        service.AuthService
	Catalog     service.CatalogService
	Submissions service.SubmissionService
	Queries     service.SubmissionQueries
	Uploads     service.UploadService
}

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	pendingLimit int,
	svc Services,
	log logging.Logger,
) {
	authHandler := NewAuthHandler(svc.Auth)
	catalogHandler := NewCatalogHandler(svc.Catalog)
	uploadHandler := NewUploadHandler(svc.Uploads)
	submissionHandler := NewSubmissionHandler(svc.Submissions, svc.Queries, svc.Uploads, pendingLimit)
	staffHandler := NewStaffHandler(svc.Submissions, svc.Queries)

	authMiddleware := AuthMiddleware(jwtSecret)
	optionalAuth := OptionalAuthMiddleware(jwtSecret)

	router.Use(RequestLogger(log))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		apiV1.GET("/services", catalogHandler.ListServices)
		apiV1.GET("/services/:id", catalogHandler.GetService)

		// Guests may upload and submit; a token, if sent, must be valid.
		apiV1.POST("/uploads", optionalAuth, uploadHandler.RequestUploadURL)
		apiV1.POST("/submissions/text", optionalAuth, submissionHandler.CreateTextSubmission)
		apiV1.POST("/submissions/file", optionalAuth, submissionHandler.CreateFileSubmission)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)
		protected.PATCH("/me", authHandler.UpdateMe)

		// --- Student Routes ---
		mine := protected.Group("/submissions/mine")
		mine.Use(RoleMiddleware(domain.RoleStudent))
		{
			mine.GET("", submissionHandler.GetMySubmissions)
			mine.GET("/active", submissionHandler.GetMyActiveSubmissions)
			mine.GET("/completed", submissionHandler.GetMyCompletedSubmissions)
		}

		// Owner or staff; checked in the handler.
		protected.GET("/submissions/:id", submissionHandler.GetSubmission)
		protected.GET("/submissions/:id/file", submissionHandler.GetSubmissionFileURL)
		protected.POST("/submissions/:id/payment-success", submissionHandler.RecordPaymentSuccess)

		// --- Staff Routes ---
		staffGroup := protected.Group("/staff/submissions")
		staffGroup.Use(RoleMiddleware(domain.RoleStaff))
		{
			staffGroup.GET("/status/:status", staffHandler.ListByStatus)
			staffGroup.POST("/:id/approve", staffHandler.Approve)
			staffGroup.POST("/:id/reject", staffHandler.Reject)
			staffGroup.POST("/:id/feedback", staffHandler.DeliverFeedback)
		}
	}
}
