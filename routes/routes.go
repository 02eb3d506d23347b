package routes

import (
	"homeserve-backend/config"
	"homeserve-backend/controllers"
	"homeserve-backend/services"
	"homeserve-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	DB           *gorm.DB
	Accounts     *services.AccountService
	Bookings     *services.BookingService
	Invoices     *services.InvoiceService
	Reviews      *services.ReviewService
	Availability *services.AvailabilityService
	Directory    *services.DirectoryService
	Messaging    *services.MessagingService
	Registry     *services.Registry
	Media        services.MediaStore
}

func SetupRouter(svc Services, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.RequestLogger(log))
	r.Use(utils.NewIPRateLimiter(config.AppConfig.MaxRequestsPerMin).Middleware())

	health := &controllers.HealthController{DB: svc.DB}
	r.GET("/healthz", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authController := &controllers.AuthController{Accounts: svc.Accounts}
	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", authController.Me)
	}

	public := &controllers.PublicController{Directory: svc.Directory, Availability: svc.Availability}
	pub := r.Group("/public")
	{
		pub.GET("/services", public.GetServices)
		pub.GET("/workers", public.GetWorkers)
		pub.GET("/workers/:id", public.GetWorker)
		pub.GET("/workers/:id/dates", public.GetFreeDates)
		pub.GET("/workers/:id/slots", public.GetTimeSlots)
	}

	messaging := &controllers.MessagingController{Messaging: svc.Messaging, Registry: svc.Registry}
	r.GET("/ws", messaging.ServeWS)

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		reviews := &controllers.ReviewController{Reviews: svc.Reviews, Media: svc.Media}

		// Client routes
		bookingController := &controllers.BookingController{Bookings: svc.Bookings, Invoices: svc.Invoices}
		bookings := api.Group("/bookings")
		{
			bookings.POST("", bookingController.CreateBooking)
			bookings.GET("", bookingController.GetBookings)
			bookings.POST("/:id/cancel", bookingController.CancelBooking)
			bookings.POST("/:id/pay", bookingController.PayInvoice)
			bookings.GET("/:id/invoice", bookingController.GetInvoice)
			bookings.POST("/:id/review", reviews.SubmitReview)
		}

		// Worker routes
		workerController := &controllers.WorkerController{
			Bookings:     svc.Bookings,
			Invoices:     svc.Invoices,
			Availability: svc.Availability,
		}
		worker := api.Group("/worker")
		{
			worker.GET("/jobs", workerController.GetJobs)
			worker.GET("/jobs/today", workerController.GetTodayJob)
			worker.POST("/jobs/:id/accept", workerController.AcceptJob)
			worker.POST("/jobs/:id/reject", workerController.RejectJob)
			worker.GET("/jobs/:id/invoice-info", workerController.GetInvoiceInfo)
			worker.POST("/jobs/:id/complete", workerController.CompleteJob)
			worker.POST("/jobs/:id/review", reviews.SubmitReview)

			worker.GET("/availability", workerController.GetAvailability)
			worker.POST("/availability", workerController.SetAvailability)
			worker.GET("/earnings", workerController.GetEarnings)
		}

		profileController := &controllers.ProfileController{Accounts: svc.Accounts, Media: svc.Media}
		api.GET("/profile", profileController.GetProfile)
		api.PATCH("/profile", profileController.UpdateProfile)

		// Messaging routes
		api.POST("/messages", messaging.SendMessage)
		api.GET("/conversations", messaging.GetConversations)
		api.GET("/conversations/:id/messages", messaging.GetMessages)
	}

	return r
}
