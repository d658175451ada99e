package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"bloomcart-system/config"
	"bloomcart-system/internal/aeropay"
	"bloomcart-system/internal/cart"
	"bloomcart-system/internal/checkout"
	"bloomcart-system/internal/database"
	"bloomcart-system/internal/events"
	"bloomcart-system/internal/gateway/handlers"
	"bloomcart-system/internal/gateway/middleware"
	"bloomcart-system/internal/orderapi"
)

const abandonmentSweepInterval = time.Hour

func main() {
	cfg := config.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := config.NewRedisClient(cfg.Redis)
	cartStore := cart.NewStore(redisClient)

	db, err := database.NewConnection(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateOrderDB(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	orderStore := database.NewOrderStore(db)

	// The producer outlives the signal context: in-flight requests keep
	// publishing while the server drains, so it is closed only after
	// Shutdown returns.
	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, 256)
	producer.Start(context.Background())

	aeropayClient := aeropay.NewClient(cfg.AeroPay)
	orderClient := orderapi.NewClient(cfg.OrderAPI, cfg.Store.LocationID)

	manager := checkout.NewManager(
		cartStore,
		orderClient,
		orderClient,
		aeropayClient,
		orderClient,
		orderStore,
		producer,
	)

	go manager.RunAbandonmentSweeper(ctx, abandonmentSweepInterval, cartStore, orderClient)

	cartHandler := handlers.NewCartHTTPHandler(cartStore, producer)
	checkoutHandler := handlers.NewCheckoutHTTPHandler(manager)
	scheduleHandler := handlers.NewScheduleHTTPHandler(orderClient, cfg.Store.Timezone)
	aeropayHandler := handlers.NewAeroPayHTTPHandler(aeropayClient)

	secret := []byte(cfg.Auth.JWTSecret)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit())

	// Checkout supports guests, so the whole surface takes an optional token;
	// a missing token just means a zero user id.
	api := r.Group("/api/v1")
	api.Use(middleware.OptionalJWTAuth(secret))
	{
		cartGroup := api.Group("/cart")
		{
			cartGroup.GET("", cartHandler.GetCart)
			cartGroup.POST("/items", cartHandler.AddItem)
			cartGroup.PUT("/items/:id", cartHandler.UpdateQuantity)
			cartGroup.DELETE("/items/:id", cartHandler.RemoveItem)
			cartGroup.DELETE("", cartHandler.ClearCart)
		}

		sessions := api.Group("/checkout/sessions")
		{
			sessions.POST("", checkoutHandler.StartSession)
			sessions.GET("/:id", checkoutHandler.GetSession)
			sessions.POST("/:id/events", checkoutHandler.ApplyEvent)
			sessions.PUT("/:id/contact", checkoutHandler.SetContact)
			sessions.PUT("/:id/payment-method", checkoutHandler.SetPaymentMethod)
			sessions.PUT("/:id/address", checkoutHandler.SetAddress)
			sessions.GET("/:id/loyalty-options", checkoutHandler.LoyaltyOptions)
			sessions.POST("/:id/place-order", checkoutHandler.PlaceOrder)
		}

		delivery := api.Group("/delivery")
		{
			delivery.GET("/dates", scheduleHandler.DeliveryDates)
			delivery.GET("/times", scheduleHandler.DeliveryTimes)
			delivery.GET("/status", scheduleHandler.DeliveryStatus)
		}

		aeropayGroup := api.Group("/aeropay")
		{
			aeropayGroup.POST("/users", aeropayHandler.CreateUser)
			aeropayGroup.POST("/users/verify", aeropayHandler.VerifyUser)
			aeropayGroup.POST("/bank-accounts", aeropayHandler.LinkBankAccount)
			aeropayGroup.GET("/aerosync-credentials", aeropayHandler.AerosyncCredentials)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "bloomcart-storefront",
		})
	})

	port := ":" + cfg.HTTPPort
	log.Printf("Starting server on port %s", port)

	srv := &http.Server{Addr: port, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	producer.Close()
	producer.WaitClosed()
}
