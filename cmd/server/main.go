package main

import (
	"net/http"

	"friendcircle/backend/internal/auth"
	"friendcircle/backend/internal/config"
	"friendcircle/backend/internal/database"
	"friendcircle/backend/internal/handler"
	"friendcircle/backend/internal/hub"
	"friendcircle/backend/internal/relationship"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	// Swagger imports
	_ "friendcircle/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Friendcircle API
// @version         1.0
// @description     Social-graph backend: friend requests, friendships and relationship queries.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	handler.FriendService = relationship.NewService(database.DB, relationship.Options{
		AutoAcceptCrossed: config.AppConfig.AutoAcceptCrossed,
		Notifier:          hub.GlobalHub,
		Logger:            logrus.StandardLogger(),
	})

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("", handler.SearchUsers) // Must be before /:id
			userRoutes.GET("/me", handler.GetMe)
			userRoutes.GET("/:id", handler.GetUserByID)
		}

		// Friendship routes (protected)
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(auth.AuthMiddleware())
		{
			friendRoutes.GET("", handler.ListFriends)
			friendRoutes.POST("/requests", handler.SendFriendRequest)
			friendRoutes.GET("/requests/incoming", handler.ListIncomingRequests)
			friendRoutes.GET("/requests/outgoing", handler.ListOutgoingRequests)
			friendRoutes.POST("/requests/:id/accept", handler.AcceptFriendRequest)
			friendRoutes.POST("/requests/:id/reject", handler.RejectFriendRequest)
			friendRoutes.DELETE("/:userID", handler.DissolveFriendship)
		}

		// Event stream (protected)
		apiV1.GET("/events", auth.AuthMiddleware(), handler.StreamEvents)
	}

	logrus.Infof("Server is running on %s", config.AppConfig.ListenAddr)
	logrus.Infof("Swagger UI is available at http://localhost%s/swagger/index.html", config.AppConfig.ListenAddr)
	logrus.Fatal(router.Run(config.AppConfig.ListenAddr))
}
