package routes

import (
	"github.com/gofiber/fiber/v2"

	"Grocery-Receipt-Tracker/internal/api/handlers"
	"Grocery-Receipt-Tracker/internal/middleware"
	"Grocery-Receipt-Tracker/pkg/jwt"
)

type Config struct {
	App             *fiber.App
	UserHandler     handlers.UserHandler
	ReceiptHandler  handlers.ReceiptHandler
	InsightsHandler handlers.InsightsHandler
	Middleware      middleware.Middleware
	JWTService      jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Receipts()
	c.Insights()
	c.GuestRoute()
}

func (c *Config) User() {
	users := c.App.Group("/api/v1/users")
	{
		users.Post("/register", c.UserHandler.Register)
		users.Post("/login", c.UserHandler.Login)
		users.Get("/verify", c.UserHandler.VerifyEmail)
		users.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
	}
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts")

	// Upload and process accept either a bearer token or a session id.
	receipts.Post("", c.Middleware.OptionalAuthMiddleware(c.JWTService), c.ReceiptHandler.UploadReceipts)
	receipts.Post("/process", c.Middleware.OptionalAuthMiddleware(c.JWTService), c.ReceiptHandler.ProcessReceipts)
	receipts.Get("/summary", c.ReceiptHandler.GetSessionSummary)

	receipts.Get("", c.Middleware.AuthMiddleware(c.JWTService), c.ReceiptHandler.GetReceipts)
	receipts.Post("/migrate", c.Middleware.AuthMiddleware(c.JWTService), c.ReceiptHandler.MigrateSession)
}

func (c *Config) Insights() {
	insights := c.App.Group("/api/v1/insights")

	insights.Get("", c.Middleware.AuthMiddleware(c.JWTService), c.InsightsHandler.GetInsights)
	insights.Get("/narrative", c.Middleware.AuthMiddleware(c.JWTService), c.InsightsHandler.GetNarrative)
	insights.Post("/generate", c.Middleware.OptionalAuthMiddleware(c.JWTService), c.InsightsHandler.GenerateInsights)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
