package config

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"Grocery-Receipt-Tracker/internal/api/handlers"
	"Grocery-Receipt-Tracker/internal/api/routes"
	"Grocery-Receipt-Tracker/internal/middleware"
	"Grocery-Receipt-Tracker/internal/utils"
	"Grocery-Receipt-Tracker/internal/utils/mailing"
	"Grocery-Receipt-Tracker/internal/utils/storage"
	"Grocery-Receipt-Tracker/pkg/extraction"
	"Grocery-Receipt-Tracker/pkg/insights"
	"Grocery-Receipt-Tracker/pkg/jwt"
	"Grocery-Receipt-Tracker/pkg/receipt"
	"Grocery-Receipt-Tracker/pkg/session"
	"Grocery-Receipt-Tracker/pkg/user"
)

// NewApp wires every dependency explicitly and hands back the router plus
// the session service, which main runs the cleanup loop against.
func NewApp(db *gorm.DB, cfg *utils.Config, log *zap.Logger) (*fiber.App, session.SessionService, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3, err := storage.NewAwsS3(cfg)
	if err != nil {
		return nil, nil, err
	}
	extractor := extraction.NewOpenAIExtractor(cfg, log)
	mailer := mailing.NewMailer(cfg)

	// Repository
	userRepository := user.NewUserRepository(db)
	receiptRepository := receipt.NewReceiptRepository(db)
	sessionRepository := session.NewSessionRepository(db)
	insightsRepository := insights.NewInsightsRepository(db)

	// Service
	jwtService := jwt.NewJWTService(cfg.JWTSecret)
	userService := user.NewUserService(userRepository, jwtService, mailer, log)
	receiptService := receipt.NewReceiptService(receiptRepository, sessionRepository, s3, extractor, log)
	sessionService := session.NewSessionService(sessionRepository, receiptRepository, insightsRepository, s3, log)
	insightsService := insights.NewInsightsService(insightsRepository, receiptRepository, extractor, log)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	receiptHandler := handlers.NewReceiptHandler(receiptService, validator)
	insightsHandler := handlers.NewInsightsHandler(insightsService, validator)

	// routes
	routesConfig := routes.Config{
		App:             app,
		UserHandler:     userHandler,
		ReceiptHandler:  receiptHandler,
		InsightsHandler: insightsHandler,
		Middleware:      middlewares,
		JWTService:      jwtService,
	}
	routesConfig.Setup()
	return app, sessionService, nil
}
