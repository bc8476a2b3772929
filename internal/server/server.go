package server

import (
	"github.com/TornikeIarajuli/trails-sub000/internal/auth"
	"github.com/TornikeIarajuli/trails-sub000/internal/completion"
	"github.com/TornikeIarajuli/trails-sub000/internal/config"
	"github.com/TornikeIarajuli/trails-sub000/internal/profile"
	"github.com/TornikeIarajuli/trails-sub000/internal/storage"
	"github.com/TornikeIarajuli/trails-sub000/internal/stream"
	"github.com/TornikeIarajuli/trails-sub000/internal/trail"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)
	adminMiddleware := auth.RequireAdmin()

	profileSvc := profile.NewService(s.DB)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	trail.RegisterRoutes(s.App.Group("/trails"), trail.NewService(s.DB), jwtMiddleware, adminMiddleware)
	completion.RegisterRoutes(s.App.Group("/completions"), completion.NewService(s.DB, s.Stream, profileSvc), jwtMiddleware, adminMiddleware)
	profile.RegisterRoutes(s.App.Group("/profile"), profileSvc, jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
