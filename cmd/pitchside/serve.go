package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/cobra"

	"pitchside/internal/cache"
	"pitchside/internal/config"
	"pitchside/internal/http/handlers"
	applog "pitchside/internal/log"
	"pitchside/internal/metrics"
	"pitchside/internal/repos"
	"pitchside/internal/services"
	"pitchside/internal/storage"
	"pitchside/web"
)

func runServe(cmd *cobra.Command, args []string) error {
	defer openLogFile(cfg.LogFile)()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repos.Seed(context.Background(), db, repos.SeedOptions{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Demo:          cfg.DemoData,
	}); err != nil {
		return err
	}

	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}

	deps := handlers.NewDeps(db, treeCache(cfg), uploader(cfg, mediaDir))
	app := handlers.NewApp(deps, web.Views())

	app.Use(logger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/") || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"success": false, "message": "rate limit exceeded, retry soon"})
		},
	}))

	app.Get("/metrics", metrics.Handler())
	log.Printf("[static] /static -> embedded web/static")
	log.Printf("[static] /media  -> %s", mediaDir)
	app.Use("/static", filesystem.New(filesystem.Config{Root: web.StaticFS()}))
	app.Get("/media/*", mediaHandler(mediaDir))

	handlers.Register(app, deps)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[server] shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()
	log.Printf("[server] listening on :%s", cfg.Port)
	return app.Listen(":" + cfg.Port)
}

// treeCache returns nil when Redis is not configured or unreachable.
func treeCache(cfg config.Config) services.TreeCache {
	if cfg.RedisAddr == "" {
		log.Printf("[cache] REDIS_ADDR not set, tree cache disabled")
		return nil
	}
	client, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Printf("[cache] %v, tree cache disabled", err)
		return nil
	}
	return cache.NewTreeCache(client, cache.WithTTL(cfg.TreeCacheTTL))
}

func uploader(cfg config.Config, mediaDir string) storage.Uploader {
	if up := storage.NewS3Uploader(storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	}); up != nil {
		log.Printf("[storage] images -> s3 bucket %s", cfg.S3Bucket)
		return up
	}
	log.Printf("[storage] images -> %s", mediaDir)
	return storage.NewLocalUploader(mediaDir, "/media")
}

// mediaHandler serves uploaded images, refusing traversal attempts.
func mediaHandler(mediaDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(mediaDir, clean), true)
	}
}
