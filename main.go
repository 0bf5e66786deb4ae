package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chaos-io/closet/composite"
	"github.com/chaos-io/closet/config"
	"github.com/chaos-io/closet/handler"
	"github.com/chaos-io/closet/middleware"
	"github.com/chaos-io/closet/rembg"
	"github.com/chaos-io/closet/store"
	"github.com/chaos-io/closet/util"
	"github.com/chaos-io/closet/vision"
	"github.com/chaos-io/closet/wardrobe"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env 里放 OPENAI_API_KEY / REMOVEBG_API_KEY / DATABASE_URL
	_ = godotenv.Load()

	cfg := config.New()

	if err := util.InitLogger(cfg.Server.Mode); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer util.Sync()

	util.Logger.Info("starting closet server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	if err := os.MkdirAll(cfg.Upload.UploadDir, 0755); err != nil {
		util.Logger.Fatal("failed to create upload directory", zap.Error(err))
	}

	ctx := context.Background()

	// 持久化：配了 DSN 用 Postgres，否则退化为内存（开发模式）
	var st store.Store
	if cfg.Database.DSN != "" {
		pg, err := store.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			util.Logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() {
			_ = pg.Close()
		}()
		st = pg
		util.Logger.Info("postgres connected")
	} else {
		st = store.NewMemory()
		util.Logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	// 合成缓存（redis 不可用时直接关掉）
	var cache *wardrobe.Cache
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	candidate := wardrobe.NewCache(rdb, cfg.Redis.TTL)
	if err := candidate.Ping(ctx); err != nil {
		util.Logger.Warn("redis connection failed, composite cache disabled", zap.Error(err))
		_ = rdb.Close()
	} else {
		cache = candidate
		defer func() {
			_ = cache.Close()
		}()
		util.Logger.Info("redis connected")
	}

	// 抠图客户端：没配 key 时原样透传（适合已带 alpha 的素材库）
	var remover rembg.Remover
	if cfg.RemBG.APIKey != "" {
		var opts []rembg.Option
		if cfg.RemBG.Endpoint != "" {
			opts = append(opts, rembg.WithEndpoint(cfg.RemBG.Endpoint))
		}
		remover = rembg.NewRemoveBG(cfg.RemBG.APIKey, opts...)
	} else {
		remover = rembg.NewNoop()
		util.Logger.Warn("REMOVEBG_API_KEY not set, background removal disabled")
	}

	var visionOpts []vision.Option
	if cfg.Vision.Endpoint != "" {
		visionOpts = append(visionOpts, vision.WithEndpoint(cfg.Vision.Endpoint))
	}
	if cfg.Vision.Model != "" {
		visionOpts = append(visionOpts, vision.WithModel(cfg.Vision.Model))
	}
	classifier := vision.NewOpenAI(cfg.Vision.APIKey, visionOpts...)

	svc := wardrobe.New(st, remover, classifier, cache, wardrobe.Config{
		Canvas: composite.Options{
			Width:  cfg.Compose.CanvasWidth,
			Height: cfg.Compose.CanvasHeight,
		},
		JPEGQuality: cfg.Compose.JPEGQuality,
		MaxEdge:     cfg.Compose.MaxEdge,
		ThumbEdge:   cfg.Compose.ThumbEdge,
	})

	// 定时清理过期的临时上传文件
	c := cron.New()
	if _, err := c.AddFunc(cfg.Upload.CleanupSpec, func() {
		cleanupUploads(cfg.Upload.UploadDir, cfg.Upload.MaxAge)
	}); err != nil {
		util.Logger.Fatal("failed to schedule upload cleanup", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	itemHandler := handler.NewItemHandler(cfg, svc, st)
	outfitHandler := handler.NewOutfitHandler(svc, st)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": Version})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/items", itemHandler.Upload)
		api.GET("/items", itemHandler.List)
		api.GET("/items/:id", itemHandler.Get)
		api.GET("/items/:id/image", itemHandler.GetImage)
		api.PUT("/items/:id", itemHandler.Update)
		api.DELETE("/items/:id", itemHandler.Delete)

		api.POST("/outfits/preview", outfitHandler.Preview)
		api.POST("/outfits", outfitHandler.Save)
		api.GET("/outfits", outfitHandler.List)
		api.GET("/outfits/:id", outfitHandler.Get)
		api.GET("/outfits/:id/image", outfitHandler.GetImage)
		api.DELETE("/outfits/:id", outfitHandler.Delete)
	}

	util.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(cfg.Server.Port); err != nil {
		util.Logger.Fatal("failed to start server", zap.Error(err))
	}
}

// cleanupUploads 删除超过 maxAge 的临时上传文件
func cleanupUploads(dir string, maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				util.Logger.Warn("failed to delete temp file",
					zap.String("file", path), zap.Error(err))
				return nil
			}
			removed++
		}
		return nil
	})
	if err != nil {
		util.Logger.Warn("upload cleanup walk failed", zap.Error(err))
	}

	util.Logger.Info("upload cleanup finished", zap.Int("removed", removed))
}
