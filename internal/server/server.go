package server

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/config"
	"lumo.kr/auragram/internal/handler"
	"lumo.kr/auragram/internal/middleware"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/internal/service"
	"lumo.kr/auragram/pkg/storage"
)

type Server struct {
	engine *gin.Engine
	db     *gorm.DB
	rdb    *redis.Client

	// Services the scheduler drives directly.
	EconomyService service.EconomyService
	GalleryRepo    repository.GalleryRepository
}

func NewServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Server {
	userRepo := repository.NewUserRepository(db)
	auraRepo := repository.NewAuraRepository(db)
	statsRepo := repository.NewAuraStatsRepository(db)
	feedRepo := repository.NewFeedRepository(db)
	followRepo := repository.NewFollowRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	postRepo := repository.NewPostRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	galleryRepo := repository.NewGalleryRepository(db)

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize cloudinary storage")
	}

	meiliHost := cfg.MeiliSearchHost
	if !strings.HasPrefix(meiliHost, "http") {
		meiliHost = "http://" + meiliHost + ":7700"
	}
	meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	meiliSvc := service.NewMeiliSearchService(meiliClient)

	auraSvc := service.NewAuraService(auraRepo, statsRepo, userRepo)
	economySvc := service.NewEconomyService(statsRepo)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, postRepo, rdb)

	exposureSvc := service.NewExposureService(feedRepo, rdb)
	if rdb != nil {
		go exposureSvc.StartWorker(context.Background())
	}

	feedSvc := service.NewFeedService(feedRepo, exposureSvc)
	searchSvc := service.NewSearchService(feedRepo)
	postSvc := service.NewPostService(postRepo, feedRepo, interactionRepo, userRepo, auraSvc, notificationSvc, meiliSvc)
	followSvc := service.NewFollowService(followRepo, userRepo, notificationSvc)
	gallerySvc := service.NewGalleryService(galleryRepo)
	userSvc := service.NewUserService(userRepo, meiliSvc, imageStorage)
	authSvc := service.NewAuthService(userRepo, auraSvc, meiliSvc, cfg.JWTSecret)

	authHandler := handler.NewAuthHandler(authSvc)
	auraHandler := handler.NewAuraHandler(auraSvc, economySvc)
	feedHandler := handler.NewFeedHandler(feedSvc, searchSvc)
	postHandler := handler.NewPostHandler(postSvc)
	userHandler := handler.NewUserHandler(userSvc, followSvc)
	galleryHandler := handler.NewGalleryHandler(gallerySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, rdb)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	setupCORS(router, cfg.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
	}

	// Public routes with optional personalization.
	public := api.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/feed", feedHandler.GetHomeFeed)
		public.GET("/search", feedHandler.SearchPosts)
		public.GET("/posts/:id", postHandler.GetPost)
		public.GET("/posts/:id/comments", postHandler.ListComments)
		public.GET("/users/:id", userHandler.GetProfile)
		public.GET("/users/:id/posts", postHandler.ListByAuthor)
		public.GET("/users/:id/followers", userHandler.ListFollowers)
		public.GET("/users/:id/following", userHandler.ListFollowing)
		public.GET("/galleries", galleryHandler.ListGalleries)
		public.GET("/galleries/:id", galleryHandler.GetGallery)
		public.GET("/artworks/:artworkId", galleryHandler.ViewArtwork)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PUT("/me", userHandler.UpdateProfile)
		protected.PUT("/me/notification-settings", userHandler.UpdateNotificationSettings)
		protected.POST("/me/profile-image", userHandler.UploadProfileImage)
		protected.GET("/me/bookmarks", postHandler.ListBookmarks)

		protected.POST("/users/:id/follow", userHandler.Follow)
		protected.DELETE("/users/:id/follow", userHandler.Unfollow)

		protected.POST("/posts", postHandler.CreatePost)
		protected.PUT("/posts/:id", postHandler.UpdatePost)
		protected.DELETE("/posts/:id", postHandler.DeletePost)
		protected.POST("/posts/:id/like", postHandler.ToggleLike)
		protected.POST("/posts/:id/bookmark", postHandler.ToggleBookmark)
		protected.POST("/posts/:id/comments", postHandler.CreateComment)
		protected.DELETE("/comments/:commentId", postHandler.DeleteComment)

		protected.GET("/aura/balance", auraHandler.GetBalance)
		protected.GET("/aura/quests", auraHandler.GetQuestBoard)
		protected.POST("/aura/quests/increment", auraHandler.IncrementQuest)
		protected.POST("/aura/quests/claim", auraHandler.ClaimReward)
		protected.POST("/aura/transfer", auraHandler.Transfer)
		protected.GET("/aura/transactions", auraHandler.ListTransactions)

		protected.POST("/galleries", galleryHandler.CreateGallery)
		protected.PUT("/galleries/:id", galleryHandler.UpdateGallery)
		protected.POST("/galleries/:id/artworks", galleryHandler.PlaceArtwork)
		protected.PUT("/artworks/:artworkId", galleryHandler.UpdateArtwork)
		protected.DELETE("/artworks/:artworkId", galleryHandler.RemoveArtwork)
		protected.POST("/artworks/:artworkId/like", galleryHandler.LikeArtwork)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		admin := protected.Group("/admin")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.POST("/aura/adjust", auraHandler.AdminAdjust)
		}
	}

	// Internal maintenance endpoints for an external scheduler.
	internal := api.Group("/internal")
	internal.Use(middleware.RequireCronKey(cfg.CronAPIKey))
	{
		internal.POST("/aura/update-stats", auraHandler.UpdateStats)
	}

	return &Server{
		engine:         router,
		db:             db,
		rdb:            rdb,
		EconomyService: economySvc,
		GalleryRepo:    galleryRepo,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := strings.Split(allowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
