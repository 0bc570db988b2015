// Package router wires repositories, services and handlers into a gin engine.
package router

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	_ "github.com/d60-Lab/yatube/docs"
	"github.com/d60-Lab/yatube/internal/api/handler"
	"github.com/d60-Lab/yatube/internal/media"
	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/pagecache"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/web"
)

// Options 组装 engine 的外部依赖
type Options struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	// Mailer 为空时写日志
	Mailer service.Mailer
	// BcryptCost 为 0 时用默认值，测试可调低
	BcryptCost int
}

// App 组装结果，测试需要直接访问缓存
type App struct {
	Engine    *gin.Engine
	PageCache *pagecache.Store
	Media     *media.Storage
}

func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil || opts.DB == nil || opts.Redis == nil {
		return nil, errors.New("router: config, db and redis are required")
	}

	userRepo := repository.NewUserRepository(opts.DB)
	groupRepo := repository.NewGroupRepository(opts.DB)
	postRepo := repository.NewPostRepository(opts.DB)
	commentRepo := repository.NewCommentRepository(opts.DB)
	followRepo := repository.NewFollowRepository(opts.DB)

	tokens := service.NewTokenManager(cfg.Server.SecretKey, cfg.Server.SessionTTL, cfg.Server.ResetTTL)
	accounts := service.NewAccountService(userRepo, tokens, opts.Mailer, cfg.Server.BaseURL, opts.BcryptCost)
	storage := media.NewStorage(cfg.Server.MediaRoot)
	pages := pagecache.NewStore(opts.Redis)

	h := handler.NewHandler(handler.Deps{
		Posts:        service.NewPostService(postRepo, groupRepo, commentRepo),
		Groups:       service.NewGroupService(groupRepo),
		Relations:    service.NewRelationshipService(followRepo),
		Accounts:     accounts,
		Media:        storage,
		CookieSecure: cfg.Server.CookieSecure,
		Checks: map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error {
				sqlDB, err := opts.DB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": func(ctx context.Context) error {
				return opts.Redis.Ping(ctx).Err()
			},
		},
	})

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HTMLRender = renderer
	r.MaxMultipartMemory = 8 << 20

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/media/"})))
	r.Use(middleware.Recovery(h.ServerError))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(
		middleware.AccessLog(),
		middleware.SecureHeaders(),
		middleware.SameOrigin(h.Forbidden),
		middleware.Auth(accounts),
	)

	authLimit := noop
	apiLimit := noop
	if cfg.RateLimit.RPS > 0 {
		limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		authLimit = middleware.RateLimit(limiter, h.TooManyRequests)
		apiLimit = middleware.RateLimit(limiter, nil)
	}

	registerPages(r, h, pages, cfg.Cache.IndexPrefix, cfg.Cache.IndexTTL, authLimit)
	registerAPI(r, h, apiLimit)

	r.Static("/media", storage.Root())
	r.GET("/healthz", h.Healthz)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.NoRoute(h.NotFound)

	return &App{Engine: r, PageCache: pages, Media: storage}, nil
}

func noop(c *gin.Context) { c.Next() }

func cacheViewer(c *gin.Context) string {
	if id := middleware.CurrentUserID(c); id != 0 {
		return strconv.FormatUint(uint64(id), 10)
	}
	return pagecache.Anonymous
}

func registerPages(r *gin.Engine, h *handler.Handler, pages *pagecache.Store, prefix string, ttl time.Duration, authLimit gin.HandlerFunc) {
	login := middleware.LoginRequired()

	r.GET("/", pagecache.Middleware(pages, prefix, ttl, cacheViewer), h.Index)
	r.GET("/group/:slug/", h.GroupPosts)
	r.GET("/profile/:username/", h.Profile)
	r.GET("/posts/:id/", h.PostDetail)
	getPost(r, "/create/", login, h.PostCreate)
	getPost(r, "/posts/:id/edit/", login, h.PostEdit)
	r.POST("/posts/:id/comment/", login, h.AddComment)
	r.GET("/follow/", login, h.FollowIndex)
	getPost(r, "/profile/:username/follow/", login, h.ProfileFollow)
	getPost(r, "/profile/:username/unfollow/", login, h.ProfileUnfollow)

	auth := r.Group("/auth")
	{
		getPost(auth, "/signup/", authLimit, h.Signup)
		getPost(auth, "/login/", authLimit, h.Login)
		getPost(auth, "/logout/", h.Logout)
		getPost(auth, "/password_reset/", authLimit, h.PasswordReset)
		auth.GET("/password_reset/done/", h.PasswordResetDone)
		auth.GET("/reset/done/", h.PasswordResetComplete)
		getPost(auth, "/reset/:token/", authLimit, h.PasswordResetConfirm)
	}
}

// getPost 表单页面同时接受 GET 和 POST
func getPost(g gin.IRoutes, path string, handlers ...gin.HandlerFunc) {
	g.GET(path, handlers...)
	g.POST(path, handlers...)
}

func registerAPI(r *gin.Engine, h *handler.Handler, apiLimit gin.HandlerFunc) {
	api := r.Group("/api/v1")
	api.GET("/posts", h.APIListPosts)
	api.GET("/posts/:id", h.APIGetPost)
	api.GET("/groups/:slug/posts", h.APIGroupPosts)
	api.POST("/auth/token", apiLimit, h.APIToken)

	rel := api.Group("/relations")
	{
		rel.POST("/follow", middleware.APIAuthRequired(), h.APIFollow)
		rel.POST("/unfollow", middleware.APIAuthRequired(), h.APIUnfollow)
		rel.GET("/:username/following", h.APIListFollowing)
		rel.GET("/:username/fans", h.APIListFans)
	}
}
