package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/no-bike/software-aibot/internal/config"
	"github.com/no-bike/software-aibot/internal/fusion"
	"github.com/no-bike/software-aibot/internal/gateway"
	"github.com/no-bike/software-aibot/internal/server/validator"
	"github.com/no-bike/software-aibot/internal/store"
)

const serviceName = "software-aibot"

type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *zap.Logger
	service   gateway.Service
	multiChat *gateway.MultiChat
	engine    *fusion.Engine
	repo      store.Repository
}

func New(cfg *config.Config, logger *zap.Logger, service gateway.Service, multiChat *gateway.MultiChat, engine *fusion.Engine, repo store.Repository) *Server {

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	validator.InitValidator()

	router := gin.New()

	router.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	router.Use(ginzap.RecoveryWithZap(logger, true))
	router.Use(otelgin.Middleware(serviceName))

	s := &Server{
		router:    router,
		config:    cfg,
		logger:    logger,
		service:   service,
		multiChat: multiChat,
		engine:    engine,
		repo:      repo,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
