package server

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Ayush7kr/TaskManagementSystem/internal/api/handlers"
	"github.com/Ayush7kr/TaskManagementSystem/internal/api/middleware"
	"github.com/Ayush7kr/TaskManagementSystem/internal/auth"
	"github.com/Ayush7kr/TaskManagementSystem/internal/config"
	database "github.com/Ayush7kr/TaskManagementSystem/internal/db"
	"github.com/Ayush7kr/TaskManagementSystem/internal/mail"
	"github.com/Ayush7kr/TaskManagementSystem/internal/models"
	"github.com/Ayush7kr/TaskManagementSystem/internal/storage"
	"github.com/Ayush7kr/TaskManagementSystem/internal/store"
)

type Server struct {
	cfg     *config.Config
	db      *database.Client
	storage *storage.Client
	mail    mail.Dispatcher
	tokens  *auth.TokenManager
	router  *gin.Engine
}

func New(cfg *config.Config, db *database.Client, st *storage.Client, dispatcher mail.Dispatcher) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		db:      db,
		storage: st,
		mail:    dispatcher,
		tokens:  auth.NewTokenManager(cfg.Auth.JWTSecret),
		router:  gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery keeps handler panics from killing the process. Production
	// clients get a bare 500; elsewhere the response carries the panic and
	// stack to ease debugging.
	production := s.cfg.Server.Env == "production"
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		if production {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"panic": fmt.Sprint(err),
			"stack": string(debug.Stack()),
		})
	}))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.Metrics())

	// CORS Configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}

	// "Authorization" must be allowed so the frontend can send the JWT
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}

	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	// 1. Initialize Modular Handlers
	userStore := store.NewUserStore(s.db.DB)
	taskStore := store.NewTaskStore(s.db.DB)

	authHandler := handlers.NewAuthHandler(userStore, s.tokens)
	taskHandler := handlers.NewTaskHandler(taskStore, userStore, s.mail)
	userHandler := handlers.NewUserHandler(userStore, s.storage)
	teamHandler := handlers.NewTeamHandler(userStore)
	statsHandler := handlers.NewStatsHandler(taskStore)

	// Health Check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "taskmaster"})
	})

	// Avatars are public assets. With the local backend the API serves them
	// itself; with S3 the stored URLs already point at the bucket.
	if s.storage.Local() {
		s.router.GET("/avatars/*file", userHandler.ServeAvatar)
	}

	api := s.router.Group("/api")
	{
		// ==========================================
		// PUBLIC ROUTES (No Token Required)
		// ==========================================
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ==========================================
		// PROTECTED ROUTES (JWT Token Required)
		// ==========================================
		protected := api.Group("/")
		protected.Use(middleware.RequireAuth(s.tokens))
		{
			// --- TASKS (always owner-scoped) ---
			protected.GET("/tasks", taskHandler.ListTasks)
			protected.POST("/tasks", taskHandler.CreateTask)
			protected.PATCH("/tasks/:id", taskHandler.UpdateTask)
			protected.DELETE("/tasks/:id", taskHandler.DeleteTask)

			// --- DASHBOARD ---
			protected.GET("/stats", statsHandler.GetStats)

			// --- PROFILE (self-service only) ---
			protected.PATCH("/user/profile", userHandler.UpdateProfile)
			protected.PATCH("/user/password", userHandler.UpdatePassword)
			protected.POST("/user/avatar", userHandler.UploadAvatar)

			// --- TEAM DIRECTORY ---
			// Open by default (flat trusted team); the policy flag flips
			// both routes to admin-only.
			team := protected.Group("/team")
			if !s.cfg.Team.OpenManagement {
				team.Use(middleware.RequireRole(models.RoleAdmin))
			}
			team.GET("/members", teamHandler.ListMembers)
			team.POST("/members", teamHandler.AddMember)
		}
	}
}

// Start runs the server on the configured port
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the configured engine, used by the handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
