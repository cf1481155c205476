package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/meetup-social/meetup-api/internal/api/handler"
	"github.com/meetup-social/meetup-api/internal/api/middleware"
	"github.com/meetup-social/meetup-api/internal/core/domain"
	"github.com/meetup-social/meetup-api/internal/core/ports"
	"github.com/meetup-social/meetup-api/internal/infrastructure/http/handlers"
)

const commentBodyLimit = "3M"

// catalogWriters may create, update and delete books and playlists.
var catalogWriters = []domain.Role{domain.RoleTeacher, domain.RoleAdmin, domain.RoleSuperAdmin}

// Dependencies is everything the router wires into handlers and middleware.
type Dependencies struct {
	Auth          ports.AuthService
	Verification  ports.VerificationService
	PasswordReset ports.PasswordResetService
	Comments      ports.CommentService
	Books         ports.CatalogService
	Playlists     ports.CatalogService
	Users         ports.UserService
	Tokens        ports.TokenVerifier
	Idempotency   ports.IdempotencyStore
	HealthChecks  map[string]handlers.Check
	Cookie        handler.CookieOptions
	Log           zerolog.Logger

	// Registerer receives the HTTP metrics. Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "meetup",
		Registerer: deps.Registerer,
	}))

	// --- Auth & middleware chains ---
	authenticate := middleware.Authenticate(deps.Tokens)
	verified := middleware.RequireVerified()
	idempotent := middleware.Idempotency(deps.Idempotency, deps.Log)
	canWriteCatalog := middleware.RBAC(catalogWriters...)

	api := e.Group("/api")

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Verification, deps.PasswordReset, deps.Cookie)
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/signin", authHandler.Signin)
	auth.POST("/signout", authHandler.Signout)
	auth.POST("/send-verification-code", authHandler.SendVerificationCode)
	auth.POST("/verify-verification-code", authHandler.VerifyVerificationCode)
	auth.POST("/change-password", authHandler.ChangePassword, authenticate, verified)
	auth.POST("/send-forgot-password-code", authHandler.SendForgotPasswordCode)
	auth.POST("/verify-forgot-password-code", authHandler.VerifyForgotPasswordCode)

	// --- Comment routes ---
	commentHandler := handler.NewCommentHandler(deps.Comments)
	comments := api.Group("/comments")
	comments.GET("/:postId/get-comments", commentHandler.List)
	comments.POST("/:postId/create-comment", commentHandler.Create,
		authenticate, verified, echomiddleware.BodyLimit(commentBodyLimit), idempotent)
	comments.PATCH("/update-comment/:id", commentHandler.Update, authenticate, verified)
	comments.DELETE("/delete-comment/:id", commentHandler.Delete, authenticate, verified)
	comments.PATCH("/add-upvote/:id/:solverId", commentHandler.AddUpvote, authenticate, verified)
	comments.PATCH("/remove-upvote/:id/:solverId", commentHandler.RemoveUpvote, authenticate, verified)

	// --- Catalog routes ---
	books := handler.NewCatalogHandler(deps.Books)
	registerCatalog(api.Group("/books", authenticate, verified), "book", books, canWriteCatalog, idempotent)

	playlists := handler.NewCatalogHandler(deps.Playlists)
	playlistGroup := api.Group("/playlists", authenticate, verified)
	registerCatalog(playlistGroup, "playlist", playlists, canWriteCatalog, idempotent)
	playlistGroup.GET("/get-teacher-playlists/:userId", playlists.ListByOwner)

	// --- User routes ---
	userHandler := handler.NewUserHandler(deps.Users)
	users := api.Group("/users", authenticate)
	users.GET("/get-users", userHandler.List)
	users.GET("/get-teachers", userHandler.ListTeachers)
	users.PATCH("/follow/:followId", userHandler.Follow, verified)
	users.PATCH("/unfollow/:unfollowId", userHandler.Unfollow, verified)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func registerCatalog(g *echo.Group, kind string, h *handler.CatalogHandler, canWrite, idempotent echo.MiddlewareFunc) {
	g.GET("/get-"+kind+"s", h.List)
	g.GET("/get-"+kind+"/:id", h.Get)
	g.GET("/search-"+kind+"/:term", h.Search)
	g.POST("/create-"+kind, h.Create, canWrite, idempotent)
	g.PATCH("/update-"+kind+"/:id", h.Update, canWrite)
	g.DELETE("/delete-"+kind+"/:id", h.Delete, canWrite)
}

// requestLogger writes one access log entry per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			} else if v.Error != nil {
				ev = log.Warn()
			}
			ev.
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
