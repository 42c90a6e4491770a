package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"

	"taskmanager/internal/config"
	"taskmanager/internal/handler"
	"taskmanager/internal/middleware"
	"taskmanager/internal/validation"
)

// Params holds everything the routes need, injected by fx.
type Params struct {
	fx.In

	Config  *config.Config
	Logger  *slog.Logger
	Gate    *middleware.SessionGate
	Auth    *handler.AuthHandler
	Tasks   *handler.TaskHandler
	Profile *handler.ProfileHandler
	Uploads *handler.UploadHandler `optional:"true"`
}

// Register wires routes and middleware.
func Register(e *echo.Echo, p Params) error {
	e.HideBanner = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = middleware.NewErrorHandler(p.Logger).Handle

	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics)
	e.Use(middleware.NewRequestLogger(p.Logger).Handle)
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     p.Config.CORS.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if p.Config.Swagger.Enabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}
	if p.Uploads != nil {
		e.GET("/uploads/*", p.Uploads.Serve)
	}

	limit, err := middleware.NewIPRateLimiter(p.Config.Auth.RateLimit)
	if err != nil {
		return errors.Wrap(err, "auth rate limit")
	}
	session := p.Gate.Middleware()

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", p.Auth.Signup, limit)
	authGroup.POST("/login", p.Auth.Login, limit)
	authGroup.POST("/logout", p.Auth.Logout)
	authGroup.GET("/authCheck", p.Auth.AuthCheck, session)
	authGroup.DELETE("/deleteAccount", p.Auth.DeleteAccount, session)

	profile := api.Group("/profile", session)
	profile.GET("", p.Profile.GetProfile)
	profile.PATCH("", p.Profile.UpdateProfile)
	profile.PUT("", p.Profile.UpdatePassword)
	profile.POST("/uploadProfilePicture", p.Profile.UploadProfilePicture)
	profile.DELETE("/deleteProfile", p.Profile.DeleteProfile)

	tasks := api.Group("/tasks", session)
	tasks.GET("", p.Tasks.ListTasks)
	tasks.POST("", p.Tasks.CreateTask)
	tasks.GET("/:id", p.Tasks.GetTask)
	tasks.PUT("/:id", p.Tasks.UpdateTask)
	tasks.DELETE("/:id", p.Tasks.DeleteTask)

	return nil
}
