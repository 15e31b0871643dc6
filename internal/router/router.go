package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/artel-team/artel/docs"
	"github.com/artel-team/artel/internal/config"
	"github.com/artel-team/artel/internal/middleware"
	"github.com/artel-team/artel/internal/modules/handler"
	"github.com/artel-team/artel/internal/modules/serializer"
	"github.com/artel-team/artel/internal/pkg/ratelimit"
	"github.com/artel-team/artel/internal/telemetry"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	Config   *config.Config
	Log      *zap.Logger
	Redis    *redis.Client
	Verifier middleware.TokenVerifier
	Profiles middleware.ProfileEnsurer

	AuthHandler       *handler.AuthHandler
	ProfileHandler    *handler.ProfileHandler
	SkillHandler      *handler.SkillHandler
	ProjectHandler    *handler.ProjectHandler
	InvitationHandler *handler.InvitationHandler
	ChatHandler       *handler.ChatHandler
	DeviceHandler     *handler.DeviceHandler
	RealtimeHandler   *handler.RealtimeHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	// Initialize logger for serializer package
	serializer.SetLogger(d.Log)
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(telemetry.GinMiddleware(d.Config.App.Name))
		r.Use(telemetry.TraceIDMiddleware())
	}
	r.Use(telemetry.PrometheusMiddleware())
	r.Use(middleware.ZapLogger(d.Log))
	r.Use(middleware.CORS())

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })
	r.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	// swagger
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// public auth endpoints
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", d.AuthHandler.SignUp)
		auth.POST("/signin", d.AuthHandler.SignIn)
		auth.POST("/otp", d.AuthHandler.SendOTP)
		auth.POST("/verify", d.AuthHandler.VerifyOTP)
		auth.POST("/recover", d.AuthHandler.SendPasswordReset)
		auth.POST("/refresh", d.AuthHandler.Refresh)
		auth.GET("/oauth/:provider", d.AuthHandler.StartOAuth)
		auth.POST("/callback", d.AuthHandler.CompleteCallback)
	}

	authed := v1.Group("")
	{
		authed.Use(middleware.UserAuth(d.Verifier, d.Profiles, d.Redis, d.Config.Auth.ProfileSeenTTL, d.Log))

		authed.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		authed.GET("/session", d.AuthHandler.GetSession)
		authed.POST("/auth/signout", d.AuthHandler.SignOut)
		authed.PUT("/auth/user", d.AuthHandler.UpdateUser)

		me := authed.Group("/me")
		{
			me.GET("/profile", d.ProfileHandler.GetMyProfile)
			me.PUT("/profile", d.ProfileHandler.UpsertMyProfile)
			me.POST("/avatar", d.ProfileHandler.UploadAvatar)
			me.DELETE("/avatar", d.ProfileHandler.RemoveAvatar)
			me.PUT("/skills", d.SkillHandler.SetMySkills)
			me.POST("/responses/reconcile", d.InvitationHandler.ReconcileResponses)
		}

		profiles := authed.Group("/profiles")
		{
			profiles.GET("", d.ProfileHandler.ListSeeking)
			profiles.GET("/:id", d.ProfileHandler.GetProfile)
			profiles.GET("/:id/skills", d.SkillHandler.GetUserSkills)
		}

		authed.GET("/skills", d.SkillHandler.ListSkills)

		projects := authed.Group("/projects")
		{
			projects.GET("", d.ProjectHandler.ListProjects)
			projects.POST("", d.ProjectHandler.CreateProject)
			projects.GET("/board", d.ProjectHandler.Board)
			projects.PUT("/:id", d.ProjectHandler.UpdateProject)
			projects.DELETE("/:id", d.ProjectHandler.DeleteProject)
			projects.POST("/:id/image", d.ProjectHandler.UploadProjectImage)
			projects.POST("/:id/respond", d.ProjectHandler.Respond)
		}

		invitations := authed.Group("/invitations")
		{
			invitations.POST("", d.InvitationHandler.SendInvitation)
			invitations.GET("/incoming", d.InvitationHandler.ListIncoming)
			invitations.GET("/outgoing", d.InvitationHandler.ListOutgoing)
			invitations.POST("/:id/accept", d.InvitationHandler.AcceptInvitation)
			invitations.POST("/:id/reject", d.InvitationHandler.RejectInvitation)
		}

		chats := authed.Group("/chats")
		{
			chats.GET("", d.ChatHandler.ListChats)
			chats.DELETE("/:id", d.ChatHandler.DeleteChat)
			chats.GET("/:id/messages", d.ChatHandler.ListMessages)
			chats.POST("/:id/messages", d.ChatHandler.SendMessage)
		}

		devices := authed.Group("/devices")
		{
			devices.PUT("/push", d.DeviceHandler.RegisterPush)
			devices.DELETE("/push/:token", d.DeviceHandler.UnregisterPush)
		}

		authed.GET("/realtime", d.RealtimeHandler.Connect)
	}

	return r
}

type RelayDeps struct {
	Config  *config.Config
	Log     *zap.Logger
	Limiter *ratelimit.Keyed
	Handler *handler.RelayHandler
}

// NewRelayRouter serves the push relay. It answers plain text, so it carries
// none of the API's JSON middleware.
func NewRelayRouter(d RelayDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.PrometheusMiddleware())
	r.Use(middleware.ZapLogger(d.Log))

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	r.Any("/", middleware.IPRateLimit(d.Limiter), d.Handler.Send)
	return r
}
