package main

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"qomex.backend/internal/interfaces/http/handlers"
	"qomex.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "qomex-backend"
	serviceVersion = "1.0.0"
)

type routeDeps struct {
	postbackHandler     *handlers.PostbackHandler
	authHandler         *handlers.AuthHandler
	pageHandler         *handlers.PageHandler
	depositHandler      *handlers.DepositHandler
	resetHandler        *handlers.PasswordResetHandler
	adminHandler        *handlers.AdminHandler
	sessionMiddleware   gin.HandlerFunc
	clickIDMiddleware   gin.HandlerFunc
	adminAuthMiddleware gin.HandlerFunc
	authRateLimit       gin.HandlerFunc
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	// Broker callbacks
	r.GET("/postback", d.postbackHandler.Handle)
	r.POST("/postback", d.postbackHandler.Handle)

	// SEO
	r.GET("/robots.txt", d.pageHandler.Robots)
	r.GET("/sitemap.xml", d.pageHandler.Sitemap)

	// Site (visitor cookie + optional session)
	site := r.Group("/")
	site.Use(d.clickIDMiddleware, d.sessionMiddleware)
	{
		site.GET("/", d.pageHandler.Index)
		site.GET("/cookie.html", d.pageHandler.Static("cookie.html", "Cookie policy"))
		site.GET("/terms.html", d.pageHandler.Static("terms.html", "Terms"))
		site.GET("/privacy.html", d.pageHandler.Static("privacy.html", "Privacy"))
		site.GET("/go-broker", d.pageHandler.GoBroker)
		site.GET("/go-to-signals", d.pageHandler.GoToSignals)
		site.GET("/dashboard", d.pageHandler.Dashboard)
		site.GET("/profile", d.pageHandler.Profile)

		site.GET("/auth", d.authHandler.Page)
		site.POST("/auth", d.authRateLimit, d.authHandler.Submit)
		site.GET("/logout", d.authHandler.Logout)
		site.POST("/logout", d.authHandler.Logout)

		site.GET("/check", d.depositHandler.CheckPage)
		site.POST("/check", d.depositHandler.VerifyClaim)
		site.GET("/deposit-check", d.depositHandler.DepositCheck)

		site.GET("/auth/reset", d.resetHandler.Page)
		site.POST("/password-reset-request", d.authRateLimit, d.resetHandler.RequestReset)
		site.POST("/password-reset", d.authRateLimit, d.resetHandler.Reset)
	}

	// Admin API (basic auth)
	admin := r.Group("/admin")
	admin.Use(d.adminAuthMiddleware)
	{
		admin.GET("/users", d.adminHandler.ListUsers)
		admin.GET("/users/:id", d.adminHandler.GetUser)
		admin.PUT("/users/:id", d.adminHandler.UpdateUser)
		admin.POST("/users/:id/reconcile", d.adminHandler.ReconcileUser)
		admin.GET("/postbacks", d.adminHandler.ListPostbacks)
		admin.GET("/postbacks/:id", d.adminHandler.GetPostback)
	}
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(middleware.CORSMiddleware())
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, h http.Handler) {
	r.GET("/metrics", gin.WrapH(h))
}

// registerStaticRoute serves /static from dir when it exists
func registerStaticRoute(r *gin.Engine, dir string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	r.Static("/static", dir)
	return true
}
