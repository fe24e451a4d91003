// Package api exposes the ledger over HTTP. It owns routing, request
// decoding, and the mapping from error kinds to status codes; all domain
// decisions live below it.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mtobin/pennywise/internal/auth"
	"github.com/mtobin/pennywise/internal/common"
	"github.com/mtobin/pennywise/internal/ledger"
	"github.com/mtobin/pennywise/internal/report"
)

// Server wires the HTTP routes to the application services.
type Server struct {
	router  *gin.Engine
	ledger  *ledger.Ledger
	reports *report.Service
	auth    *auth.Service
}

// NewServer builds the router. gin runs in release mode; callers set
// gin.SetMode themselves if they want request logging.
func NewServer(l *ledger.Ledger, r *report.Service, a *auth.Service) *Server {
	s := &Server{
		router:  gin.New(),
		ledger:  l,
		reports: r,
		auth:    a,
	}
	s.router.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)

	authed := api.Group("")
	authed.Use(s.authRequired())

	authed.GET("/transactions", s.handleListTransactions)
	authed.POST("/transactions", s.handlePostTransaction)
	authed.GET("/transactions/:id", s.handleGetTransaction)
	authed.DELETE("/transactions/:id", s.handleDeleteTransaction)

	authed.GET("/debts", s.handleListDebts)
	authed.POST("/debts", s.handleCreateDebt)
	authed.GET("/debts/:id", s.handleGetDebt)
	authed.DELETE("/debts/:id", s.handleDeleteDebt)

	authed.GET("/tags", s.handleListTags)
	authed.POST("/tags", s.handleCreateTag)
	authed.PUT("/tags/:id", s.handleRenameTag)
	authed.DELETE("/tags/:id", s.handleDeleteTag)

	authed.GET("/dashboard", s.handleDashboard)
	authed.GET("/dashboard/extremes", s.handleExtremes)
}

// Router exposes the underlying handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run serves HTTP on the given address until the listener fails.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// respondError translates error kinds into HTTP status codes.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrDuplicateEntry):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrTokenRevoked):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrConflict):
		status = http.StatusConflict
	default:
		common.LogError(err, "internal error", nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
