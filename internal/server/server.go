// Package server wires the domain components behind a gin HTTP API.
package server

import (
	"family-meal-planner/internal/auth"
	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/family"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/shopping"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server holds the HTTP layer's dependencies.
type Server struct {
	members   *family.Repository
	diners    *diner.Store
	lifecycle *planner.Manager
	shopping  *shopping.Generator
	lists     *shopping.Repository
	metrics   *metrics.Store
	jwt       *auth.JWTService
	log       *logrus.Logger
}

// NewServer creates a Server. metricsStore may be nil, which disables the
// usage endpoint.
func NewServer(
	members *family.Repository,
	diners *diner.Store,
	lifecycle *planner.Manager,
	shoppingGen *shopping.Generator,
	lists *shopping.Repository,
	metricsStore *metrics.Store,
	jwtService *auth.JWTService,
	log *logrus.Logger,
) *Server {
	return &Server{
		members:   members,
		diners:    diners,
		lifecycle: lifecycle,
		shopping:  shoppingGen,
		lists:     lists,
		metrics:   metricsStore,
		jwt:       jwtService,
		log:       log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	r.POST("/api/auth/register", s.handleRegister)
	r.POST("/api/auth/login", s.handleLogin)

	api := r.Group("/api", RequireAuth(s.jwt))
	{
		api.GET("/me", s.handleGetMe)

		api.POST("/family-members", s.handleCreateMember)
		api.GET("/family-members", s.handleListMembers)
		api.GET("/family-members/:id", s.handleGetMember)
		api.PUT("/family-members/:id", s.handleUpdateMember)
		api.DELETE("/family-members/:id", s.handleDeleteMember)

		api.GET("/diner-preferences/:mealType", s.handleGetBulkPreferences)
		api.PUT("/diner-preferences/:mealType", s.handleSetBulkPreferences)
		api.DELETE("/diner-preferences/:mealType", s.handleDeleteBulkPreferences)

		api.POST("/menu-plans", s.handleCreatePlan)
		api.GET("/menu-plans", s.handleListPlans)
		api.GET("/menu-plans/:id", s.handleGetPlan)
		api.DELETE("/menu-plans/:id", s.handleDeletePlan)
		api.POST("/menu-plans/:id/confirm", s.handleConfirmPlan)
		api.POST("/menu-plans/:id/shopping-list", s.handleGenerateShoppingList)
		api.GET("/menu-plans/:id/shopping-list", s.handleGetShoppingList)

		if s.metrics != nil {
			api.GET("/metrics/usage", s.handleGetUsage)
		}

		api.GET("/meals/:id", s.handleGetMeal)
		api.PUT("/meals/:id/diners", s.handleUpdateMealDiners)
		api.POST("/meals/:id/regenerate", s.handleRegenerateMeal)
		api.POST("/meals/:id/revert-diners", s.handleRevertMealToBulk)
		api.POST("/meals/:id/dishes/import", s.handleImportDish)
	}

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Info("request")
	}
}
