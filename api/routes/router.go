// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"ticketing/internal/bookings"
	"ticketing/internal/notifications"
	"ticketing/internal/shared/config"
	"ticketing/internal/shows"
	"ticketing/pkg/cache"
	"ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the backing stores are reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Router holds all route dependencies
type Router struct {
	config       *config.Config
	health       HealthChecker
	log          *logger.Logger
	showRepo     shows.Repository
	bookingRepo  bookings.Repository
	cacheService cache.Service
	publisher    notifications.Publisher
}

// NewRouter creates a new router instance over the given ledger
func NewRouter(cfg *config.Config, health HealthChecker, showRepo shows.Repository, bookingRepo bookings.Repository) *Router {
	return &Router{
		config:       cfg,
		health:       health,
		log:          logger.GetDefault(),
		showRepo:     showRepo,
		bookingRepo:  bookingRepo,
		cacheService: cache.NewService(nil),
		publisher:    notifications.NopPublisher{},
	}
}

func (r *Router) SetCacheService(cacheService cache.Service) {
	r.cacheService = cacheService
}

func (r *Router) SetPublisher(publisher notifications.Publisher) {
	r.publisher = publisher
}

func (r *Router) SetLogger(log *logger.Logger) {
	r.log = log
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Bookings first: the show service reads seat counts from it
		bookingService := r.setupBookingRoutes(api)
		r.setupShowRoutes(api, bookingService)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.health.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketing",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now(),
			"service":   "ticketing",
		})
	})
}

// setupBookingRoutes configures reservation and booking lookup routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) bookings.Service {
	bookingService := bookings.NewService(r.bookingRepo)
	bookingService.SetPublisher(r.publisher)
	bookingService.SetLogger(r.log)

	bookings.SetupBookingRoutes(rg, bookings.NewController(bookingService))
	return bookingService
}

// setupShowRoutes configures show browsing and creation routes
func (r *Router) setupShowRoutes(rg *gin.RouterGroup, seats shows.SeatSource) {
	showService := shows.NewService(r.showRepo)
	showService.SetSeatSource(seats)
	showService.SetCacheService(r.cacheService)

	shows.SetupShowRoutes(rg, shows.NewController(showService))
}
