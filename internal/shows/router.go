package shows

import "github.com/gin-gonic/gin"

// SetupShowRoutes registers show browsing and creation.
// POST /shows/:id/bookings lives in the bookings package on the same group.
func SetupShowRoutes(rg *gin.RouterGroup, controller *Controller) {
	shows := rg.Group("/shows")
	{
		shows.GET("", controller.ListShows)   // GET /api/v1/shows
		shows.GET("/:id", controller.GetShow) // GET /api/v1/shows/:id
		shows.POST("", controller.CreateShow) // POST /api/v1/shows
	}
}
