package routes

import (
	"errors"
	"net/http"

	"movie-search-platform/internal/telemetry"
	"movie-search-platform/middleware"
	"movie-search-platform/models"
	"movie-search-platform/services"
	"movie-search-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupMovieRoutes mounts the search and agent endpoints behind the
// look-aside response cache.
func SetupMovieRoutes(
	router *gin.Engine,
	searchService *services.SearchService,
	agentService *services.AgentService,
	cache *services.ResponseCache,
	metrics *telemetry.Metrics,
) {
	api := router.Group("/api/v1/movies")
	api.Use(middleware.CacheMiddleware(cache, metrics))

	api.POST("/search", func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		resp, err := searchService.Search(ctx, req)
		if err != nil {
			respondWithPipelineError(c, err)
			return
		}
		metrics.RecordSearch()
		c.JSON(http.StatusOK, resp)
	})

	api.POST("/agent", func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		resp, err := agentService.Answer(ctx, req)
		if err != nil {
			respondWithPipelineError(c, err)
			return
		}
		metrics.RecordSearch()
		c.JSON(http.StatusOK, resp)
	})
}

// respondWithPipelineError maps pipeline failures onto HTTP responses: bad
// input is the caller's fault, infrastructure failures are reported without
// crashing the process or affecting other requests.
func respondWithPipelineError(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		utils.RespondWithBadRequest(c, verr.Message, nil)
		return
	}
	switch {
	case errors.Is(err, services.ErrModelUnavailable),
		errors.Is(err, services.ErrStoreUnavailable),
		errors.Is(err, services.ErrCompletionService):
		utils.RespondWithServiceUnavailable(c, err.Error())
	default:
		utils.RespondWithInternalError(c, "Request failed", gin.H{"error": err.Error()})
	}
}
