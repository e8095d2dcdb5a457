package announcements

import (
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/announcements/crawl"
	"github.com/pevans/announcements/listing"
	"go.uber.org/zap"
)

// APIServer exposes the service over HTTP for presentation clients.
type APIServer struct {
	service *Service
}

// NewAPIServer creates a new API server around service.
func NewAPIServer(service *Service) *APIServer {
	return &APIServer{
		service: service,
	}
}

// SetupRouter configures the Gin router with all announcement API routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.service.logger.Named("api")))

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/announcements", s.HandleListAnnouncements)
	api.GET("/announcements/detail", s.HandleGetDetail)
	api.GET("/config", s.HandleGetConfig)

	return router
}

// requestLogger logs one line per request in place of gin's default logger.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// ListAnnouncementsResponse represents the response for
// GET /api/v1/announcements.
type ListAnnouncementsResponse struct {
	RunID         uuid.UUID              `json:"run_id"`
	Announcements []listing.Announcement `json:"announcements"`
	Total         int                    `json:"total"`
	Pages         []PageStatus           `json:"pages"`
}

// PageStatus reports the outcome of one crawled page.
type PageStatus struct {
	Page    int    `json:"page"`
	URL     string `json:"url"`
	State   string `json:"state"`
	Count   int    `json:"count"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

// DetailResponse represents the response for GET /api/v1/announcements/detail.
type DetailResponse struct {
	Link  string   `json:"link"`
	Body  string   `json:"body"`
	Links []string `json:"links"`
}

// errorResponse creates a standardized error response.
func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// allowedHost reports whether rawURL is absolute and points at the configured
// site or one of site.allowed_hosts. The API only fetches such URLs.
func (s *APIServer) allowedHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)

	cfg := s.service.Config()
	if base, err := url.Parse(cfg.Site.BaseURL); err == nil && strings.ToLower(base.Host) == host {
		return true
	}
	return slices.ContainsFunc(cfg.Site.AllowedHosts, func(allowed string) bool {
		return strings.ToLower(allowed) == host
	})
}

// HandleListAnnouncements handles GET /api/v1/announcements. Missing
// parameters fall back to the configured site.
func (s *APIServer) HandleListAnnouncements(c *gin.Context) {
	cfg := s.service.Config()
	start, end := cfg.Pages()

	baseURL := c.Query("base_url")
	if baseURL == "" {
		baseURL = cfg.Site.BaseURL
	} else if !s.allowedHost(baseURL) {
		c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "base_url host is not allowed"))
		return
	}

	if startParam := c.Query("start"); startParam != "" {
		parsed, err := strconv.Atoi(startParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid start parameter"))
			return
		}
		start = parsed
	}

	if endParam := c.Query("end"); endParam != "" {
		parsed, err := strconv.Atoi(endParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Invalid end parameter"))
			return
		}
		end = parsed
	}

	result, err := s.service.CollectAnnouncements(baseURL, start, end)
	if err != nil {
		if errors.Is(err, crawl.ErrInvalidPageRange) || errors.Is(err, crawl.ErrInvalidBaseURL) {
			c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to collect announcements"))
		return
	}

	pages := make([]PageStatus, 0, len(result.Pages))
	for _, p := range result.Pages {
		status := PageStatus{
			Page:    p.Page,
			URL:     p.URL,
			State:   p.State.String(),
			Count:   p.Count,
			Skipped: p.Skipped,
		}
		if p.Err != nil {
			status.Error = p.Err.Error()
		}
		pages = append(pages, status)
	}

	c.JSON(http.StatusOK, ListAnnouncementsResponse{
		RunID:         result.RunID,
		Announcements: result.Announcements,
		Total:         len(result.Announcements),
		Pages:         pages,
	})
}

// HandleGetDetail handles GET /api/v1/announcements/detail.
func (s *APIServer) HandleGetDetail(c *gin.Context) {
	link := c.Query("link")
	if link == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "Missing link parameter"))
		return
	}
	if !s.allowedHost(link) {
		c.JSON(http.StatusBadRequest, errorResponse("invalid_parameter", "link host is not allowed"))
		return
	}

	content, err := s.service.RetrieveAndParseDetail(link)
	if err != nil {
		if errors.Is(err, ErrNoContent) {
			c.JSON(http.StatusBadGateway, errorResponse("no_content", "There is no content"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to retrieve detail"))
		return
	}

	c.JSON(http.StatusOK, DetailResponse{
		Link:  link,
		Body:  content.Body,
		Links: content.Links,
	})
}

// HandleGetConfig handles GET /api/v1/config.
func (s *APIServer) HandleGetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Config())
}
