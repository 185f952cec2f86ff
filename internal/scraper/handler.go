package scraper

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mangacover/internal/apperr"
)

type Handler struct {
	Pipeline *Pipeline
}

func NewHandler(p *Pipeline) *Handler {
	return &Handler{Pipeline: p}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/random", h.random)    // GET /mangadex-parser/random
	rg.GET("/manga/:id", h.byID)   // GET /mangadex-parser/manga/:id
	rg.POST("/popular", h.popular) // POST /mangadex-parser/popular?limit=N
	rg.GET("/all", h.all)          // GET /mangadex-parser/all
}

func (h *Handler) random(c *gin.Context) {
	res, err := h.Pipeline.FetchAndSaveRandom(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) byID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	res, err := h.Pipeline.FetchAndSaveByID(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) popular(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	res, err := h.Pipeline.FetchAndSavePopular(c.Request.Context(), limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) all(c *gin.Context) {
	items, err := h.Pipeline.ListAll(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func parseLimit(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPopularLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q: %w", s, apperr.ErrInvalidArgument)
	}
	return n, nil
}
