package manga

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mangacover/internal/apperr"
	"mangacover/internal/mangadex"
)

type Handler struct {
	Repo   *Repo
	Covers *CoverService
}

func NewHandler(repo *Repo, covers *CoverService) *Handler {
	return &Handler{Repo: repo, Covers: covers}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)                                 // GET /manga
	rg.GET("/random-cover", h.randomCover)             // GET /manga/random-cover
	rg.GET("/random-cover.jpg", h.randomCoverRedirect) // GET /manga/random-cover.jpg
	rg.GET("/:id", h.getByID)                          // GET /manga/:id
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Repo.ListAll(c.Request.Context())
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	m, err := h.Repo.GetByProviderID(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if m == nil {
		apperr.Respond(c, fmt.Errorf("manga %s: %w", id, apperr.ErrRecordNotFound))
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) randomCover(c *gin.Context) {
	res, ok := h.resolve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) randomCoverRedirect(c *gin.Context) {
	res, ok := h.resolve(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Redirect(http.StatusFound, res.CoverURL)
}

func (h *Handler) resolve(c *gin.Context) (CoverResult, bool) {
	size, err := mangadex.ParseCoverSize(c.Query("size"))
	if err != nil {
		apperr.Respond(c, err)
		return CoverResult{}, false
	}
	res, err := h.Covers.GetRandomCover(c.Request.Context(), size)
	if err != nil {
		apperr.Respond(c, err)
		return CoverResult{}, false
	}
	return res, true
}
