package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mangacover/internal/chat"
	"mangacover/internal/logging"
	"mangacover/internal/manga"
	"mangacover/internal/scraper"
	synchub "mangacover/internal/sync"
	"mangacover/internal/users"
	"mangacover/pkg/utils"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Config utils.AppConfig
	DB     Pinger
	Manga  *manga.Handler
	Parser *scraper.Handler
	Users  *users.Handler
	Chat   *chat.Hub
	Feed   *synchub.Hub
}

func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(logging.GinLogger(), gin.Recovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello World!")
	})

	router.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"apiBase":     d.Config.APIBase,
			"uploadsBase": d.Config.UploadsBase,
			"timeout":     d.Config.HTTPTimeoutMS,
			"port":        d.Config.Port,
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		body := gin.H{}
		if d.Feed != nil {
			body["ws_clients"] = d.Feed.Stats().WSClients
		}
		if d.Chat != nil {
			body["chat_clients"] = d.Chat.Clients()
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if d.DB == nil {
			body["status"] = "not_ready"
			body["db_error"] = "no database"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		if err := d.DB.PingContext(ctx); err != nil {
			body["status"] = "not_ready"
			body["db_error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		body["db"] = "ok"
		c.JSON(http.StatusOK, body)
	})

	if d.Manga != nil {
		d.Manga.RegisterRoutes(router.Group("/manga"))
	}
	if d.Parser != nil {
		d.Parser.RegisterRoutes(router.Group("/mangadex-parser"))
	}
	if d.Users != nil {
		d.Users.RegisterRoutes(router.Group("/users"))
	}
	if d.Chat != nil {
		router.GET("/chat/ws", chat.WSHandler(d.Chat))
		router.GET("/chat/history", chat.HistoryHandler(d.Chat))
	}
	if d.Feed != nil {
		router.GET("/ws", synchub.WSHandler(d.Feed))
	}

	return router
}
