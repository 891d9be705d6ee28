package feed

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cliphub/internal/catalog"
	"cliphub/internal/session"
)

type Handler struct {
	Composer *Composer
	Repo     *catalog.Repo
	Sessions *session.Store
}

func NewHandler(composer *Composer, repo *catalog.Repo, sessions *session.Store) *Handler {
	return &Handler{Composer: composer, Repo: repo, Sessions: sessions}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.feed) // GET /feed
}

func (h *Handler) feed(c *gin.Context) {
	req := Request{
		Limit:       parseInt(c.Query("limit"), 20),
		Offset:      parseInt(c.Query("offset"), 0),
		Sort:        strings.TrimSpace(c.Query("sort")),
		Source:      strings.TrimSpace(c.Query("source")),
		Platform:    strings.TrimSpace(c.Query("platform")),
		Q:           strings.TrimSpace(c.Query("q")),
		Lang:        strings.TrimSpace(c.Query("lang")),
		IncludeNSFW: c.Query("nsfw") == "1" || c.Query("nsfw") == "true",
		WindowHours: parseInt(c.Query("window_hours"), 0),
		Fingerprint: session.Fingerprint(
			c.ClientIP(),
			c.GetHeader("User-Agent"),
			c.GetHeader("Accept-Language"),
		),
	}

	page, err := h.Composer.Compose(c.Request.Context(), req)
	if err != nil {
		log.Printf("[feed] compose failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feed failed"})
		return
	}

	ids := make([]int64, 0, len(page.Items))
	for _, it := range page.Items {
		ids = append(ids, it.ID)
	}

	h.Sessions.Remember(req.Fingerprint, ids)

	// best-effort: a failed counter bump never fails the read
	if err := h.Repo.IncrementViews(c.Request.Context(), ids); err != nil {
		log.Printf("[feed] view counter update failed: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  page.Total,
		"limit":  page.Limit,
		"offset": page.Offset,
		"stage":  page.Stage,
		"items":  page.Items,
	})
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
