package catalog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cliphub/internal/live"
)

type Handler struct {
	Repo *Repo
	Hub  *live.Hub
}

func NewHandler(repo *Repo, hub *live.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.getByID) // GET /clips/:id
}

// RegisterAdminRoutes mounts the moderation actions; the caller wraps the
// group in admin auth middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/unsafe", h.markUnsafe)
	rg.POST("/:id/blacklist", h.blacklist)
	rg.DELETE("/:id", h.delete)
}

func (h *Handler) getByID(c *gin.Context) {
	id, ok := clipID(c)
	if !ok {
		return
	}

	clip, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if clip == nil || clip.Blacklisted {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, clip)
}

func (h *Handler) markUnsafe(c *gin.Context) {
	id, ok := clipID(c)
	if !ok {
		return
	}
	if err := h.Repo.MarkUnsafe(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark unsafe failed"})
		return
	}
	h.broadcast(live.ClipUnsafeEvent, id)
	c.JSON(http.StatusOK, gin.H{"status": "marked unsafe"})
}

func (h *Handler) blacklist(c *gin.Context) {
	id, ok := clipID(c)
	if !ok {
		return
	}
	if err := h.Repo.Blacklist(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "blacklist failed"})
		return
	}
	h.broadcast(live.ClipBlacklistedEvent, id)
	c.JSON(http.StatusOK, gin.H{"status": "blacklisted"})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := clipID(c)
	if !ok {
		return
	}
	removed, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.broadcast(live.ClipRemovedEvent, id)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) broadcast(eventType string, id int64) {
	if h.Hub == nil {
		return
	}
	go h.Hub.PublishClip(live.ClipEvent{
		Type:   eventType,
		ClipID: id,
		At:     time.Now().UTC(),
	})
}

func clipID(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clip id"})
		return 0, false
	}
	return id, true
}
