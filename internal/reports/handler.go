package reports

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cliphub/internal/auth"
	"cliphub/pkg/models"
)

// ClipModerator is the catalog mutation a resolved report may trigger.
type ClipModerator interface {
	Blacklist(ctx context.Context, id int64) error
}

type Handler struct {
	Repo      *Repo
	Moderator ClipModerator
}

func NewHandler(repo *Repo, moderator ClipModerator) *Handler {
	return &Handler{Repo: repo, Moderator: moderator}
}

// RegisterRoutes mounts report filing for any authenticated user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reports", h.create)
}

// RegisterAdminRoutes mounts the moderation queue; the group must carry
// RequireAdmin.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/reports", h.list)
	rg.POST("/reports/:id/resolve", h.resolve)
}

type createReq struct {
	ClipID  int64  `json:"clip_id"`
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.ClipID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clip_id required"})
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason required"})
		return
	}

	report, err := h.Repo.Create(c.Request.Context(), req.ClipID, claims.UserID, reason, strings.TrimSpace(req.Details))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) list(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	if status == "" {
		status = models.ReportOpen
	}
	if status != models.ReportOpen && status != models.ReportResolved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be open or resolved"})
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.ListByStatus(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"status": status,
		"items":  items,
	})
}

type resolveReq struct {
	Blacklist bool `json:"blacklist"`
}

func (h *Handler) resolve(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	report, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	ok, err := h.Repo.Resolve(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "already resolved"})
		return
	}

	if req.Blacklist && h.Moderator != nil {
		if err := h.Moderator.Blacklist(c.Request.Context(), report.ClipID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "blacklist failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": models.ReportResolved, "blacklisted": req.Blacklist})
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
