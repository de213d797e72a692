package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusvoice/backend/internal/service"
)

const (
	defaultClusterMembers = 20
	maxClusterMembers     = 100
)

type ExplainRequest struct {
	Text     string `json:"text" validate:"required"`
	Category string `json:"category" validate:"omitempty,max=100"`
}

// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Success 200 {object} service.DashboardStats
// @Router /api/admin/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	st, err := h.Dashboard.Stats(c.Request.Context())
	if err != nil {
		h.Logger.Error().Err(err).Msg("dashboard stats failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load stats", err.Error())
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary Largest clusters
// @Tags admin
// @Produce json
// @Param limit query int false "Limit"
// @Success 200 {object} map[string]any
// @Router /api/admin/clusters [get]
func (h *Handler) ClustersList(c *gin.Context) {
	items, err := h.Dashboard.Clusters(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list clusters", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Cluster with its latest members
// @Tags admin
// @Produce json
// @Param id path string true "Cluster ID"
// @Param members query int false "Number of members"
// @Success 200 {object} service.ClusterDetail
// @Failure 404 {object} map[string]any
// @Router /api/admin/clusters/{id} [get]
func (h *Handler) ClusterDetails(c *gin.Context) {
	members := queryInt(c, "members", defaultClusterMembers)
	if members <= 0 || members > maxClusterMembers {
		members = defaultClusterMembers
	}
	detail, err := h.Dashboard.ClusterDetail(c.Request.Context(), c.Param("id"), members)
	if err != nil {
		writeStoreError(c, err, "Cluster")
		return
	}
	c.JSON(http.StatusOK, gin.H{"cluster": detail.Cluster, "members": toViews(detail.Members)})
}

// @Summary Trending clusters
// @Tags admin
// @Produce json
// @Param days query int false "Window in days (1-365)"
// @Param limit query int false "Limit"
// @Success 200 {object} map[string]any
// @Router /api/admin/trending [get]
func (h *Handler) Trending(c *gin.Context) {
	days := service.ClampTrendingDays(queryInt(c, "days", service.DefaultTrendingDays))
	items, err := h.Dashboard.Trending(c.Request.Context(), days, queryInt(c, "limit", 5))
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load trending clusters", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "days": days})
}

// @Summary Explain the severity of a text
// @Tags admin
// @Accept json
// @Produce json
// @Param body body ExplainRequest true "text"
// @Success 200 {object} service.Assessment
// @Router /api/admin/severity/explain [post]
func (h *Handler) ExplainSeverity(c *gin.Context) {
	var req ExplainRequest
	if !h.bind(c, &req) {
		return
	}
	if h.tooLong(c, req.Text) {
		return
	}
	c.JSON(http.StatusOK, h.Scorer.Score(c.Request.Context(), req.Text, strings.TrimSpace(req.Category)))
}
