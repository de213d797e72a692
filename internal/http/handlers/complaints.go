package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/models"
	"github.com/campusvoice/backend/internal/service"
)

type CreateComplaintRequest struct {
	Text      string `json:"text" validate:"required"`
	Category  string `json:"category" validate:"omitempty,max=100"`
	UserID    string `json:"user_id" validate:"omitempty,max=100"`
	Anonymous bool   `json:"anonymous"`
}

type CreateComplaintResponse struct {
	Complaint      ComplaintView       `json:"complaint"`
	Assessment     service.Assessment  `json:"assessment"`
	CategorySource string              `json:"category_source"`
	Cluster        *service.Assignment `json:"cluster"`
	Fallbacks      []string            `json:"fallbacks"`
}

type RewriteRequest struct {
	Text string `json:"text" validate:"required"`
}

// @Summary Submit a complaint
// @Tags complaints
// @Accept json
// @Produce json
// @Param body body CreateComplaintRequest true "complaint"
// @Success 201 {object} CreateComplaintResponse
// @Failure 400 {object} map[string]any
// @Failure 429 {object} map[string]any
// @Router /api/complaints [post]
func (h *Handler) CreateComplaint(c *gin.Context) {
	var req CreateComplaintRequest
	if !h.bind(c, &req) {
		return
	}
	if h.tooLong(c, strings.TrimSpace(req.Text)) {
		return
	}

	in := service.SubmitRequest{
		Text:      req.Text,
		Category:  strings.TrimSpace(req.Category),
		Anonymous: req.Anonymous,
	}
	if uid := strings.TrimSpace(req.UserID); uid != "" {
		in.UserID = &uid
	}

	res, err := h.Submissions.Submit(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrEmptyComplaint) {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Complaint text is empty", nil)
			return
		}
		h.Logger.Error().Err(err).Msg("complaint submission failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to store complaint", err.Error())
		return
	}

	fallbacks := res.Fallbacks
	if fallbacks == nil {
		fallbacks = []string{}
	}
	c.JSON(http.StatusCreated, CreateComplaintResponse{
		Complaint:      toView(res.Complaint),
		Assessment:     res.Assessment,
		CategorySource: res.CategorySource,
		Cluster:        res.Assignment,
		Fallbacks:      fallbacks,
	})
}

// @Summary List complaints
// @Tags complaints
// @Produce json
// @Param category query string false "Category"
// @Param severity query string false "low, medium or high"
// @Param cluster_id query string false "Cluster"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]any
// @Router /api/complaints [get]
func (h *Handler) ComplaintsList(c *gin.Context) {
	f := db.ComplaintFilter{
		Category:  strings.TrimSpace(c.Query("category")),
		ClusterID: strings.TrimSpace(c.Query("cluster_id")),
		Limit:     queryInt(c, "limit", 50),
		Offset:    queryInt(c, "offset", 0),
	}
	if raw := c.Query("severity"); raw != "" {
		sev, ok := models.ParseSeverity(raw)
		if !ok {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "severity must be low, medium or high", nil)
			return
		}
		f.Severity = sev
	}
	h.listComplaints(c, f)
}

// @Summary Complaints of one user
// @Tags complaints
// @Produce json
// @Param id path string true "User reference"
// @Success 200 {object} map[string]any
// @Router /api/users/{id}/complaints [get]
func (h *Handler) UserComplaints(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("id"))
	if uid == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "user id is required", nil)
		return
	}
	h.listComplaints(c, db.ComplaintFilter{
		UserID: uid,
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	})
}

func (h *Handler) listComplaints(c *gin.Context, f db.ComplaintFilter) {
	items, err := h.Store.ListComplaints(c.Request.Context(), f)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list complaints", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toViews(items), "limit": f.Limit, "offset": f.Offset})
}

// @Summary Complaint details
// @Tags complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} ComplaintView
// @Failure 404 {object} map[string]any
// @Router /api/complaints/{id} [get]
func (h *Handler) ComplaintDetails(c *gin.Context) {
	item, err := h.Store.GetComplaint(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeStoreError(c, err, "Complaint")
		return
	}
	c.JSON(http.StatusOK, toView(item))
}

// @Summary Upvote a complaint
// @Tags complaints
// @Produce json
// @Param id path string true "Complaint ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/complaints/{id}/upvote [post]
func (h *Handler) Upvote(c *gin.Context) {
	id := c.Param("id")
	n, err := h.Store.IncrementUpvote(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err, "Complaint")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "upvotes": n})
}

// @Summary Preview the formal rewrite of a complaint
// @Tags complaints
// @Accept json
// @Produce json
// @Param body body RewriteRequest true "text"
// @Success 200 {object} map[string]any
// @Router /api/rewrite [post]
func (h *Handler) Rewrite(c *gin.Context) {
	var req RewriteRequest
	if !h.bind(c, &req) {
		return
	}
	if h.tooLong(c, req.Text) {
		return
	}
	out, used := h.Submissions.Rewrite(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, gin.H{"original": strings.TrimSpace(req.Text), "rewritten": out, "ai_used": used})
}
