package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/http/middleware"
	"github.com/campusvoice/backend/internal/models"
	"github.com/campusvoice/backend/internal/service"
	"github.com/campusvoice/backend/internal/utils"
)

const defaultMaxComplaintLength = 2000

type Handler struct {
	Store       db.Store
	Submissions *service.SubmissionService
	Scorer      *service.SeverityScorer
	Dashboard   *service.Dashboard
	Validator   *validator.Validate
	Logger      zerolog.Logger

	MaxComplaintLength int
}

// ComplaintView is the public shape of a complaint. The owner reference is
// always masked.
type ComplaintView struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	OriginalText  string          `json:"original_text"`
	Category      string          `json:"category"`
	Severity      models.Severity `json:"severity"`
	SeverityLayer string          `json:"severity_layer"`
	ClusterID     *string         `json:"cluster_id"`
	Upvotes       int             `json:"upvotes"`
	SubmittedBy   string          `json:"submitted_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toView(c models.Complaint) ComplaintView {
	owner := ""
	if c.UserID != nil && !c.Anonymous {
		owner = *c.UserID
	}
	return ComplaintView{
		ID:            c.ID,
		Text:          c.RewrittenText,
		OriginalText:  c.RawText,
		Category:      c.Category,
		Severity:      c.Severity,
		SeverityLayer: c.SeverityLayer,
		ClusterID:     c.ClusterID,
		Upvotes:       c.Upvotes,
		SubmittedBy:   utils.AnonymizeUserID(owner),
		CreatedAt:     c.CreatedAt,
	}
}

func toViews(items []models.Complaint) []ComplaintView {
	out := make([]ComplaintView, 0, len(items))
	for _, c := range items {
		out = append(out, toView(c))
	}
	return out
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	cats, err := h.Store.ListCategories(ctx)
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "categories": len(cats)})
}

// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/categories [get]
func (h *Handler) CategoriesList(c *gin.Context) {
	items, err := h.Store.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list categories", err.Error())
		return
	}
	if items == nil {
		items = []models.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", validationDetails(err))
		return false
	}
	return true
}

func (h *Handler) tooLong(c *gin.Context, text string) bool {
	limit := h.MaxComplaintLength
	if limit <= 0 {
		limit = defaultMaxComplaintLength
	}
	if utf8.RuneCountInString(text) > limit {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Complaint is too long", gin.H{"max_length": limit})
		return true
	}
	return false
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":       code,
			"message":    message,
			"details":    details,
			"request_id": middleware.RequestIDFrom(c),
		},
	})
}

func writeStoreError(c *gin.Context, err error, what string) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
		return
	}
	writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load "+strings.ToLower(what), err.Error())
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
