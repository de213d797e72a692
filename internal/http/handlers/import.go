package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/campusvoice/backend/internal/service"
)

const maxImportRows = 5000

// @Summary Import complaints from CSV
// @Description Columns: text (required), category, user_id, anonymous. Every row runs through the full submission pipeline.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "complaints.csv"
// @Success 200 {object} service.ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/admin/import [post]
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file required", nil)
		return
	}
	if !validateExt(file.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .csv", nil)
		return
	}

	rows, rowErrs, err := h.parseComplaintsCSV(file)
	if err != nil {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", err.Error(), rowErrs)
		return
	}
	if len(rows) == 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "No importable rows", rowErrs)
		return
	}

	summary := h.Submissions.Import(c.Request.Context(), rows, rowErrs)
	c.JSON(http.StatusOK, summary)
}

// parseComplaintsCSV returns the usable rows and one error per rejected
// row. The error result is set only when the file as a whole is unusable.
func (h *Handler) parseComplaintsCSV(file *multipart.FileHeader) ([]service.ImportRow, []service.RowError, error) {
	f, err := file.Open()
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return h.readComplaintsCSV(f)
}

func (h *Handler) readComplaintsCSV(r io.Reader) ([]service.ImportRow, []service.RowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	headers, err := reader.Read()
	if err != nil {
		return nil, nil, errors.New("failed to read header")
	}
	index := headerIndex(headers)
	if !hasAny(index, textColumns...) {
		return nil, nil, errors.New("missing text column")
	}

	limit := h.MaxComplaintLength
	if limit <= 0 {
		limit = defaultMaxComplaintLength
	}

	rowErrs := []service.RowError{}
	var out []service.ImportRow
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return out, rowErrs, err
			}
			rowErrs = append(rowErrs, service.RowError{Row: pe.StartLine, Message: pe.Err.Error()})
			continue
		}
		line, _ := reader.FieldPos(0)
		if len(out) >= maxImportRows {
			return out, rowErrs, fmt.Errorf("too many rows, limit is %d", maxImportRows)
		}

		text := getFieldAny(rec, index, textColumns...)
		switch {
		case text == "":
			rowErrs = append(rowErrs, service.RowError{Row: line, Message: "missing complaint text"})
			continue
		case utf8.RuneCountInString(text) > limit:
			rowErrs = append(rowErrs, service.RowError{Row: line, Message: fmt.Sprintf("complaint longer than %d characters", limit)})
			continue
		}

		req := service.SubmitRequest{
			Text:      text,
			Category:  getFieldAny(rec, index, "category", "type"),
			Anonymous: parseBool(getFieldAny(rec, index, "anonymous", "is_anonymous")),
		}
		if uid := getFieldAny(rec, index, "user_id", "user", "student_id"); uid != "" {
			req.UserID = &uid
		}
		out = append(out, service.ImportRow{Line: line, Request: req})
	}
	return out, rowErrs, nil
}

var textColumns = []string{"text", "complaint", "complaint_text", "description", "message"}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		idx[normalizeHeader(h)] = i
	}
	return idx
}

func hasAny(idx map[string]int, names ...string) bool {
	for _, name := range names {
		if _, ok := idx[normalizeHeader(name)]; ok {
			return true
		}
	}
	return false
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func getFieldAny(rec []string, idx map[string]int, names ...string) string {
	for _, name := range names {
		if v := getField(rec, idx, normalizeHeader(name)); v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = strings.ReplaceAll(h, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(h))
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func validateExt(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".csv"
}
