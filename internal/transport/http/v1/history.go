package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ListHistory returns a page of processed records.
// GET /v1/history?page=1&page_size=20&search=...
func (h *Handler) ListHistory(c echo.Context) error {
	page := 1
	if p := c.QueryParam("page"); p != "" {
		if val, err := strconv.Atoi(p); err == nil {
			page = val
		}
	}
	pageSize := 20
	if ps := c.QueryParam("page_size"); ps != "" {
		if val, err := strconv.Atoi(ps); err == nil {
			pageSize = val
		}
	}
	search := c.QueryParam("search")

	result, err := h.service.ListHistory(c.Request().Context(), page, pageSize, search)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetRecord returns one stored record in full.
// GET /v1/history/:record_id
func (h *Handler) GetRecord(c echo.Context) error {
	rec, err := h.service.GetRecord(c.Request().Context(), c.Param("record_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// DeleteRecord removes one stored record.
// DELETE /v1/history/:record_id
func (h *Handler) DeleteRecord(c echo.Context) error {
	if err := h.service.DeleteRecord(c.Request().Context(), c.Param("record_id")); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// GenerateStudySet builds flashcards and quiz questions for a stored record.
// POST /v1/history/:record_id/study
func (h *Handler) GenerateStudySet(c echo.Context) error {
	result, err := h.service.GenerateStudySet(c.Request().Context(), c.Param("record_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
