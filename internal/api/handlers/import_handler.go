package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/manoj99-eng/krisco-backend/internal/importer"
	"github.com/manoj99-eng/krisco-backend/internal/service"
)

type ImportHandler struct {
	service *service.ImportService
}

func NewImportHandler(service *service.ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

// ImportStock ingests an uploaded stock report.
func (h *ImportHandler) ImportStock(c *gin.Context) {
	h.importFile(c, "stock", h.service.ImportStock)
}

// ImportMovement ingests an uploaded movement report.
func (h *ImportHandler) ImportMovement(c *gin.Context) {
	h.importFile(c, "movement", h.service.ImportMovement)
}

// ImportItems ingests an uploaded item master CSV.
func (h *ImportHandler) ImportItems(c *gin.Context) {
	h.importFile(c, "items", h.service.ImportItems)
}

func (h *ImportHandler) importFile(c *gin.Context, kind string, load func(context.Context, io.Reader) (importer.Result, error)) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer f.Close()

	result, err := load(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": kind + " import failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file":    fileHeader.Filename,
		"parsed":  result.Parsed,
		"skipped": result.Skipped,
	})
}
