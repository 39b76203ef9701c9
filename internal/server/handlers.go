// internal/server/handlers.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/speedsheet/speedsheet/internal/pipeline"
	"github.com/speedsheet/speedsheet/internal/store"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Processor runs a capture batch
type Processor interface {
	Process(ctx context.Context, urls []string) (*pipeline.BatchResult, error)
}

// ReportWriter turns captured shots into a persisted workbook
type ReportWriter interface {
	Assemble(shots []pipeline.Shot) (string, error)
}

// StatusStore persists service status checks
type StatusStore interface {
	CreateStatusCheck(clientName string) (*store.StatusCheck, error)
	ListStatusChecks() ([]store.StatusCheck, error)
}

// Handler holds the dependencies behind the /api routes
type Handler struct {
	Processor  Processor
	Reports    ReportWriter
	Status     StatusStore
	ReportsDir string
}

// register mounts all routes on the given group
func (h *Handler) register(api *gin.RouterGroup) {
	api.GET("/", h.hello)
	api.GET("/status", h.listStatus)
	api.POST("/status", h.createStatus)
	api.POST("/process-speedtest", h.processSpeedtest)
	api.GET("/download/:file_name", h.download)
}

// detail mirrors the error body shape clients already expect:
// {"detail": "..."}
func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"detail": msg})
}

func (h *Handler) hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
}

type statusCheckRequest struct {
	ClientName string `json:"client_name" binding:"required"`
}

func (h *Handler) createStatus(c *gin.Context) {
	var req statusCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "client_name is required")
		return
	}

	check, err := h.Status.CreateStatusCheck(req.ClientName)
	if err != nil {
		detail(c, http.StatusInternalServerError, "Failed to store status check")
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *Handler) listStatus(c *gin.Context) {
	checks, err := h.Status.ListStatusChecks()
	if err != nil {
		detail(c, http.StatusInternalServerError, "Failed to list status checks")
		return
	}
	if checks == nil {
		checks = []store.StatusCheck{}
	}
	c.JSON(http.StatusOK, checks)
}

type processRequest struct {
	URLs []string `json:"urls"`
}

type processResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	FilePath string   `json:"file_path"`
	Errors   []string `json:"errors"`
}

func (h *Handler) processSpeedtest(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, "No URLs provided")
		return
	}

	// The batch must outlive the HTTP connection: captures run for minutes,
	// and a client disconnect mid-batch would otherwise discard every
	// completed screenshot. Request values are kept, cancellation is not.
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.Processor.Process(ctx, req.URLs)
	if err != nil {
		var be *pipeline.BatchError
		if errors.As(err, &be) {
			status := http.StatusInternalServerError
			if be.Validation() {
				status = http.StatusBadRequest
			}
			detail(c, status, be.Error())
			return
		}
		detail(c, http.StatusInternalServerError, err.Error())
		return
	}

	path, err := h.Reports.Assemble(result.Shots)
	if err != nil {
		detail(c, http.StatusInternalServerError, fmt.Sprintf("Error creating Excel file: %v", err))
		return
	}

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	c.JSON(http.StatusOK, processResponse{
		Success:  true,
		Message:  fmt.Sprintf("Successfully processed %d URLs", len(result.Shots)),
		FilePath: path,
		Errors:   errs,
	})
}

func (h *Handler) download(c *gin.Context) {
	name := c.Param("file_name")

	// Reject anything that is not a plain file name so requests cannot walk
	// out of the reports directory.
	if name == "" || name != filepath.Base(name) {
		detail(c, http.StatusNotFound, "File not found")
		return
	}

	path := filepath.Join(h.ReportsDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		detail(c, http.StatusNotFound, "File not found")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Content-Type", xlsxMIME)
	c.File(path)
}
