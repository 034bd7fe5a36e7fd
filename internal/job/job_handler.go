package job

import (
	"net/http"

	"github.com/collablink/collablink/common"
	"github.com/collablink/collablink/internal/dto"
	"github.com/collablink/collablink/middleware"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(s JobServiceInterface) *JobHandler {
	return &JobHandler{service: s}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// Submit accepts a document generation request and answers 202 with the
// job id; the caller polls for the outcome.
func (h *JobHandler) Submit(c *gin.Context) {
	var req dto.DocumentRequestDTO
	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	status, err := h.service.SubmitDocumentJob(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusAccepted, status)
}

// Get returns the polling view of a job.
func (h *JobHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "job id is required"})
		return
	}

	status, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// Artifact streams the generated file once the job completed.
func (h *JobHandler) Artifact(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, common.APIError{Message: "job id is required"})
		return
	}

	doc, err := h.service.GetArtifact(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Content-Type", contentTypeFor(doc.Format))
	c.File(doc.FilePath)
}

func contentTypeFor(format string) string {
	switch format {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	case "html":
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
