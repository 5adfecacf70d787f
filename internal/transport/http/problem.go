package transporthttp

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ReviewDesk/internal/domain"
)

// Problem is an RFC 7807 error body.
type Problem struct {
	Type   string         `json:"type,omitempty"`
	Title  string         `json:"title,omitempty"`
	Status int            `json:"status,omitempty"`
	Detail string         `json:"detail,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

const problemContentType = "application/problem+json"

// WriteProblem aborts the request with a problem body.
func WriteProblem(c *gin.Context, status int, title, detail string) {
	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(status, Problem{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var (
		nf *domain.NotFoundError
		pe *domain.PersistenceError
		de *domain.DispatchError
	)
	switch {
	case errors.As(err, &nf):
		WriteProblem(c, http.StatusNotFound, "not found", nf.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		WriteProblem(c, http.StatusBadRequest, "invalid status", err.Error())
	case errors.As(err, &pe):
		WriteProblem(c, http.StatusBadGateway, "backend unavailable", pe.Error())
	case errors.As(err, &de):
		WriteProblem(c, http.StatusBadGateway, "notification failed", de.Error())
	default:
		WriteProblem(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
