package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/logging"
	"github.com/sirupsen/logrus"
)

// statusClientClosedRequest is the nginx convention for a caller that went away
const statusClientClosedRequest = 499

// Resolver is the use case the handlers expose
type Resolver interface {
	Resolve(ctx context.Context, raw, regionHint string) (*domain.Resolution, error)
	SourceNames() []string
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver Resolver
	logger   *logrus.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver Resolver, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{resolver: resolver, logger: logger}
}

// ResolveRequest is the body of POST /api/v1/products/resolve
type ResolveRequest struct {
	Code     string `json:"code"`
	Currency string `json:"currency"`
}

// ErrorResponse is returned for every non-product error
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	sources := []string{}
	if h.resolver != nil {
		sources = h.resolver.SourceNames()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pantrylens-backend",
		"version": "1.0.0",
		"sources": sources,
	})
}

// GetProduct handles GET /api/v1/products/:code?currency=USD
func (h *Handler) GetProduct(c *gin.Context) {
	h.resolve(c, c.Param("code"), c.Query("currency"))
}

// ResolveProduct handles POST /api/v1/products/resolve
func (h *Handler) ResolveProduct(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "request body must be JSON with a code field",
		})
		return
	}
	h.resolve(c, req.Code, req.Currency)
}

func (h *Handler) resolve(c *gin.Context, code, currency string) {
	if h.resolver == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{
			Error:   "NOT_CONFIGURED",
			Message: "product resolution is not configured",
		})
		return
	}

	ctx := c.Request.Context()
	res, err := h.resolver.Resolve(ctx, code, currency)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if !res.Found() {
		c.JSON(http.StatusNotFound, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "INVALID_FORMAT",
			Code:    string(verr.Code),
			Message: err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{
			Error:   "TIMEOUT",
			Message: "resolution did not finish in time",
		})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		logging.FromContext(c.Request.Context(), h.logger).WithField("error", err.Error()).Error("Resolution failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "INTERNAL",
			Message: "internal server error",
		})
	}
}
