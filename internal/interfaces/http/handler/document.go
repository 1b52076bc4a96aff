package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	quoteapp "github.com/leadcrm/backend/internal/application/quote"
	"github.com/leadcrm/backend/internal/infrastructure/storage"
	"github.com/leadcrm/backend/internal/interfaces/http/dto"
)

// DocumentHandler handles document catalog API endpoints
type DocumentHandler struct {
	BaseHandler
	quoteService *quoteapp.QuoteService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(quoteService *quoteapp.QuoteService) *DocumentHandler {
	return &DocumentHandler{quoteService: quoteService}
}

// Get handles GET /documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	doc, err := h.quoteService.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, doc)
}

// Content handles GET /documents/:id/content. URL locators redirect to the
// backing store; inline locators are decoded and served directly.
func (h *DocumentHandler) Content(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	doc, err := h.quoteService.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if strings.HasPrefix(doc.Locator, "data:") {
		data, err := storage.DecodeDataURI(doc.Locator)
		if err != nil {
			h.InternalError(c, "Stored artifact is corrupt")
			return
		}
		c.Data(http.StatusOK, "application/pdf", data)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, doc.Locator)
}

// RegisterRoutes registers all document routes
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.GET("/:id", h.Get)
		docs.GET("/:id/content", h.Content)
	}
}

func (h *DocumentHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid document ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid document ID")
		return uuid.Nil, false
	}
	return id, true
}
