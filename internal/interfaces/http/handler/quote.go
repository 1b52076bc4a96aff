package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	quoteapp "github.com/leadcrm/backend/internal/application/quote"
	"github.com/leadcrm/backend/internal/interfaces/http/dto"
	"github.com/leadcrm/backend/internal/interfaces/http/middleware"
)

// QuoteHandler handles quote-related API endpoints
type QuoteHandler struct {
	BaseHandler
	quoteService  *quoteapp.QuoteService
	renderService *quoteapp.RenderService
	maxAttachment int64
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *quoteapp.QuoteService, renderService *quoteapp.RenderService, maxAttachment int64) *QuoteHandler {
	return &QuoteHandler{
		quoteService:  quoteService,
		renderService: renderService,
		maxAttachment: maxAttachment,
	}
}

// Create handles POST /quotes
func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteapp.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.quoteService.Create(c.Request.Context(), req, actorRef(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Generate handles POST /quotes/generate
func (h *QuoteHandler) Generate(c *gin.Context) {
	var req quoteapp.GenerateFromProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.quoteService.GenerateFromProject(c.Request.Context(), req, actorRef(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List handles GET /quotes
func (h *QuoteHandler) List(c *gin.Context) {
	var req quoteapp.ListQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.quoteService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get handles GET /quotes/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	resp, err := h.quoteService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Update handles PUT /quotes/:id
func (h *QuoteHandler) Update(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req quoteapp.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.quoteService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetStatus handles PUT /quotes/:id/status
func (h *QuoteHandler) SetStatus(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req quoteapp.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.quoteService.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Duplicate handles POST /quotes/:id/duplicate
func (h *QuoteHandler) Duplicate(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	resp, err := h.quoteService.Duplicate(c.Request.Context(), id, actorRef(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Delete handles DELETE /quotes/:id
func (h *QuoteHandler) Delete(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	if err := h.quoteService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ExpireOverdue handles POST /quotes/expire-overdue. Maintenance endpoint
// that flips sent quotes past their validity window; the server also runs
// this on a timer.
func (h *QuoteHandler) ExpireOverdue(c *gin.Context) {
	count, err := h.quoteService.ExpireOverdue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"expired": count})
}

// Render handles POST /quotes/:id/render
func (h *QuoteHandler) Render(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	resp, err := h.renderService.Render(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Attach handles POST /quotes/:id/attachment. The artifact may arrive as a
// multipart "file" field or as the raw request body.
func (h *QuoteHandler) Attach(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	data, err := h.readAttachment(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.renderService.AttachExternal(c.Request.Context(), id, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Download handles GET /quotes/:id/download
func (h *QuoteHandler) Download(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	reader, filename, err := h.renderService.Download(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", "inline; filename=\""+filename+"\"")

	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.InternalError(c, "Failed to serve artifact")
		return
	}
}

// ListDocuments handles GET /quotes/:id/documents
func (h *QuoteHandler) ListDocuments(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	docs, err := h.quoteService.ListDocuments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, docs)
}

// RegisterRoutes registers all quote routes
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	{
		quotes.POST("", h.Create)
		quotes.POST("/generate", h.Generate)
		quotes.POST("/expire-overdue", h.ExpireOverdue)
		quotes.GET("", h.List)
		quotes.GET("/:id", h.Get)
		quotes.PUT("/:id", h.Update)
		quotes.PUT("/:id/status", h.SetStatus)
		quotes.POST("/:id/duplicate", h.Duplicate)
		quotes.DELETE("/:id", h.Delete)
		quotes.POST("/:id/render", h.Render)
		quotes.POST("/:id/attachment", middleware.BodyLimit(h.maxAttachment), h.Attach)
		quotes.GET("/:id/download", h.Download)
		quotes.GET("/:id/documents", h.ListDocuments)
	}
}

// bindID parses the :id path parameter, responding with 400 on failure
func (h *QuoteHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid quote ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID")
		return uuid.Nil, false
	}
	return id, true
}

// readAttachment pulls the uploaded bytes from a multipart form or raw body
func (h *QuoteHandler) readAttachment(c *gin.Context) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, h.maxAttachment+1))
	}
	return io.ReadAll(c.Request.Body)
}

// actorRef returns a pointer to the acting user ID, or nil when absent
func actorRef(c *gin.Context) *uuid.UUID {
	if id := getActorID(c); id != uuid.Nil {
		return &id
	}
	return nil
}
