package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"audiohub/pkg/models"
)

// Handler is the thin dispatch layer: it validates the request shape,
// then hands off to the service and maps typed errors onto statuses.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes wires the public read routes and the admin-guarded
// delete routes.
func (h *Handler) RegisterRoutes(r *gin.Engine, admin gin.HandlerFunc) {
	r.GET("/authors/:asin", h.getAuthor)
	r.GET("/books/:asin", h.getBook)
	r.GET("/books/:asin/chapters", h.getChapters)

	r.DELETE("/authors/:asin", admin, h.deleteAuthor)
	r.DELETE("/books/:asin", admin, h.deleteBook)
	r.DELETE("/books/:asin/chapters", admin, h.deleteChapters)
}

// parseRequest rejects malformed ids and unknown regions before
// anything touches the store or the sources.
func parseRequest(c *gin.Context) (string, Options, bool) {
	asin := c.Param("asin")
	if !models.ValidASIN(asin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad ASIN"})
		return "", Options{}, false
	}

	region := c.Query("region")
	if region == "" {
		region = models.RegionDefault
	}
	if !models.RegionSupported(region) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported region"})
		return "", Options{}, false
	}

	return asin, Options{
		ForceUpdate: c.Query("update") == "1",
		Region:      region,
	}, true
}

func (h *Handler) getBook(c *gin.Context) {
	asin, opts, ok := parseRequest(c)
	if !ok {
		return
	}
	book, err := h.Svc.GetBook(c.Request.Context(), asin, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) getAuthor(c *gin.Context) {
	asin, opts, ok := parseRequest(c)
	if !ok {
		return
	}
	author, err := h.Svc.GetAuthor(c.Request.Context(), asin, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (h *Handler) getChapters(c *gin.Context) {
	asin, opts, ok := parseRequest(c)
	if !ok {
		return
	}
	chapter, err := h.Svc.GetChapters(c.Request.Context(), asin, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (h *Handler) deleteBook(c *gin.Context) {
	asin := c.Param("asin")
	if !models.ValidASIN(asin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad ASIN"})
		return
	}
	book, err := h.Svc.DeleteBook(c.Request.Context(), asin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *Handler) deleteAuthor(c *gin.Context) {
	asin := c.Param("asin")
	if !models.ValidASIN(asin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad ASIN"})
		return
	}
	author, err := h.Svc.DeleteAuthor(c.Request.Context(), asin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, author)
}

func (h *Handler) deleteChapters(c *gin.Context) {
	asin := c.Param("asin")
	if !models.ValidASIN(asin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad ASIN"})
		return
	}
	chapter, err := h.Svc.DeleteChapters(c.Request.Context(), asin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func respondError(c *gin.Context, err error) {
	var (
		nf *models.NotFoundError
		ru *models.RegionUnsupportedError
		te *models.TransportError
		re *models.ReconciliationError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ru):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &te), errors.As(err, &re):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
