package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/wallets/internal/httputil"
)

// DIDHandler serves did:web documents of hosted wallets.
type DIDHandler struct {
	documents DocumentProvider
	logger    *slog.Logger
}

// NewDIDHandler creates a new DIDHandler
func NewDIDHandler(documents DocumentProvider, logger *slog.Logger) *DIDHandler {
	return &DIDHandler{documents: documents, logger: logger}
}

// GetDocument handles GET /:walletId/did.json.
func (h *DIDHandler) GetDocument(c *gin.Context) {
	doc, err := h.documents.CreateDidDocument(c.Request.Context(), c.Param("walletId"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Content-Type", "application/did+json")
	c.JSON(http.StatusOK, doc)
}
