package handlers

import (
	"net/http"
	"slices"

	"xoso/internal/models"
	"xoso/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SaveResponse struct {
	OK bool `json:"ok"`
}

// GetResults returns the stored document, creating an empty one on first
// access.
func (h *HTTPHandler) GetResults(c *gin.Context) {
	results, err := h.service.Results()
	if err != nil {
		logger.Errorf("Failed to load results: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgLoadFailed})
		return
	}
	c.JSON(http.StatusOK, results)
}

// SaveResults overwrites the stored document with the request body. The body
// is stored as sent; entry rules only apply to the form.
func (h *HTTPHandler) SaveResults(c *gin.Context) {
	var results models.Results
	if err := c.ShouldBindJSON(&results); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.service.Replace(results); err != nil {
		logger.Errorf("Failed to save results: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Không thể lưu dữ liệu vào file."})
		return
	}
	c.JSON(http.StatusOK, SaveResponse{OK: true})
}

// HandleWebSocket keeps a board screen connected so it can be told when the
// results change. The current document is sent straight away.
func (h *HTTPHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warningf("ws: upgrade failed: %v", err)
		return
	}
	h.hub.Add(conn)
	defer h.hub.Remove(conn)

	if results, err := h.service.Results(); err == nil {
		if err := h.hub.Send(conn, ws.Message{Type: ws.TypeResultsUpdated, Data: results}); err != nil {
			return
		}
	}

	// Board screens never send anything meaningful; read until they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// BroadcastResults tells every board screen about a new document.
func (h *HTTPHandler) BroadcastResults(results models.Results) {
	h.hub.Broadcast(ws.Message{
		Type: ws.TypeResultsUpdated,
		Data: results.Normalize(h.service.Layout()),
	})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin) || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
