package handlers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"xoso/internal/models"
	"xoso/internal/services"
	"xoso/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/gorilla/websocket"
)

const msgLoadFailed = "Không thể tải dữ liệu đã lưu."

// HTTPHandler holds the dependencies for the HTTP handlers.
type HTTPHandler struct {
	service   *services.LotteryService
	templates *template.Template
	hub       *ws.Hub
	upgrader  websocket.Upgrader
}

// NewHTTPHandler creates a new HTTPHandler. allowedOrigins limits which pages
// may open the board websocket; "*" allows any.
func NewHTTPHandler(service *services.LotteryService, templates *template.Template, hub *ws.Hub, allowedOrigins []string) *HTTPHandler {
	return &HTTPHandler{
		service:   service,
		templates: templates,
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/", h.ShowIndex)
	router.POST("/entries/:tier", h.SubmitEntry)
	router.GET("/board", h.ShowBoard)
	router.GET("/board/partial", h.GetBoardPartial)
	router.GET("/export-results-csv", h.ExportResultsCSV)
	router.GET("/ws", h.HandleWebSocket)

	api := router.Group("/api")
	{
		api.GET("/results", h.GetResults)
		api.POST("/results", h.SaveResults)
	}
}

// renderPage is a helper to perform a two-step template rendering.
// It first executes the content template into a buffer, then executes the main
// layout template, passing the rendered content as a variable.
func (h *HTTPHandler) renderPage(c *gin.Context, pageData gin.H, contentTmpl string) {
	buf := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(buf, contentTmpl, pageData); err != nil {
		logger.Errorf("Error executing content template %s: %v", contentTmpl, err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}

	pageData["PageContent"] = template.HTML(buf.String())

	page := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(page, "layout.html", pageData); err != nil {
		logger.Errorf("Error executing layout template: %v", err)
		c.String(http.StatusInternalServerError, "Template rendering error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.Bytes())
}

// renderPartial executes a single template without the layout, for HTMX swaps.
func (h *HTTPHandler) renderPartial(c *gin.Context, data gin.H, tmpl string) {
	buf := new(bytes.Buffer)
	if err := h.templates.ExecuteTemplate(buf, tmpl, data); err != nil {
		logger.Errorf("Error executing template %s: %v", tmpl, err)
		c.String(http.StatusInternalServerError, "Template error")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// appData assembles what app.html needs.
func (h *HTTPHandler) appData(results models.Results, inputs map[models.Tier]string, message, toast string) gin.H {
	if inputs == nil {
		inputs = map[models.Tier]string{}
	}
	return gin.H{
		"title":   "Xổ số Tết",
		"Board":   h.service.Board(results),
		"Inputs":  inputs,
		"Message": message,
		"Toast":   toast,
	}
}

// ShowIndex renders the entry form next to the results board.
func (h *HTTPHandler) ShowIndex(c *gin.Context) {
	results, err := h.service.Results()
	message := ""
	if err != nil {
		logger.Errorf("Failed to load results: %v", err)
		results = models.EmptyResults()
		message = msgLoadFailed
	}
	h.renderPage(c, h.appData(results, nil, message, ""), "index.html")
}

// SubmitEntry handles one number typed into a tier's form. HTMX requests get
// the app fragment back; plain form posts get the whole page.
func (h *HTTPHandler) SubmitEntry(c *gin.Context) {
	inputs := map[models.Tier]string{}
	var (
		results models.Results
		message string
		toast   string
	)

	tier, err := models.ParseTier(c.Param("tier"))
	if err != nil {
		c.String(http.StatusNotFound, "Nhóm giải không hợp lệ.")
		return
	}

	value := c.PostForm("value")
	results, message, err = h.service.Submit(tier, value)
	if err != nil {
		var entryErr *services.EntryError
		if !errors.As(err, &entryErr) {
			logger.Errorf("Unexpected submit error: %v", err)
			entryErr = &services.EntryError{Message: err.Error()}
		}
		message = entryErr.Message
		if entryErr.Toast {
			toast = entryErr.Message
		}
		inputs[tier] = value
	}

	data := h.appData(results, inputs, message, toast)
	if c.GetHeader("HX-Request") == "true" {
		h.renderPartial(c, data, "app.html")
		return
	}
	h.renderPage(c, data, "index.html")
}

// ShowBoard renders the display-only board for the projector screen.
func (h *HTTPHandler) ShowBoard(c *gin.Context) {
	results, err := h.service.Results()
	if err != nil {
		logger.Errorf("Failed to load results: %v", err)
		results = models.EmptyResults()
	}
	data := h.appData(results, nil, "", "")
	data["title"] = "Bảng kết quả quay số"
	h.renderPage(c, data, "board_page.html")
}

// GetBoardPartial returns the board fragment used by the live board page.
func (h *HTTPHandler) GetBoardPartial(c *gin.Context) {
	results, err := h.service.Results()
	if err != nil {
		logger.Errorf("Failed to load results: %v", err)
		c.String(http.StatusInternalServerError, msgLoadFailed)
		return
	}
	h.renderPartial(c, h.appData(results, nil, "", ""), "board.html")
}

// ExportResultsCSV handles the request to download the results as a CSV file.
func (h *HTTPHandler) ExportResultsCSV(c *gin.Context) {
	results, err := h.service.Results()
	if err != nil {
		logger.Errorf("Failed to load results: %v", err)
		c.String(http.StatusInternalServerError, msgLoadFailed)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment;filename=ket_qua_xo_so.csv")

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)
	if err := w.Write([]string{"Giải", "STT", "Số"}); err != nil {
		logger.Errorf("Error writing CSV header: %v", err)
		return
	}

	layout := h.service.Layout()
	for _, t := range models.Order {
		for i, n := range results.Get(t) {
			if err := w.Write([]string{layout[t].Label, strconv.Itoa(i + 1), n}); err != nil {
				logger.Errorf("Error writing CSV row: %v", err)
				return
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		logger.Errorf("Error flushing CSV writer: %v", err)
	}
}
