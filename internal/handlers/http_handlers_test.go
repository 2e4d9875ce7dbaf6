package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"xoso/internal/models"
	"xoso/internal/services"
	"xoso/internal/storage"
	"xoso/internal/web"
	"xoso/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router  *gin.Engine
	handler *HTTPHandler
	store   *storage.FileStore
	hub     *ws.Hub
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	layout, err := models.NewLayout(models.VariantStandard)
	require.NoError(t, err)
	store := storage.NewFileStore(t.TempDir())
	service := services.NewLotteryService(store, layout, true)
	templates, err := web.Templates()
	require.NoError(t, err)
	hub := ws.NewHub()

	h := NewHTTPHandler(service, templates, hub, []string{"*"})
	router := gin.New()
	h.RegisterRoutes(router)
	return &testEnv{router: router, handler: h, store: store, hub: hub}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) submit(tier, value string) *httptest.ResponseRecorder {
	form := url.Values{"value": {value}}
	req := httptest.NewRequest(http.MethodPost, "/entries/"+tier, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return e.do(req)
}

func TestResultsAPI(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("GET creates the default document", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/results", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"consolation":[],"third":[],"second":[],"first":[],"special":[]}`, rec.Body.String())
		assert.FileExists(t, env.store.Path())
	})

	t.Run("POST overwrites without validation", func(t *testing.T) {
		body := `{"consolation":["528","abc"],"third":[],"second":[],"first":[],"special":["9999"]}`
		req := httptest.NewRequest(http.MethodPost, "/api/results", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

		stored, err := env.store.Read()
		require.NoError(t, err)
		assert.Equal(t, []string{"528", "abc"}, stored.Consolation)
		assert.Equal(t, []string{"9999"}, stored.Special)
	})

	t.Run("POST rejects malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/results", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Error)
	})
}

func TestSubmitEntry(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("accepted number is saved and shown", func(t *testing.T) {
		rec := env.submit("consolation", "528")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Đã lưu 528 cho Giải khuyến khích.")
		assert.Contains(t, body, "<li>528</li>")
		assert.NotContains(t, body, "<!DOCTYPE html>", "HTMX requests get a fragment")
		assert.NotContains(t, body, "toast-error")

		stored, err := env.store.Read()
		require.NoError(t, err)
		assert.Equal(t, []string{"528"}, stored.Consolation)
	})

	t.Run("out of order tier shows message and toast", func(t *testing.T) {
		rec := env.submit("third", "1528")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Vui lòng nhập đúng thứ tự các nhóm giải.")
		assert.Contains(t, body, "toast-error")
		assert.Contains(t, body, `value="1528"`, "rejected value stays in the input")
	})

	t.Run("invalid consolation number shows inline message only", func(t *testing.T) {
		rec := env.submit("consolation", "12")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Giải khuyến khích phải là 3 chữ số (000-999).")
		assert.NotContains(t, body, "toast-error")
	})

	t.Run("unknown tier", func(t *testing.T) {
		rec := env.submit("jackpot", "1234")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("plain form post gets the full page", func(t *testing.T) {
		form := url.Values{"value": {"529"}}
		req := httptest.NewRequest(http.MethodPost, "/entries/consolation", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
		assert.Contains(t, rec.Body.String(), "Đã lưu 529 cho Giải khuyến khích.")
	})
}

func TestPagesAndExport(t *testing.T) {
	env := setupTestEnv(t)
	require.Equal(t, http.StatusOK, env.submit("consolation", "528").Code)
	require.Equal(t, http.StatusOK, env.submit("consolation", "101").Code)

	t.Run("index", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "<!DOCTYPE html>")
		assert.Contains(t, body, "Xổ Số Tết")
		assert.Contains(t, body, "Giải khuyến khích (6/45)")
		assert.Contains(t, body, "Bảng kết quả quay số")
	})

	t.Run("board partial only shows open tiers", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/board/partial", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "prize-consolation")
		assert.Contains(t, body, "2/15")
		assert.NotContains(t, body, "prize-third")
	})

	t.Run("board page", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/board", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `data-ws="/ws"`)
	})

	t.Run("csv export", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/export-results-csv", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, "\xef\xbb\xbf"), "missing BOM")
		assert.Contains(t, body, "Giải,STT,Số\n")
		assert.Contains(t, body, "Giải khuyến khích,1,528\n")
		assert.Contains(t, body, "Giải khuyến khích,2,101\n")
	})
}

func TestWebSocketBroadcast(t *testing.T) {
	env := setupTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	readMessage := func() map[string]json.RawMessage {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	first := readMessage()
	assert.JSONEq(t, `"results_updated"`, string(first["type"]))

	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	env.handler.BroadcastResults(models.EmptyResults().With(models.TierConsolation, "528"))
	msg := readMessage()
	assert.JSONEq(t, `"results_updated"`, string(msg["type"]))

	var results models.Results
	require.NoError(t, json.Unmarshal(msg["data"], &results))
	assert.Equal(t, []string{"528"}, results.Consolation)
}
