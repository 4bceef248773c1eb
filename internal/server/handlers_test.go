package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/bizflow/ai-svc/internal/config"
	"github.com/bizflow/ai-svc/internal/models"
)

type stubCatalog struct {
	count   int
	err     error
	ownerID string
	batch   []models.ProductRecord
}

func (c *stubCatalog) Sync(_ context.Context, ownerID string, products []models.ProductRecord) (int, error) {
	c.ownerID = ownerID
	c.batch = products
	if c.err != nil {
		return 0, c.err
	}
	return c.count, nil
}

type stubParser struct {
	order      models.DraftOrder
	text       string
	err        error
	gotOwner   string
	gotMessage string
	gotMIME    string
	gotAudio   []byte
}

func (p *stubParser) Extract(_ context.Context, ownerID, message string) models.DraftOrder {
	p.gotOwner = ownerID
	p.gotMessage = message
	return p.order
}

func (p *stubParser) Transcribe(_ context.Context, audio []byte, mimeType string) (string, error) {
	p.gotAudio = audio
	p.gotMIME = mimeType
	if p.err != nil {
		return "", p.err
	}
	return p.text, nil
}

func newTestServer(catalog *stubCatalog, parser *stubParser) *Server {
	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 0}
	return NewServer(catalog, parser, cfg, zap.NewNop())
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleSyncProducts(t *testing.T) {
	catalog := &stubCatalog{count: 2}
	s := newTestServer(catalog, &stubParser{})

	w := doJSON(t, s, http.MethodPost, "/api/products/sync", `{
		"owner_id": "owner-1",
		"products": [
			{"id": "p1", "name": "Coca Cola", "price": 10000, "unit": "lon"},
			{"id": "p2", "name": "Mì Hảo Hảo", "price": 4500, "unit": "gói"}
		]
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.SyncResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" || resp.Count != 2 {
		t.Errorf("resp = %+v, want success/2", resp)
	}
	if catalog.ownerID != "owner-1" || len(catalog.batch) != 2 {
		t.Errorf("catalog got owner=%q batch=%d", catalog.ownerID, len(catalog.batch))
	}
}

func TestHandleSyncProducts_InvalidBody(t *testing.T) {
	s := newTestServer(&stubCatalog{}, &stubParser{})

	w := doJSON(t, s, http.MethodPost, "/api/products/sync", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleSyncProducts_MissingOwner(t *testing.T) {
	s := newTestServer(&stubCatalog{}, &stubParser{})

	w := doJSON(t, s, http.MethodPost, "/api/products/sync", `{"products": []}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "owner_id") {
		t.Errorf("body = %s, want owner_id mention", w.Body.String())
	}
}

func TestHandleSyncProducts_StoreFailure(t *testing.T) {
	s := newTestServer(&stubCatalog{err: errors.New("store unavailable")}, &stubParser{})

	w := doJSON(t, s, http.MethodPost, "/api/products/sync", `{"owner_id": "o", "products": []}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestHandleParseOrder(t *testing.T) {
	name := "Anh Minh"
	parser := &stubParser{order: models.DraftOrder{
		CustomerName:    &name,
		Items:           []models.OrderItem{{ProductName: "Coca Cola", Quantity: 2}},
		OriginalMessage: "anh Minh lấy 2 lon coca",
	}}
	s := newTestServer(&stubCatalog{}, parser)

	w := doJSON(t, s, http.MethodPost, "/api/parse-order",
		`{"owner_id": "owner-1", "message": "anh Minh lấy 2 lon coca"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var order models.DraftOrder
	if err := json.Unmarshal(w.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if order.CustomerName == nil || *order.CustomerName != "Anh Minh" {
		t.Errorf("customer_name = %v", order.CustomerName)
	}
	if parser.gotOwner != "owner-1" || parser.gotMessage != "anh Minh lấy 2 lon coca" {
		t.Errorf("parser got owner=%q message=%q", parser.gotOwner, parser.gotMessage)
	}
}

func TestHandleParseOrder_DegradedDraftIsStill200(t *testing.T) {
	parser := &stubParser{order: models.EmptyDraftOrder("tin nhắn (Lỗi: Hệ thống quá tải, thử lại sau)")}
	s := newTestServer(&stubCatalog{}, parser)

	w := doJSON(t, s, http.MethodPost, "/api/parse-order", `{"owner_id": "o", "message": "tin nhắn"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even for degraded draft", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"items":[]`) {
		t.Errorf("body = %s, want empty items array", w.Body.String())
	}
}

func TestHandleParseOrder_MissingMessage(t *testing.T) {
	s := newTestServer(&stubCatalog{}, &stubParser{})

	w := doJSON(t, s, http.MethodPost, "/api/parse-order", `{"owner_id": "o"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func multipartAudio(t *testing.T, field, filename, mimeType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandleTranscribe(t *testing.T) {
	parser := &stubParser{text: "hai thùng mì tôm"}
	s := newTestServer(&stubCatalog{}, parser)

	body, contentType := multipartAudio(t, "audio", "note.webm", "audio/webm", []byte("fake-audio"))
	req := httptest.NewRequest(http.MethodPost, "/api/orders/ai/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.TranscribeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Text != "hai thùng mì tôm" {
		t.Errorf("resp = %+v", resp)
	}
	if string(parser.gotAudio) != "fake-audio" {
		t.Errorf("parser got audio %q", parser.gotAudio)
	}
	if parser.gotMIME != "audio/webm" {
		t.Errorf("parser got mime %q, want audio/webm", parser.gotMIME)
	}
}

func TestHandleTranscribe_FailureIsStill200(t *testing.T) {
	parser := &stubParser{err: errors.New("model unavailable")}
	s := newTestServer(&stubCatalog{}, parser)

	body, contentType := multipartAudio(t, "audio", "note.webm", "audio/webm", []byte{1, 2})
	req := httptest.NewRequest(http.MethodPost, "/api/orders/ai/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.TranscribeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success || resp.Message == "" {
		t.Errorf("resp = %+v, want success=false with message", resp)
	}
}

func TestHandleTranscribe_MissingFile(t *testing.T) {
	s := newTestServer(&stubCatalog{}, &stubParser{})

	body, contentType := multipartAudio(t, "recording", "note.webm", "audio/webm", []byte{1})
	req := httptest.NewRequest(http.MethodPost, "/api/orders/ai/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubCatalog{}, &stubParser{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" || resp["service"] != "ai-svc" {
		t.Errorf("resp = %v", resp)
	}
}
