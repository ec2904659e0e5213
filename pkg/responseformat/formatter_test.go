package responseformat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Status string `json:"status"`
	Rows   int    `json:"rows"`
}

func TestWriteResponse(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		decode      func([]byte, any) error
	}{
		{"json default", "/api/report", ContentTypeJSON, json.Unmarshal},
		{"json for unknown format", "/api/report?format=xml", ContentTypeJSON, json.Unmarshal},
		{"msgpack", "/api/report?format=msgpack", ContentTypeMsgPack, func(b []byte, v any) error {
			dec := msgpack.NewDecoder(bytes.NewReader(b))
			dec.SetCustomStructTag("json")
			return dec.Decode(v)
		}},
	}

	f := NewFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			if err := f.WriteResponse(rec, req, http.StatusUnprocessableEntity, payload{Status: "ok", Rows: 3}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected status 422, got %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("expected content type %s, got %s", tt.contentType, got)
			}
			if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("missing CORS header")
			}

			var got payload
			if err := tt.decode(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if got != (payload{Status: "ok", Rows: 3}) {
				t.Errorf("unexpected payload %+v", got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)

	if err := NewFormatter().WriteError(rec, req, http.StatusBadRequest, "bad date"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error != "bad date" {
		t.Errorf("unexpected body %q (%v)", rec.Body.String(), err)
	}
}
