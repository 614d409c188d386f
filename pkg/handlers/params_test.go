package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestParseEntryID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantStatus int
	}{
		{name: "valid UUID", pathValue: "550e8400-e29b-41d4-a716-446655440000", wantOK: true},
		{name: "invalid UUID", pathValue: "not-a-uuid", wantStatus: http.StatusBadRequest},
		{name: "empty UUID", pathValue: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("eid", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseEntryID(rec, req, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseEntryID() ok = %v, want %v", ok, tt.wantOK)
			}

			if tt.wantOK {
				if id.String() != tt.pathValue {
					t.Errorf("ParseEntryID() id = %v, want %v", id, tt.pathValue)
				}
				return
			}

			if id != uuid.Nil {
				t.Errorf("ParseEntryID() id = %v, want uuid.Nil", id)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["error"] != "invalid_entry_id" {
				t.Errorf("error = %q, want %q", body["error"], "invalid_entry_id")
			}
		})
	}
}
