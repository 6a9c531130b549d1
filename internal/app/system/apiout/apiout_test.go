package apiout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "x1"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusCreated)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type: got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body["id"] != "x1" {
		t.Errorf("body: got %v", body)
	}
}

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusUnauthorized, "invalid credentials")

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.StatusCode != http.StatusUnauthorized {
		t.Errorf("statusCode: got %d", body.StatusCode)
	}
	if body.Message != "invalid credentials" {
		t.Errorf("message: got %v", body.Message)
	}
	if body.Error != "Unauthorized" {
		t.Errorf("error: got %q", body.Error)
	}
}

func TestErrors_MessageArray(t *testing.T) {
	rec := httptest.NewRecorder()
	Errors(rec, http.StatusBadRequest, []string{"name is required", "email is invalid"})

	var body struct {
		StatusCode int      `json:"statusCode"`
		Message    []string `json:"message"`
		Error      string   `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if len(body.Message) != 2 {
		t.Fatalf("expected 2 messages, got %v", body.Message)
	}
	if body.Error != "Bad Request" {
		t.Errorf("error: got %q", body.Error)
	}
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("expected an empty body")
	}
}
