package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const registerPayload = `{
	"name": "Asha",
	"email": "asha@example.com",
	"password": "supersecret",
	"age": 30,
	"contactNumber": "+919876543210",
	"role": "guest"
}`

func TestRegisterDuplicateEmail(t *testing.T) {
	app := buildTestApp()
	setupTestDB(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(registerPayload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for first registration, got %d: %s", resp.Code, resp.Body.String())
	}

	// Same email again must be rejected
	req2 := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(registerPayload))
	req2.Header.Set("Content-Type", "application/json")
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", resp2.Code)
	}
	body := decodeBody(t, resp2)
	if body["message"] != "User already exists" {
		t.Fatalf("expected 'User already exists' message, got %v", body["message"])
	}
}

func TestRegisterDuplicateEmailCaseInsensitive(t *testing.T) {
	app := buildTestApp()
	setupTestDB(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(registerPayload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for first registration, got %d: %s", resp.Code, resp.Body.String())
	}

	upper := strings.Replace(registerPayload, "asha@example.com", "ASHA@example.com", 1)
	req2 := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(upper))
	req2.Header.Set("Content-Type", "application/json")
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email regardless of case, got %d", resp2.Code)
	}
}

func TestRegisterHostRequiresBankDetails(t *testing.T) {
	app := buildTestApp()
	setupTestDB(t)

	payload := strings.Replace(registerPayload, `"role": "guest"`, `"role": "host"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/users/register", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for host without bank details, got %d", resp.Code)
	}
}
