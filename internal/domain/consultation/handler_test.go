package consultation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ariesclinic/consult/internal/platform/auth"
)

func setupAPI(t *testing.T) (*echo.Echo, *fixture) {
	t.Helper()
	f := newFixture()
	e := echo.New()
	NewHandler(f.svc).RegisterRoutes(e.Group("/api/v1"))
	return e, f
}

func doJSON(e *echo.Echo, actor auth.Actor, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if actor.ID != "" {
		req = req.WithContext(auth.WithActor(req.Context(), actor))
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_BookAndRead(t *testing.T) {
	e, f := setupAPI(t)

	body := `{"title":"Irregular periods","description":"2 months","doctor_id":"` +
		f.doctorID.String() + `","payment_reference":"pay_123"}`
	rec := doJSON(e, patient, http.MethodPost, "/api/v1/consultations", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Consultation
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if created.Status != StatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}

	rec = doJSON(e, patient, http.MethodGet, "/api/v1/consultations/"+created.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var thread Thread
	if err := json.Unmarshal(rec.Body.Bytes(), &thread); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(thread.Messages) != 1 || thread.Messages[0].Content != "2 months" {
		t.Errorf("expected synthesized seed message, got %+v", thread.Messages)
	}
}

func TestHandler_BookValidation(t *testing.T) {
	e, f := setupAPI(t)

	body := `{"title":"  ","doctor_id":"` + f.doctorID.String() + `","payment_reference":"pay_123"}`
	rec := doJSON(e, patient, http.MethodPost, "/api/v1/consultations", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Unauthenticated(t *testing.T) {
	e, _ := setupAPI(t)

	rec := doJSON(e, auth.Actor{}, http.MethodGet, "/api/v1/consultations", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_GetNotFound(t *testing.T) {
	e, _ := setupAPI(t)

	rec := doJSON(e, patient, http.MethodGet, "/api/v1/consultations/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_ReplyAndCloseFlow(t *testing.T) {
	e, f := setupAPI(t)

	body := `{"title":"Irregular periods","description":"2 months","doctor_id":"` +
		f.doctorID.String() + `","payment_reference":"pay_123"}`
	rec := doJSON(e, patient, http.MethodPost, "/api/v1/consultations", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("booking failed: %d %s", rec.Code, rec.Body.String())
	}
	var created Consultation
	json.Unmarshal(rec.Body.Bytes(), &created)
	base := "/api/v1/consultations/" + created.ID.String()

	rec = doJSON(e, doc, http.MethodPost, base+"/messages", `{"content":"Let's review your cycle history"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("doctor reply failed: %d %s", rec.Code, rec.Body.String())
	}
	var reply Message
	json.Unmarshal(rec.Body.Bytes(), &reply)
	if reply.AuthorRole != auth.RoleDoctor {
		t.Errorf("reply role = %q, want doctor", reply.AuthorRole)
	}

	// Patient cannot close.
	rec = doJSON(e, patient, http.MethodPost, base+"/close", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient close: expected 403, got %d", rec.Code)
	}

	rec = doJSON(e, doc, http.MethodPost, base+"/close", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("doctor close failed: %d %s", rec.Code, rec.Body.String())
	}

	// Closed thread rejects further messages.
	rec = doJSON(e, patient, http.MethodPost, base+"/messages", `{"content":"thanks"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("append after close: expected 409, got %d", rec.Code)
	}

	// Close is idempotent over HTTP as well.
	rec = doJSON(e, doc, http.MethodPost, base+"/close", "")
	if rec.Code != http.StatusOK {
		t.Errorf("second close: expected 200, got %d", rec.Code)
	}
}

func TestHandler_EmptyMessageRejected(t *testing.T) {
	e, f := setupAPI(t)

	body := `{"title":"Irregular periods","doctor_id":"` + f.doctorID.String() + `","payment_reference":"pay_123"}`
	rec := doJSON(e, patient, http.MethodPost, "/api/v1/consultations", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("booking failed: %d", rec.Code)
	}
	var created Consultation
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(e, patient, http.MethodPost,
		"/api/v1/consultations/"+created.ID.String()+"/messages", `{"content":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_CompleteRequiresDoctor(t *testing.T) {
	e, f := setupAPI(t)

	body := `{"title":"Irregular periods","doctor_id":"` + f.doctorID.String() + `","payment_reference":"pay_123"}`
	rec := doJSON(e, patient, http.MethodPost, "/api/v1/consultations", body)
	var created Consultation
	json.Unmarshal(rec.Body.Bytes(), &created)
	base := "/api/v1/consultations/" + created.ID.String()

	rec = doJSON(e, patient, http.MethodPost, base+"/complete", "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient complete: expected 403, got %d", rec.Code)
	}

	rec = doJSON(e, doc, http.MethodPost, base+"/complete", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("doctor complete failed: %d %s", rec.Code, rec.Body.String())
	}
	var completed Consultation
	json.Unmarshal(rec.Body.Bytes(), &completed)
	if completed.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", completed.Status)
	}
}
