package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func perform(h echo.HandlerFunc, method, path, body string, params map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	err := h(c)
	return rec, err
}

func TestHandlerCreate(t *testing.T) {
	f := newQueueFixture()
	h := NewHandler(f.service)
	p := f.addPatient(t, "Ana")

	body := fmt.Sprintf(`{"doctor_id":1,"room_id":2,"patient_id":%d,"complaints":"fever"}`, p.ID)
	rec, err := perform(h.Create, http.MethodPost, "/queue", body, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var sess CareSession
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sess.QueueNumber != "U001" {
		t.Errorf("queue number = %q, want U001", sess.QueueNumber)
	}
}

func TestHandlerCreateRejectsBadRequest(t *testing.T) {
	f := newQueueFixture()
	h := NewHandler(f.service)

	_, err := perform(h.Create, http.MethodPost, "/queue", `{"room_id":2}`, nil)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("got %v, want 400", err)
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	f := newQueueFixture()
	h := NewHandler(f.service)
	p := f.addPatient(t, "Ana")
	sess, _ := f.service.Create(context.Background(), CreateRequest{DoctorID: 1, RoomID: 1, PatientID: p.ID})

	rec, err := perform(h.UpdateStatus, http.MethodPatch, "/queue/1/status",
		`{"status":"IN_CONSULTATION"}`, map[string]string{"id": fmt.Sprint(sess.ID)})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var updated CareSession
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != StatusInConsultation {
		t.Errorf("status = %q, want IN_CONSULTATION", updated.Status)
	}
}

func TestHandlerUpdateStatusErrors(t *testing.T) {
	f := newQueueFixture()
	h := NewHandler(f.service)
	p := f.addPatient(t, "Ana")
	sess, _ := f.service.Create(context.Background(), CreateRequest{DoctorID: 1, RoomID: 1, PatientID: p.ID})

	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"unknown session", "999", `{"status":"COMPLETED"}`, http.StatusNotFound},
		{"bad status", fmt.Sprint(sess.ID), `{"status":"NAPPING"}`, http.StatusBadRequest},
		{"bad id", "abc", `{"status":"COMPLETED"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := perform(h.UpdateStatus, http.MethodPatch, "/queue/x/status",
				tt.body, map[string]string{"id": tt.id})
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != tt.want {
				t.Fatalf("got %v, want HTTP %d", err, tt.want)
			}
		})
	}
}

func TestHandlerListWaiting(t *testing.T) {
	f := newQueueFixture()
	h := NewHandler(f.service)
	p := f.addPatient(t, "Ana")
	for i := 0; i < 2; i++ {
		if _, err := f.service.Create(context.Background(), CreateRequest{DoctorID: 1, RoomID: 1, PatientID: p.ID}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	rec, err := perform(h.ListWaiting, http.MethodGet, "/queue/waiting", "", nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var entries []QueueEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestHandlerGetDetail(t *testing.T) {
	f := newQueueFixture()
	h := NewHandler(f.service)
	p := f.addPatient(t, "Ana")
	sess, _ := f.service.Create(context.Background(), CreateRequest{
		DoctorID: 1, RoomID: 1, PatientID: p.ID, TreatmentIDs: []int64{2},
	})

	rec, err := perform(h.GetDetail, http.MethodGet, "/queue/1", "", map[string]string{"id": fmt.Sprint(sess.ID)})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var detail SessionDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Session == nil || detail.Session.ID != sess.ID {
		t.Fatalf("detail session = %+v, want id %d", detail.Session, sess.ID)
	}
	if len(detail.Treatments) != 1 {
		t.Errorf("treatments = %d, want 1", len(detail.Treatments))
	}
}

func TestHandlerOrderDrug(t *testing.T) {
	f := newQueueFixture()
	h := NewHandler(f.service)
	p := f.addPatient(t, "Ana")
	sess, _ := f.service.Create(context.Background(), CreateRequest{DoctorID: 1, RoomID: 1, PatientID: p.ID})

	rec, err := perform(h.OrderDrug, http.MethodPost, "/queue/1/drug-orders",
		`{"drug_id":4,"quantity":2}`, map[string]string{"id": fmt.Sprint(sess.ID)})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var order DrugOrder
	if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if order.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", order.Quantity)
	}
}
