package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/campus-events/internal/auth"
	"github.com/Shivanand-hulikatti/campus-events/internal/handler"
	"github.com/Shivanand-hulikatti/campus-events/internal/model"
	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
	"github.com/Shivanand-hulikatti/campus-events/internal/service"
	"github.com/Shivanand-hulikatti/campus-events/internal/testutil"
)

type Test struct {
	description  string
	method       string
	route        string
	body         string
	expectedCode int
	expectedBody string
}

var testOptions = service.Options{TxTimeout: 5 * time.Second, MaxAttempts: 3}

func newRouter(t *testing.T, store repository.Store) http.Handler {
	t.Helper()
	creds, err := auth.NewMemoryStore("admin123", bcrypt.MinCost)
	require.NoError(t, err)
	h := handler.New(store,
		service.NewEventService(store, testOptions),
		service.NewRegistrationService(store, testOptions),
		service.NewCheckInService(store, testOptions),
		auth.NewService(creds),
	)
	return handler.NewRouter(h, "")
}

func do(router http.Handler, method, route, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, route, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func runTests(t *testing.T, router http.Handler, tests []Test) {
	t.Helper()
	for _, test := range tests {
		rec := do(router, test.method, test.route, test.body)
		assert.Equalf(t, test.expectedCode, rec.Code, test.description)
		if test.expectedBody != "" {
			assert.Containsf(t, rec.Body.String(), test.expectedBody, test.description)
		}
	}
}

func TestEventRoutes(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	router := newRouter(t, store)

	rec := do(router, http.MethodPost, "/events",
		`{"title":"Hackathon","venue":"Lab 2","event_datetime":"2026-11-20T09:00","reg_limit":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	runTests(t, router, []Test{
		{"list events", http.MethodGet, "/events", "", http.StatusOK, `"title":"Hackathon"`},
		{"get event", http.MethodGet, "/events/" + created.ID, "", http.StatusOK, `"reg_limit":2`},
		{"get missing event", http.MethodGet, "/events/nope", "", http.StatusNotFound, "Event not found"},
		{"create without venue", http.MethodPost, "/events", `{"title":"X","event_datetime":"2026-11-20T09:00"}`, http.StatusBadRequest, "invalid input"},
		{"unknown field", http.MethodPost, "/events", `{"name":"X"}`, http.StatusBadRequest, "invalid request body"},
		{"health", http.MethodGet, "/health", "", http.StatusOK, `"status":"ok"`},
	})
}

func TestListsAreNeverNull(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	router := newRouter(t, store)
	event := testutil.SeedEvent(t, store, 0)

	runTests(t, router, []Test{
		{"no participants", http.MethodGet, "/events/" + event.ID + "/participants", "", http.StatusOK, "[]"},
		{"no attendance", http.MethodGet, "/events/" + event.ID + "/attendance", "", http.StatusOK, "[]"},
	})
}

func TestRegisterRoute(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	router := newRouter(t, store)
	event := testutil.SeedEvent(t, store, 1)
	route := "/events/" + event.ID + "/register"

	runTests(t, router, []Test{
		{"first registration", http.MethodPost, route, `{"student_name":"Asha","student_email":"asha@campus.edu","department":"CSE","year":3}`, http.StatusCreated, "Registered successfully"},
		{"duplicate", http.MethodPost, route, `{"student_name":"Asha","student_email":"ASHA@campus.edu"}`, http.StatusConflict, "already registered"},
		{"capacity reached", http.MethodPost, route, `{"student_name":"Ravi","student_email":"ravi@campus.edu"}`, http.StatusBadRequest, "Registration limit reached for this event"},
		{"missing email", http.MethodPost, route, `{"student_name":"Ravi"}`, http.StatusBadRequest, "invalid input"},
		{"unknown event", http.MethodPost, "/events/missing/register", `{"student_name":"Ravi","student_email":"ravi@campus.edu"}`, http.StatusNotFound, "Event not found"},
		{"participants", http.MethodGet, "/events/" + event.ID + "/participants", "", http.StatusOK, `"department":"CSE"`},
		{"participants of unknown event", http.MethodGet, "/events/missing/participants", "", http.StatusNotFound, ""},
	})
}

func TestCheckInRoute(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	router := newRouter(t, store)
	event := testutil.SeedEvent(t, store, 0)
	route := "/events/" + event.ID + "/checkin"

	runTests(t, router, []Test{
		{"first check-in", http.MethodPost, route, `{"student_email":"walkin@campus.edu"}`, http.StatusCreated, `"registered":false`},
		{"repeat check-in", http.MethodPost, route, `{"student_email":"walkin@campus.edu"}`, http.StatusOK, "Already marked present for this event"},
		{"missing email", http.MethodPost, route, `{}`, http.StatusBadRequest, "invalid input"},
		{"unknown event", http.MethodPost, "/events/missing/checkin", `{"student_email":"a@x.com"}`, http.StatusNotFound, ""},
		{"attendance", http.MethodGet, "/events/" + event.ID + "/attendance", "", http.StatusOK, `"student_email":"walkin@campus.edu"`},
	})
}

func TestDeleteRoute(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	router := newRouter(t, store)
	event := testutil.SeedEvent(t, store, 0)

	runTests(t, router, []Test{
		{"register", http.MethodPost, "/events/" + event.ID + "/register", `{"student_name":"A","student_email":"a@x.com"}`, http.StatusCreated, ""},
		{"check in", http.MethodPost, "/events/" + event.ID + "/checkin", `{"student_email":"a@x.com"}`, http.StatusCreated, `"registered":true`},
		{"delete", http.MethodDelete, "/events/" + event.ID, "", http.StatusOK, "Event deleted successfully"},
		{"delete again", http.MethodDelete, "/events/" + event.ID, "", http.StatusNotFound, ""},
		{"gone", http.MethodGet, "/events/" + event.ID, "", http.StatusNotFound, ""},
	})
}

func TestAdminRoutes(t *testing.T) {
	router := newRouter(t, testutil.NewSQLiteStore(t))

	runTests(t, router, []Test{
		{"missing password", http.MethodPost, "/admin/login", `{"password":""}`, http.StatusBadRequest, "Password required"},
		{"wrong password", http.MethodPost, "/admin/login", `{"password":"guess"}`, http.StatusUnauthorized, "Invalid password"},
		{"login", http.MethodPost, "/admin/login", `{"password":"admin123"}`, http.StatusOK, "Login ok"},
		{"weak new password", http.MethodPost, "/admin/change-password", `{"old_password":"admin123","new_password":"short"}`, http.StatusBadRequest, "at least 8"},
		{"change password", http.MethodPost, "/admin/change-password", `{"old_password":"admin123","new_password":"campus-2026"}`, http.StatusOK, "Password updated successfully"},
		{"old password rejected", http.MethodPost, "/admin/login", `{"password":"admin123"}`, http.StatusUnauthorized, ""},
		{"new password accepted", http.MethodPost, "/admin/login", `{"password":"campus-2026"}`, http.StatusOK, ""},
	})
}

func TestAdminLoginThrottled(t *testing.T) {
	router := newRouter(t, testutil.NewSQLiteStore(t))

	for i := 0; i < auth.DefaultMaxFailures; i++ {
		rec := do(router, http.MethodPost, "/admin/login", `{"password":"guess"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code, fmt.Sprintf("attempt %d", i+1))
	}
	rec := do(router, http.MethodPost, "/admin/login", `{"password":"admin123"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

// busyStore fails every unit of work as if the database stayed locked.
type busyStore struct {
	repository.Store
}

func (busyStore) WithinTx(context.Context, repository.TxFunc) error {
	return fmt.Errorf("%w: database is locked", repository.ErrTransient)
}

func TestRegisterRoute_TransientIsServiceUnavailable(t *testing.T) {
	base := testutil.NewSQLiteStore(t)
	event := testutil.SeedEvent(t, base, 0)
	router := newRouter(t, busyStore{base})

	rec := do(router, http.MethodPost, "/events/"+event.ID+"/register", `{"student_name":"A","student_email":"a@x.com"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
