package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/core/config"
	"go-huddle/core/middleware"
	"go-huddle/core/utils"
	"go-huddle/modules/event"
	"go-huddle/modules/event/repository"
	"go-huddle/modules/event/session"
)

const testSecret = "controller-test-secret"

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	store := repository.NewMemoryStore()
	sessions := session.NewManager(store, session.Options{SaveDebounce: time.Hour})
	t.Cleanup(sessions.Shutdown)

	event.Init(e, middleware.NewMiddleware(testSecret), store, sessions, nil, nil, nil, config.SchedulingConfig{ProposalLimit: 10})
	return e
}

func bearer(t *testing.T, userID, name string) string {
	t.Helper()
	token, err := utils.GenerateToken(testSecret, utils.TokenClaims{UserID: userID, Name: name}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func createEvent(t *testing.T, e *echo.Echo, auth string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/v1/private/events", auth, `{
		"title": "Team dinner",
		"start_date": "2024-05-01",
		"end_date": "2024-05-02",
		"start_time": "06:00 PM",
		"end_time": "08:00 PM"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created struct {
		ID    string   `json:"id"`
		Times []string `json:"times"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &created))
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Times, 5)
	return created.ID
}

func TestEventController_RequiresAuth(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodGet, "/api/v1/private/events", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventController_CreateAndList(t *testing.T) {
	e := newServer(t)
	auth := bearer(t, "alice", "Alice")
	id := createEvent(t, e, auth)

	rec := do(e, http.MethodGet, "/api/v1/private/events", auth, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []struct {
		ID          string `json:"id"`
		MemberCount int    `json:"member_count"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, 1, list[0].MemberCount)
}

func TestEventController_CreateRejectsInvertedTimes(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodPost, "/api/v1/private/events", bearer(t, "alice", "Alice"), `{
		"title": "x", "start_date": "2024-05-01", "end_date": "2024-05-01",
		"start_time": "08:00 PM", "end_time": "06:00 PM"
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, rec).Code)
}

func TestEventController_LockedEventReturns423(t *testing.T) {
	e := newServer(t)
	auth := bearer(t, "alice", "Alice")
	id := createEvent(t, e, auth)
	base := "/api/v1/private/events/" + id

	rec := do(e, http.MethodPost, base+"/availability", auth, `{"date":"2024-05-01","time":"06:30 PM","available":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, base+"/lock", auth, `{"date":"2024-05-01","time":"06:30 PM"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, base+"/availability", auth, `{"date":"2024-05-01","time":"07:00 PM","available":true}`)
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "EVENT_LOCKED", decode(t, rec).Code)

	rec = do(e, http.MethodGet, base+"/ics", auth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/calendar")
	assert.Contains(t, rec.Body.String(), "DTSTART:20240501T183000")

	rec = do(e, http.MethodDelete, base+"/lock", auth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(e, http.MethodPost, base+"/availability", auth, `{"date":"2024-05-01","time":"07:00 PM","available":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEventController_Proposals(t *testing.T) {
	e := newServer(t)
	auth := bearer(t, "alice", "Alice")
	id := createEvent(t, e, auth)
	base := "/api/v1/private/events/" + id

	rec := do(e, http.MethodPost, base+"/availability/batch", auth, `{"updates":[
		{"date":"2024-05-01","time":"06:00 PM","available":true},
		{"date":"2024-05-02","time":"07:00 PM","available":true}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(e, http.MethodGet, base+"/proposals?limit=1", auth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var props struct {
		TotalMembers int `json:"total_members"`
		Proposals    []struct {
			Date           string `json:"date"`
			IsAllAvailable bool   `json:"is_all_available"`
		} `json:"proposals"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &props))
	assert.Equal(t, 1, props.TotalMembers)
	require.Len(t, props.Proposals, 1)
	assert.True(t, props.Proposals[0].IsAllAvailable)

	rec = do(e, http.MethodGet, base+"/proposals?limit=abc", auth, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventController_NonMemberForbidden(t *testing.T) {
	e := newServer(t)
	id := createEvent(t, e, bearer(t, "alice", "Alice"))

	rec := do(e, http.MethodGet, "/api/v1/private/events/"+id, bearer(t, "mallory", "Mallory"), "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
