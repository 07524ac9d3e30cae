package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesurvey/internal/catalog"
	"codesurvey/internal/db"
	"codesurvey/internal/export"
	"codesurvey/internal/report"
	"codesurvey/internal/schemas"
	"codesurvey/internal/storage"
	"codesurvey/internal/survey"
)

type stepClock struct {
	now time.Time
}

// Now advances a quarter second per call so every reveal→submit takes 250ms.
func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(250 * time.Millisecond)
	return c.now
}

type recordingForwarder struct {
	err  error
	sent []survey.Record
}

func (f *recordingForwarder) Forward(_ context.Context, _ string, rec survey.Record) error {
	f.sent = append(f.sent, rec)
	return f.err
}

type testEnv struct {
	srv       *httptest.Server
	store     *db.MemoryStore
	forwarder *recordingForwarder
}

func newTestEnv(t *testing.T, backends export.Backends) *testEnv {
	t.Helper()
	store := db.NewMemoryStore()
	fwd := &recordingForwarder{}
	ctrl := survey.NewController(catalog.Default(), rand.New(rand.NewPCG(42, 42)),
		&stepClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)})
	s := &Server{
		Store:    store,
		Survey:   ctrl,
		Images:   storage.NewFS(fstest.MapFS{"MCND1.jpg": {Data: []byte("jpeg")}}),
		Exporter: export.NewExporter(backends, fwd, nil, nil),
		APIToken: "admin-secret",
	}
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store, forwarder: fwd}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

func (e *testEnv) create(t *testing.T) schemas.CreateSessionResponse {
	t.Helper()
	res := e.do(t, http.MethodPost, "/sessions", "", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	return decode[schemas.CreateSessionResponse](t, res)
}

func (e *testEnv) event(t *testing.T, c schemas.CreateSessionResponse, req schemas.EventRequest) *http.Response {
	t.Helper()
	return e.do(t, http.MethodPost, "/sessions/"+c.SessionID+"/events", c.Token, req)
}

func TestFullParticipantFlow(t *testing.T) {
	env := newTestEnv(t, export.Backends{Local: true, Remote: true})
	env.forwarder.err = errors.New("endpoint unavailable")
	c := env.create(t)

	res := env.event(t, c, schemas.EventRequest{Type: survey.EventSubmitNickname, Nickname: "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, decode[errResp](t, res).Error, "nickname")

	res = env.event(t, c, schemas.EventRequest{Type: survey.EventSubmitNickname, Nickname: "ann"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	er := decode[schemas.EventResponse](t, res)
	assert.Equal(t, survey.PhaseInstructions, er.Session.Phase)
	assert.NotEmpty(t, er.Session.Instructions)

	res = env.event(t, c, schemas.EventRequest{Type: survey.EventAcknowledge})
	require.Equal(t, http.StatusOK, res.StatusCode)

	for i := 1; i <= 12; i++ {
		res = env.do(t, http.MethodGet, "/sessions/"+c.SessionID, c.Token, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		v := decode[schemas.SessionView](t, res)
		require.NotNil(t, v.Trial)
		assert.Equal(t, i, v.Trial.Number)
		assert.Equal(t, 12, v.Trial.Total)
		assert.False(t, v.Trial.Revealed)
		assert.True(t, strings.HasPrefix(v.Trial.ImageURL, "/images/"+v.Trial.Group))

		res = env.event(t, c, schemas.EventRequest{Type: survey.EventReveal})
		require.Equal(t, http.StatusOK, res.StatusCode)

		// reload keeps the answering page
		res = env.do(t, http.MethodGet, "/sessions/"+c.SessionID, c.Token, nil)
		v = decode[schemas.SessionView](t, res)
		assert.Equal(t, survey.PhaseAnswering, v.Phase)
		assert.True(t, v.Trial.Revealed)
		assert.Equal(t, i, v.Trial.Number)

		res = env.event(t, c, schemas.EventRequest{Type: survey.EventSubmitAnswer, Answer: "zzzz"})
		require.Equal(t, http.StatusOK, res.StatusCode)
		er = decode[schemas.EventResponse](t, res)
		require.NotNil(t, er.Record)
		assert.Equal(t, i, er.Record.Trial)
		assert.Equal(t, 0.25, er.Record.TimeSec)
		assert.False(t, er.Record.Correct)
		require.NotEmpty(t, er.Warnings)
		assert.Contains(t, er.Warnings[0], "endpoint unavailable")
	}
	assert.Equal(t, survey.PhaseDone, er.Session.Phase)
	assert.Len(t, er.Session.Records, 12)
	assert.Len(t, env.forwarder.sent, 12)

	res = env.do(t, http.MethodGet, "/sessions/"+c.SessionID+"/results.csv", c.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), "survey_results.csv")
	rows, err := csv.NewReader(res.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 13)
	assert.Equal(t, export.Header, rows[0])
	for i, row := range rows[1:] {
		assert.Equal(t, "ann", row[0])
		assert.Equal(t, strconv.Itoa(i+1), row[1])
		assert.Equal(t, "0.250", row[4])
		assert.Equal(t, "False", row[7])
	}

	res = env.do(t, http.MethodGet, "/sessions/"+c.SessionID+"/summary", c.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	sum := decode[report.Summary](t, res)
	assert.Equal(t, 12, sum.Trials)
	assert.Len(t, sum.Groups, 6)

	res = env.event(t, c, schemas.EventRequest{Type: survey.EventReveal})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestCorrectAnswerThroughAPI(t *testing.T) {
	env := newTestEnv(t, export.Backends{Local: true})
	c := env.create(t)
	env.event(t, c, schemas.EventRequest{Type: survey.EventSubmitNickname, Nickname: "bo"})
	env.event(t, c, schemas.EventRequest{Type: survey.EventAcknowledge})
	env.event(t, c, schemas.EventRequest{Type: survey.EventReveal})

	sess, err := env.store.Get(context.Background(), c.SessionID)
	require.NoError(t, err)
	code := sess.State.Trials[0].Expected[1]

	res := env.event(t, c, schemas.EventRequest{Type: survey.EventSubmitAnswer, Answer: "  " + strings.ToLower(code) + " "})
	require.Equal(t, http.StatusOK, res.StatusCode)
	er := decode[schemas.EventResponse](t, res)
	assert.True(t, er.Record.Correct)
	assert.Empty(t, er.Warnings)
	assert.Empty(t, env.forwarder.sent)
}

func TestEventErrors(t *testing.T) {
	env := newTestEnv(t, export.Backends{Local: true})
	c := env.create(t)

	res := env.event(t, c, schemas.EventRequest{Type: survey.EventReveal})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res = env.event(t, c, schemas.EventRequest{Type: "jump"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/sessions/"+c.SessionID+"/events", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+c.Token)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = env.do(t, http.MethodGet, "/sessions/"+c.SessionID+"/results.csv", c.Token, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	res = env.do(t, http.MethodGet, "/sessions/"+c.SessionID+"/summary", c.Token, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestSessionAuth(t *testing.T) {
	env := newTestEnv(t, export.Backends{Local: true})
	c := env.create(t)
	other := env.create(t)

	res := env.do(t, http.MethodGet, "/sessions/"+c.SessionID, "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = env.do(t, http.MethodGet, "/sessions/"+c.SessionID, other.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = env.do(t, http.MethodGet, "/sessions/not-a-uuid", c.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = env.do(t, http.MethodGet, "/sessions/00000000-0000-0000-0000-000000000000", c.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = env.do(t, http.MethodGet, "/sessions/"+c.SessionID, c.Token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	v := decode[schemas.SessionView](t, res)
	assert.Equal(t, survey.PhaseStart, v.Phase)
	assert.Nil(t, v.Trial)
}

func TestDownloadDisabled(t *testing.T) {
	env := newTestEnv(t, export.Backends{})
	c := env.create(t)
	res := env.do(t, http.MethodGet, "/sessions/"+c.SessionID+"/results.csv", c.Token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAdminResults(t *testing.T) {
	env := newTestEnv(t, export.Backends{})
	c := env.create(t)
	env.event(t, c, schemas.EventRequest{Type: survey.EventSubmitNickname, Nickname: "cy"})
	env.event(t, c, schemas.EventRequest{Type: survey.EventAcknowledge})
	env.event(t, c, schemas.EventRequest{Type: survey.EventReveal})
	env.event(t, c, schemas.EventRequest{Type: survey.EventSubmitAnswer, Answer: "abcd"})

	res := env.do(t, http.MethodGet, "/admin/sessions/"+c.SessionID+"/results.csv", c.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = env.do(t, http.MethodGet, "/admin/sessions/"+c.SessionID+"/results.csv", "admin-secret", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	rows, err := csv.NewReader(res.Body).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	res = env.do(t, http.MethodGet, "/admin/sessions/00000000-0000-0000-0000-000000000000/results.csv", "admin-secret", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestImages(t *testing.T) {
	env := newTestEnv(t, export.Backends{})

	res := env.do(t, http.MethodGet, "/images/MCND1.jpg", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/jpeg", res.Header.Get("Content-Type"))
	b, _ := io.ReadAll(res.Body)
	assert.Equal(t, "jpeg", string(b))

	res = env.do(t, http.MethodGet, "/images/MCND2.jpg", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = env.do(t, http.MethodGet, "/images/secrets.txt", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, export.Backends{})
	res := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, res)["status"])
}
