package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spigell/career-path/internal/career"
	"github.com/spigell/career-path/internal/careerapi"
	"github.com/spigell/career-path/internal/catalog"
	"github.com/spigell/career-path/internal/identity"
	"github.com/spigell/career-path/internal/matching"
	"github.com/spigell/career-path/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

const testSecret = "test-secret"

type fixture struct {
	srv      *Server
	http     *httptest.Server
	store    *store.SQLite
	verifier *identity.Verifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	st, err := store.Open(context.Background(), store.MemoryPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	c, err := catalog.Default()
	require.NoError(t, err)

	v, err := identity.NewVerifier(testSecret)
	require.NoError(t, err)

	srv, err := New(Config{AllowedOrigins: []string{"https://app.example.com"}}, st, c, v, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &fixture{srv: srv, http: ts, store: st, verifier: v}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.http.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestHome(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, homeMessage, buf.String())
}

func TestCreateAnonymous(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/user-career", "", career.Submission{
		UserID:       "spoofed",
		CurrentClass: "12th",
		Sector:       "Public Sector",
		DreamJob:     "IAS",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec career.Record
	decodeBody(t, resp, &rec)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "IAS", rec.DreamJob)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestCreateAuthenticatedUsesTokenUser(t *testing.T) {
	f := newFixture(t)

	token, err := f.verifier.Issue("user-7", time.Hour)
	require.NoError(t, err)

	resp := f.do(t, http.MethodPost, "/api/user-career/me", token, career.Submission{
		UserID:       "spoofed",
		CurrentClass: "Btech",
		Sector:       "Private Sector",
		DreamJob:     "DevOps Engineering",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rec career.Record
	decodeBody(t, resp, &rec)
	assert.Equal(t, "user-7", rec.UserID)
}

func TestCreateAuthenticatedRejectsBadTokens(t *testing.T) {
	f := newFixture(t)

	other, err := identity.NewVerifier("other-secret")
	require.NoError(t, err)
	foreign, err := other.Issue("user-7", time.Hour)
	require.NoError(t, err)

	body := career.Submission{CurrentClass: "10th", Sector: "Private Sector", DreamJob: "UI/UX"}
	for name, token := range map[string]string{"missing": "", "foreign": foreign, "garbage": "abc"} {
		t.Run(name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/user-career/me", token, body)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}

	records, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]any{
		"missing class":  map[string]string{"sector": "Private Sector", "dreamJob": "UI/UX"},
		"missing sector": map[string]string{"currentClass": "10th", "dreamJob": "UI/UX"},
		"bad sector":     map[string]string{"currentClass": "10th", "sector": "Space", "dreamJob": "UI/UX"},
		"unknown field":  map[string]string{"currentClass": "10th", "sector": "Other", "dreamJob": "UI/UX", "extra": "x"},
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := f.do(t, http.MethodPost, "/api/user-career", "", body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var e errorResponse
			decodeBody(t, resp, &e)
			assert.NotEmpty(t, e.Message)
		})
	}
}

func TestGetAndNotFound(t *testing.T) {
	f := newFixture(t)

	rec, err := f.store.Create(context.Background(), career.Submission{CurrentClass: "9th", Sector: "Don't Know"})
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/api/user-career/"+rec.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got career.Record
	decodeBody(t, resp, &got)
	assert.Equal(t, rec.Submission(), got.Submission())

	resp = f.do(t, http.MethodGet, "/api/user-career/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/user-career/missing/roadmap", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordRoadmap(t *testing.T) {
	f := newFixture(t)

	rec, err := f.store.Create(context.Background(), career.Submission{
		CurrentClass: "Btech",
		Sector:       "Private Sector",
		DreamJob:     "DevOps Engineering",
	})
	require.NoError(t, err)

	resp := f.do(t, http.MethodGet, "/api/user-career/"+rec.ID+"/roadmap", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var roadmap matching.Roadmap
	decodeBody(t, resp, &roadmap)
	assert.True(t, roadmap.Found)
	assert.Equal(t, career.StageUndergraduate, roadmap.CurrentStage)
	require.Len(t, roadmap.Paths, 1)
	assert.Equal(t, 40.0, roadmap.Paths[0].Completion)
	for _, step := range roadmap.Paths[0].Steps {
		assert.GreaterOrEqual(t, step.Number, 3)
	}
}

func TestAdHocRoadmap(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api/roadmap", "", career.Submission{
		CurrentClass: "5th",
		Sector:       "Public Sector",
		DreamJob:     "NoSuchJob",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var roadmap matching.Roadmap
	decodeBody(t, resp, &roadmap)
	assert.False(t, roadmap.Found)
	assert.Equal(t, "NoSuchJob", roadmap.JobTitle)
	assert.NotNil(t, roadmap.Paths)
	assert.Empty(t, roadmap.Paths)

	resp = f.do(t, http.MethodPost, "/api/roadmap", "", career.Submission{Sector: "Public Sector"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/catalog/jobs?sector=Public%20Sector&q=engineer", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var jobs []string
	decodeBody(t, resp, &jobs)
	assert.Equal(t, []string{
		"IES (Indian Engineering Services)",
		"JE (Junior Engineer)",
		"AE (Assistant Engineer)",
		"PSU Engineer",
		"Railway Engineering Services",
	}, jobs)

	resp = f.do(t, http.MethodGet, "/api/catalog/jobs?q=zzz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	jobs = nil
	decodeBody(t, resp, &jobs)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)

	resp = f.do(t, http.MethodGet, "/api/catalog/jobs?sector=Space", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/catalog/classes?q=B", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var classes []string
	decodeBody(t, resp, &classes)
	assert.Contains(t, classes, "Btech")
	assert.NotContains(t, classes, "10th")
}

func TestCORS(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.http.URL+"/api/user-career", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := f.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	resp2, err := f.http.Client().Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()

	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestRoundTripThroughClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client, err := careerapi.New(zap.NewNop(), f.http.URL)
	require.NoError(t, err)

	token, err := f.verifier.Issue("user-9", time.Hour)
	require.NoError(t, err)

	subs := []career.Submission{
		{CurrentClass: "10th", Sector: "Private Sector", DreamJob: "Data Science"},
		{CurrentClass: "MBA", Sector: "Public Sector", DreamJob: "Bank PO"},
	}

	anon, err := client.Submit(ctx, subs[0], "")
	require.NoError(t, err)
	authed, err := client.Submit(ctx, subs[1], token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", authed.UserID)

	for i, rec := range []*career.Record{anon, authed} {
		got, err := client.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, subs[i].CurrentClass, got.CurrentClass)
		assert.Equal(t, subs[i].Sector, got.Sector)
		assert.Equal(t, subs[i].DreamJob, got.DreamJob)
	}

	records, err := client.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, authed.ID, records[0].ID)
	assert.True(t, records[1].CreatedAt.Equal(anon.CreatedAt))

	roadmap, err := client.Roadmap(ctx, anon.ID)
	require.NoError(t, err)
	assert.Equal(t, "Data Science", roadmap.JobTitle)

	_, err = client.Get(ctx, "missing")
	require.ErrorIs(t, err, careerapi.ErrNotFound)

	_, err = client.Submit(ctx, career.Submission{Sector: "Other", DreamJob: "x"}, "")
	require.ErrorIs(t, err, career.ErrValidation)

	_, err = client.Submit(ctx, subs[0], "bad-token")
	require.ErrorIs(t, err, careerapi.ErrUnauthorized)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	st, err := store.Open(context.Background(), store.MemoryPath, nil)
	require.NoError(t, err)
	defer st.Close()

	srv, err := New(Config{}, st, c, nil, zap.NewNop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Authentication is not configured on this server.
	resp, err = http.Post("http://"+ln.Addr().String()+"/api/user-career/me", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	http.DefaultClient.CloseIdleConnections()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
