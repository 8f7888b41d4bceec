package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/server/ratelimit"
	"github.com/jonathan/resume-editor/internal/types"
)

type captureDispatcher struct {
	mu       sync.Mutex
	requests []types.GenerationRequest
}

func (d *captureDispatcher) Dispatch(_ context.Context, req types.GenerationRequest) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
}

func (d *captureDispatcher) last() types.GenerationRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests[len(d.requests)-1]
}

type testServer struct {
	*Server
	session    *editor.Session
	dispatcher *captureDispatcher
}

func newTestServer(t *testing.T, rl *ratelimit.Config) *testServer {
	t.Helper()
	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	d := &captureDispatcher{}
	session := editor.NewSession(types.NewDocument(), editor.WithDispatcher(d))
	s := New(Config{RateLimit: rl, Heartbeat: time.Hour}, session)
	t.Cleanup(s.rateLimiter.Stop)
	return &testServer{Server: s, session: session, dispatcher: d}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUpdateField(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPut, "/document/fields", `{"path": "name", "value": "Ada Lovelace"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[MutationResponse](t, w)
	assert.True(t, resp.Changed)
	assert.True(t, resp.History.CanUndo)

	w = ts.do(t, http.MethodPut, "/document/fields", `{"path": "name", "value": "Ada Lovelace"}`)
	assert.False(t, decode[MutationResponse](t, w).Changed, "same value is a no-op")

	doc := decode[types.Document](t, ts.do(t, http.MethodGet, "/document", ""))
	assert.Equal(t, "Ada Lovelace", doc.Profile.Name)
}

func TestUpdateField_BadRequests(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"path": `},
		{"missing path", `{"value": "x"}`},
		{"unknown body field", `{"path": "name", "value": "x", "extra": 1}`},
		{"unknown field path", `{"path": "avatar", "value": "x"}`},
		{"malformed path", `{"path": "experience.exp-1", "value": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPut, "/document/fields", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, w).Error)
		})
	}
	assert.False(t, ts.session.HistoryState().CanUndo)
}

func TestConcurrentEditsReportTheirOwnHistoryPosition(t *testing.T) {
	ts := newTestServer(t, nil)
	handler := ts.Handler()
	const edits = 40

	cursors := make([]int, edits)
	codes := make([]int, edits)
	var wg sync.WaitGroup
	for i := range edits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := fmt.Sprintf(`{"skill": "skill-%d"}`, i)
			req := httptest.NewRequest(http.MethodPost, "/document/skills", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes[i] = w.Code
			var resp MutationResponse
			if json.Unmarshal(w.Body.Bytes(), &resp) == nil {
				cursors[i] = resp.History.Cursor
			}
		}()
	}
	wg.Wait()

	seen := make(map[int]bool, edits)
	for i := range edits {
		require.Equal(t, http.StatusOK, codes[i])
		assert.False(t, seen[cursors[i]], "cursor %d reported twice", cursors[i])
		seen[cursors[i]] = true
		assert.True(t, cursors[i] >= 1 && cursors[i] <= edits, "cursor %d out of range", cursors[i])
	}
	assert.Equal(t, edits, ts.session.HistoryState().Cursor)
}

func TestEntries(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/document/entries/experience", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "exp-1", decode[MutationResponse](t, w).ID)

	w = ts.do(t, http.MethodPut, "/document/fields", `{"path": "experience.exp-1.company", "value": "Initech"}`)
	assert.True(t, decode[MutationResponse](t, w).Changed)

	w = ts.do(t, http.MethodPost, "/document/entries/summary", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/document/entries/experience/exp-9", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[MutationResponse](t, w).Changed, "unknown id is a no-op")

	w = ts.do(t, http.MethodDelete, "/document/entries/experience/exp-1", "")
	assert.True(t, decode[MutationResponse](t, w).Changed)
	assert.Empty(t, ts.session.Document().Experience)
}

func TestSkills(t *testing.T) {
	ts := newTestServer(t, nil)

	assert.True(t, decode[MutationResponse](t, ts.do(t, http.MethodPost, "/document/skills", `{"skill": "golang"}`)).Changed)
	assert.False(t, decode[MutationResponse](t, ts.do(t, http.MethodPost, "/document/skills", `{"skill": "Go"}`)).Changed)
	assert.Equal(t, []string{"Go"}, ts.session.Document().Skills)

	assert.True(t, decode[MutationResponse](t, ts.do(t, http.MethodDelete, "/document/skills/go", "")).Changed)
	assert.Empty(t, ts.session.Document().Skills)
}

func TestLayoutEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/document/sections/skills/toggle", "")
	assert.True(t, decode[MutationResponse](t, w).Changed)
	assert.False(t, ts.session.Document().SectionVisibility[types.SectionSkills])

	w = ts.do(t, http.MethodPost, "/document/sections/hobbies/toggle", "")
	assert.False(t, decode[MutationResponse](t, w).Changed)

	w = ts.do(t, http.MethodPost, "/document/sections/move", `{"index": 0, "direction": "down"}`)
	assert.True(t, decode[MutationResponse](t, w).Changed)
	assert.Equal(t, types.SectionSummary, ts.session.Document().SectionOrder[1])

	w = ts.do(t, http.MethodPost, "/document/sections/move", `{"index": 0, "direction": "sideways"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/document/custom-sections", `{"name": "Awards", "content": "Turing"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[MutationResponse](t, w).ID
	assert.True(t, strings.HasPrefix(id, "custom-"))

	w = ts.do(t, http.MethodPut, "/document/custom-sections/"+id, `{"content": "Turing Award"}`)
	assert.True(t, decode[MutationResponse](t, w).Changed)

	w = ts.do(t, http.MethodPost, "/document/custom-sections", `{"name": "   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/document/custom-sections/"+id, "")
	assert.True(t, decode[MutationResponse](t, w).Changed)
	assert.NoError(t, ts.session.Document().Layout.Check())
}

func TestCustomFields(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/document/custom-fields", `{"name": "GitHub"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[MutationResponse](t, w).ID

	w = ts.do(t, http.MethodPut, "/document/custom-fields/"+id, `{"value": "github.com/ada"}`)
	assert.True(t, decode[MutationResponse](t, w).Changed)
	assert.Equal(t, "github.com/ada", ts.session.Document().CustomFields[0].Value)

	w = ts.do(t, http.MethodDelete, "/document/custom-fields/"+id, "")
	assert.True(t, decode[MutationResponse](t, w).Changed)
	w = ts.do(t, http.MethodDelete, "/document/custom-fields/"+id, "")
	assert.False(t, decode[MutationResponse](t, w).Changed)
}

func TestUndoRedo(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.do(t, http.MethodPut, "/document/fields", `{"path": "summary", "value": "one"}`)
	ts.do(t, http.MethodPut, "/document/fields", `{"path": "summary", "value": "two"}`)

	resp := decode[MutationResponse](t, ts.do(t, http.MethodPost, "/history/undo", ""))
	assert.True(t, resp.Changed)
	assert.True(t, resp.History.CanRedo)
	assert.Equal(t, "one", ts.session.Document().Summary)

	assert.True(t, decode[MutationResponse](t, ts.do(t, http.MethodPost, "/history/redo", "")).Changed)
	assert.False(t, decode[MutationResponse](t, ts.do(t, http.MethodPost, "/history/redo", "")).Changed)
	assert.Equal(t, "two", ts.session.Document().Summary)

	state := decode[map[string]any](t, ts.do(t, http.MethodGet, "/history", ""))
	assert.EqualValues(t, 2, state["cursor"])
}

func TestVersions(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.do(t, http.MethodPut, "/document/fields", `{"path": "summary", "value": "backend"}`)
	w := ts.do(t, http.MethodPost, "/versions", `{"name": "Backend", "tags": ["go"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	root := decode[types.VersionSummary](t, w)

	ts.do(t, http.MethodPut, "/document/fields", `{"path": "summary", "value": "frontend"}`)
	w = ts.do(t, http.MethodPost, "/versions", `{"name": "Frontend", "parent_id": "`+root.ID+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	child := decode[types.VersionSummary](t, w)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/versions", `{"name": ""}`).Code)

	list := decode[ListVersionsResponse](t, ts.do(t, http.MethodGet, "/versions", ""))
	require.Len(t, list.Versions, 2)

	full := decode[types.Version](t, ts.do(t, http.MethodGet, "/versions/"+root.ID, ""))
	assert.Equal(t, "backend", full.Snapshot.Summary)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/versions/missing", "").Code)

	lineage := decode[[]types.VersionSummary](t, ts.do(t, http.MethodGet, "/versions/"+child.ID+"/lineage", ""))
	require.Len(t, lineage, 2)
	assert.Equal(t, root.ID, lineage[0].ID)

	act := decode[ActivateResponse](t, ts.do(t, http.MethodPost, "/versions/"+root.ID+"/activate", ""))
	assert.Equal(t, "backend", act.Document.Summary)
	assert.False(t, ts.session.HistoryState().CanUndo, "activation restarts history")
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/versions/missing/activate", "").Code)

	deleted := decode[editor.VersionDeleted](t, ts.do(t, http.MethodDelete, "/versions/"+root.ID, ""))
	assert.Equal(t, []string{child.ID}, deleted.Reparented)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/versions/"+root.ID, "").Code)
}

func TestGenerate(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/generations", `{"target": {"section": "summary"}, "prompt": "Backend focus", "tone": "technical"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	resp := decode[GenerateResponse](t, w)
	assert.Equal(t, ts.dispatcher.last().GenerationID, resp.GenerationID)

	report := ts.session.DeliverGeneration(types.GenerationResult{GenerationID: resp.GenerationID, Content: "Seasoned engineer."})
	assert.True(t, report.Changed)
	assert.Equal(t, "Seasoned engineer.", ts.session.Document().Summary)

	w = ts.do(t, http.MethodPost, "/generations", `{"target": {"section": "summary"}, "tone": "sarcastic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/generations", `{"target": {"section": "experience", "entry_id": "exp-1"}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMatchAndApply(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.session.AddSkill("Go")

	w := ts.do(t, http.MethodPost, "/match", `{"job_description": "Go engineer with Kafka experience"}`)
	require.Equal(t, http.StatusOK, w.Code)
	analysis := decode[types.MatchAnalysis](t, w)
	assert.Contains(t, analysis.MissingKeywords, "Kafka")

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/match", `{}`).Code)

	w = ts.do(t, http.MethodPost, "/match/apply", `{"message": "Add Kafka", "action": "add_skill", "value": "Kafka"}`)
	assert.True(t, decode[MutationResponse](t, w).Changed)
	assert.Contains(t, ts.session.Document().Skills, "Kafka")

	w = ts.do(t, http.MethodPost, "/match/apply", `{"message": "x", "action": "set_field"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportExport(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPut, "/document/fields", `{"path": "name", "value": "Ada"}`)

	w := ts.do(t, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	exported := w.Body.String()

	w = ts.do(t, http.MethodPost, "/import", `{"profile": 3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, w).Details)
	assert.Equal(t, "Ada", ts.session.Document().Profile.Name, "failed import changes nothing")

	ts.do(t, http.MethodPut, "/document/fields", `{"path": "name", "value": "Grace"}`)
	w = ts.do(t, http.MethodPost, "/import", exported)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ada", ts.session.Document().Profile.Name)

	ts.do(t, http.MethodPost, "/history/undo", "")
	assert.Equal(t, "Grace", ts.session.Document().Profile.Name, "import is undoable")
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/match", Method: "POST", Limit: 1, Window: time.Hour},
		},
	})

	body := `{"job_description": "Go"}`
	w := ts.do(t, http.MethodPost, "/match", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = ts.do(t, http.MethodPost, "/match", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/document", "").Code)
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t, nil)
	srv := httptest.NewServer(ts.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line, "subscription is live once the greeting arrives")

	ts.session.UpdateField("summary", "hello")

	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, "id: 1", lines[0])
	assert.Equal(t, "event: document.committed", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "data: "))

	var ev editor.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &ev))
	assert.Equal(t, editor.EventCommitted, ev.Type)
}
