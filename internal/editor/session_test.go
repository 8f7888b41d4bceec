package editor

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-editor/internal/autosave"
	"github.com/jonathan/resume-editor/internal/composition"
	"github.com/jonathan/resume-editor/internal/generation"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/jonathan/resume-editor/internal/versions"
)

type captureDispatcher struct {
	requests []types.GenerationRequest
}

func (d *captureDispatcher) Dispatch(_ context.Context, req types.GenerationRequest) {
	d.requests = append(d.requests, req)
}

type memVersionStore struct {
	mu      sync.Mutex
	saved   map[string]types.Version
	deleted []string
	err     error
}

func newMemVersionStore() *memVersionStore {
	return &memVersionStore{saved: make(map[string]types.Version)}
}

func (m *memVersionStore) SaveVersion(_ context.Context, v types.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved[v.ID] = v
	return nil
}

func (m *memVersionStore) DeleteVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, id)
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *memVersionStore) LoadVersions(context.Context) ([]types.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Version, 0, len(m.saved))
	for _, v := range m.saved {
		out = append(out, v)
	}
	return out, m.err
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func tickingClock() func() time.Time {
	t := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// scenarioDoc has Order=[summary, skills, experience] with every section visible.
func scenarioDoc() types.Document {
	doc := types.NewDocument()
	doc.SectionOrder = []types.SectionID{types.SectionSummary, types.SectionSkills, types.SectionExperience,
		types.SectionProjects, types.SectionEducation, types.SectionCertifications}
	return doc
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *captureDispatcher) {
	t.Helper()
	d := &captureDispatcher{}
	base := []Option{
		WithDispatcher(d),
		WithVersionOptions(versions.WithIDGenerator(sequentialIDs("v")), versions.WithClock(tickingClock())),
		WithGenerationOptions(generation.WithIDGenerator(sequentialIDs("g"))),
	}
	return NewSession(scenarioDoc(), append(base, opts...)...), d
}

func TestScenarioA_AddCustomSectionCommits(t *testing.T) {
	s, _ := newTestSession(t)

	id, ok := s.AddCustomSection("Awards", "")
	require.True(t, ok)

	doc := s.Document()
	assert.Equal(t, types.SectionID("custom-1"), id)
	assert.Equal(t, id, doc.SectionOrder[len(doc.SectionOrder)-1])
	assert.True(t, doc.SectionVisibility[id])
	assert.Equal(t, 2, s.HistoryState().Length)
	assert.Equal(t, 1, s.HistoryState().Cursor)
}

func TestScenarioB_UndoRedoRestoresIdentically(t *testing.T) {
	s, _ := newTestSession(t)
	id, _ := s.AddCustomSection("Awards", "")
	withAwards := s.Document()

	require.True(t, s.Undo())
	assert.Equal(t, 0, s.HistoryState().Cursor)
	_, found := s.Document().CustomSection(id)
	assert.False(t, found)
	assert.NotContains(t, s.Document().SectionOrder, id)

	require.True(t, s.Redo())
	assert.Equal(t, 1, s.HistoryState().Cursor)
	assert.Equal(t, withAwards, s.Document())
}

func TestScenarioC_EditAfterUndoTruncatesRedo(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddCustomSection("Awards", "")
	_, err := s.UpdateField("summary", "first")
	require.NoError(t, err)
	assert.Equal(t, 3, s.HistoryState().Length)

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.Equal(t, 0, s.HistoryState().Cursor)

	_, err = s.UpdateField("summary", "second")
	require.NoError(t, err)

	state := s.HistoryState()
	assert.Equal(t, 2, state.Length)
	assert.Equal(t, 1, state.Cursor)
	assert.False(t, state.CanRedo)
	assert.False(t, s.Redo())
	assert.Equal(t, "second", s.Document().Summary)
	assert.Empty(t, s.Document().CustomSections)
}

func TestScenarioD_ActivationKeepsEveryVersion(t *testing.T) {
	s, _ := newTestSession(t)
	v1, err := s.CreateVersion(context.Background(), versions.CreateParams{Name: "v1"})
	require.NoError(t, err)
	s.AddSkill("Go")
	v2, err := s.CreateVersion(context.Background(), versions.CreateParams{Name: "v2", ParentID: v1.ID})
	require.NoError(t, err)

	doc, err := s.ActivateVersion(context.Background(), v1.ID)
	require.NoError(t, err)

	assert.Empty(t, doc.Skills)
	ids := []string{}
	for _, v := range s.ListVersions() {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{v1.ID, v2.ID}, ids)
	assert.Equal(t, v1.ID, s.ActiveVersionID())

	// Activation starts a fresh undo session.
	state := s.HistoryState()
	assert.Equal(t, 1, state.Length)
	assert.False(t, state.CanUndo)
	assert.False(t, s.Undo())
}

func TestScenarioE_ResultForDeletedEntryIsStale(t *testing.T) {
	s, d := newTestSession(t)
	events, cancel := s.Subscribe()
	defer cancel()

	entry, err := s.AddEntry(types.SectionExperience)
	require.NoError(t, err)
	genID, err := s.Generate(context.Background(), generation.Params{
		Target: types.Target{Section: types.SectionExperience, EntryID: entry},
		Prompt: "describe the role",
	})
	require.NoError(t, err)
	require.Len(t, d.requests, 1)

	removed, err := s.RemoveEntry(types.SectionExperience, entry)
	require.NoError(t, err)
	require.True(t, removed)
	before := s.Document()
	length := s.HistoryState().Length

	report := s.DeliverGeneration(types.GenerationResult{GenerationID: genID, Content: "Led the team"})
	again := s.DeliverGeneration(types.GenerationResult{GenerationID: genID, Content: "Led the team"})

	assert.Equal(t, generation.OutcomeStale, report.Outcome)
	assert.Equal(t, generation.OutcomeDuplicate, again.Outcome)
	assert.Equal(t, before, s.Document())
	assert.Equal(t, length, s.HistoryState().Length)

	stale := 0
	for drained := false; !drained; {
		select {
		case ev := <-events:
			if r, ok := ev.Data.(generation.Report); ok && ev.Type == EventGeneration && r.Outcome == generation.OutcomeStale {
				stale++
			}
		default:
			drained = true
		}
	}
	assert.Equal(t, 1, stale)
}

func TestGenerationResultIsOneUndoableCommit(t *testing.T) {
	s, _ := newTestSession(t)
	id, err := s.Generate(context.Background(), generation.Params{Target: types.Target{Section: types.SectionSummary}})
	require.NoError(t, err)
	length := s.HistoryState().Length

	report := s.DeliverGeneration(types.GenerationResult{GenerationID: id, Content: "Generated"})

	assert.Equal(t, generation.OutcomeAccepted, report.Outcome)
	assert.Equal(t, length+1, s.HistoryState().Length)
	require.True(t, s.Undo())
	assert.Empty(t, s.Document().Summary)
}

func TestAsyncGenerationService(t *testing.T) {
	svc := serviceFunc(func(_ context.Context, req types.GenerationRequest) (string, error) {
		return "Generated for " + req.Target.String(), nil
	})
	s := NewSession(scenarioDoc(), WithGenerationService(svc, generation.DispatcherConfig{MaxConcurrent: 1}))

	_, err := s.Generate(context.Background(), generation.Params{Target: types.Target{Section: types.SectionSummary}})
	require.NoError(t, err)
	s.Wait()

	assert.Equal(t, "Generated for summary", s.Document().Summary)
	assert.Zero(t, s.InFlightGenerations())
}

type serviceFunc func(ctx context.Context, req types.GenerationRequest) (string, error)

func (f serviceFunc) Generate(ctx context.Context, req types.GenerationRequest) (string, error) {
	return f(ctx, req)
}

func TestActivateVersion_DiscardsInFlightGenerations(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	_, err := s.UpdateField("summary", "Draft A")
	require.NoError(t, err)
	v, err := s.CreateVersion(ctx, versions.CreateParams{Name: "a"})
	require.NoError(t, err)

	_, err = s.UpdateField("summary", "Draft B")
	require.NoError(t, err)
	genID, err := s.Generate(ctx, generation.Params{Target: types.Target{Section: types.SectionSummary}})
	require.NoError(t, err)

	activated, err := s.ActivateVersion(ctx, v.ID)
	require.NoError(t, err)

	report := s.DeliverGeneration(types.GenerationResult{GenerationID: genID, Content: "Rewritten Draft B"})
	assert.Equal(t, generation.OutcomeStale, report.Outcome)
	assert.Equal(t, activated, s.Document())
	assert.Equal(t, "Draft A", s.Document().Summary)
	assert.False(t, s.HistoryState().CanUndo)
	assert.Zero(t, s.InFlightGenerations())
}

func TestEdit_ReturnsStateOfItsOwnStep(t *testing.T) {
	s, _ := newTestSession(t)

	changed, state, err := s.Edit(func(st *composition.Store) (bool, error) {
		return st.UpdateField("summary", "Builds compilers")
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, state.Cursor)
	assert.True(t, state.CanUndo)

	_, state, err = s.Edit(func(st *composition.Store) (bool, error) {
		return st.UpdateField("avatar", "x")
	})
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, state.Cursor, "rejected edit leaves history alone")

	ok, state := s.UndoWithState()
	assert.True(t, ok)
	assert.Equal(t, 0, state.Cursor)
	assert.True(t, state.CanRedo)

	ok, state = s.RedoWithState()
	assert.True(t, ok)
	assert.Equal(t, 1, state.Cursor)

	ok, state = s.RedoWithState()
	assert.False(t, ok)
	assert.Equal(t, 1, state.Cursor)
}

func TestActivateVersion_UnknownID(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddSkill("Go")
	before := s.Document()

	_, err := s.ActivateVersion(context.Background(), "missing")

	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, before, s.Document())
	assert.Equal(t, 2, s.HistoryState().Length)
}

func TestCreateVersion_Validation(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.CreateVersion(context.Background(), versions.CreateParams{Name: "  "})
	var ve *types.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = s.CreateVersion(context.Background(), versions.CreateParams{Name: "child", ParentID: "ghost"})
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, s.ListVersions())
}

func TestVersionSnapshotsAreIndependent(t *testing.T) {
	s, _ := newTestSession(t)
	v, err := s.CreateVersion(context.Background(), versions.CreateParams{Name: "base"})
	require.NoError(t, err)

	s.AddSkill("Go")
	_, err = s.UpdateField("summary", "changed")
	require.NoError(t, err)

	stored, err := s.GetVersion(v.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Snapshot.Skills)
	assert.Empty(t, stored.Snapshot.Summary)
}

func TestAutoCaptureBeforeActivation(t *testing.T) {
	s, _ := newTestSession(t, WithAutoCapture(true))
	base, err := s.CreateVersion(context.Background(), versions.CreateParams{Name: "base"})
	require.NoError(t, err)

	// Unchanged since capture: nothing extra is created.
	_, err = s.ActivateVersion(context.Background(), base.ID)
	require.NoError(t, err)
	assert.Len(t, s.ListVersions(), 1)

	s.AddSkill("Rust")
	_, err = s.ActivateVersion(context.Background(), base.ID)
	require.NoError(t, err)

	all := s.ListVersions()
	require.Len(t, all, 2)
	captured := all[1]
	assert.True(t, captured.Metadata.AutoCaptured)
	assert.Equal(t, base.ID, captured.ParentID)
	assert.Equal(t, []string{"Rust"}, captured.Snapshot.Skills)
	assert.Empty(t, s.Document().Skills)
}

func TestDeleteVersion_ReparentsAndPersists(t *testing.T) {
	store := newMemVersionStore()
	s, _ := newTestSession(t, WithVersionStore(store))
	ctx := context.Background()
	root, _ := s.CreateVersion(ctx, versions.CreateParams{Name: "root"})
	mid, _ := s.CreateVersion(ctx, versions.CreateParams{Name: "mid", ParentID: root.ID})
	leaf, _ := s.CreateVersion(ctx, versions.CreateParams{Name: "leaf", ParentID: mid.ID})
	s.AddSkill("Go")
	history := s.HistoryState()

	reparented, err := s.DeleteVersion(ctx, mid.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{leaf.ID}, reparented)
	lineage, err := s.Lineage(leaf.ID)
	require.NoError(t, err)
	require.Len(t, lineage, 2)
	assert.Equal(t, root.ID, lineage[0].ID)
	assert.Equal(t, history, s.HistoryState())
	assert.Equal(t, []string{"Go"}, s.Document().Skills)

	assert.Equal(t, []string{mid.ID}, store.deleted)
	assert.Equal(t, root.ID, store.saved[leaf.ID].ParentID)

	_, err = s.DeleteVersion(ctx, mid.ID)
	var nf *types.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestLoadVersions(t *testing.T) {
	store := newMemVersionStore()
	first, _ := newTestSession(t, WithVersionStore(store))
	ctx := context.Background()
	root, _ := first.CreateVersion(ctx, versions.CreateParams{Name: "root"})
	_, _ = first.CreateVersion(ctx, versions.CreateParams{Name: "child", ParentID: root.ID})

	second, _ := newTestSession(t, WithVersionStore(store))
	require.NoError(t, second.LoadVersions(ctx))

	got := second.ListVersions()
	require.Len(t, got, 2)
	assert.Equal(t, "root", got[0].Name)
	assert.Equal(t, "child", got[1].Name)

	store.err = errors.New("db down")
	assert.Error(t, second.LoadVersions(ctx))
}

func TestLoadVersions_RejectsInconsistentSnapshot(t *testing.T) {
	broken := scenarioDoc()
	broken.SectionOrder = []types.SectionID{types.SectionSummary, "custom-9"}
	store := newMemVersionStore()
	store.saved["v9"] = types.Version{ID: "v9", Name: "broken", CreatedAt: time.Now(), Snapshot: broken}

	s, _ := newTestSession(t, WithVersionStore(store))
	require.Error(t, s.LoadVersions(context.Background()))

	_, err := s.ActivateVersion(context.Background(), "v9")
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	doc := s.Document()
	assert.NoError(t, doc.Layout.Check())
}

func TestVersionStoreFailureIsNotFatal(t *testing.T) {
	store := newMemVersionStore()
	store.err = errors.New("db down")
	s, _ := newTestSession(t, WithVersionStore(store))

	v, err := s.CreateVersion(context.Background(), versions.CreateParams{Name: "kept"})
	require.NoError(t, err)

	_, err = s.GetVersion(v.ID)
	assert.NoError(t, err)
}

func TestImport_AllOrNothing(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddSkill("Go")
	before := s.Document()
	length := s.HistoryState().Length

	err := s.Import([]byte(`{"profile": {"name": "X"}, "section_order": ["summary"], "section_visibility": {"summary": true}}`))

	require.Error(t, err)
	assert.Equal(t, before, s.Document())
	assert.Equal(t, length, s.HistoryState().Length)
}

func TestImport_IsUndoableAndKeepsIDsFresh(t *testing.T) {
	s, _ := newTestSession(t)
	data := []byte(`{
		"profile": {"name": "Ada", "email": "ada@example.com"},
		"experience": [{"id": "exp-4", "company": "Engines"}],
		"section_order": ["summary", "skills", "experience", "projects", "education", "certifications"],
		"section_visibility": {"summary": true, "skills": true, "experience": true, "projects": true, "education": true, "certifications": true}
	}`)

	require.NoError(t, s.Import(data))
	assert.Equal(t, "Ada", s.Document().Profile.Name)

	id, err := s.AddEntry(types.SectionExperience)
	require.NoError(t, err)
	assert.Equal(t, "exp-5", id)

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.Empty(t, s.Document().Profile.Name)
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddCustomSection("Talks", "GopherCon")
	s.AddCustomField("GitHub")
	_, err := s.UpdateField("name", "Ada")
	require.NoError(t, err)

	data, err := s.Export()
	require.NoError(t, err)

	other, _ := newTestSession(t)
	require.NoError(t, other.Import(data))
	assert.Equal(t, s.Document(), other.Document())
}

type memDocumentStore struct {
	data []byte
}

func (m *memDocumentStore) Persist(_ context.Context, data []byte) error {
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *memDocumentStore) Load(context.Context) ([]byte, error) {
	return m.data, nil
}

// fillLooseContacts writes contact values an editor accepts while the user is still typing.
func fillLooseContacts(t *testing.T, s *Session) {
	t.Helper()
	projectID, err := s.AddEntry(types.SectionProjects)
	require.NoError(t, err)
	certID, err := s.AddEntry(types.SectionCertifications)
	require.NoError(t, err)

	for path, value := range map[string]string{
		"name":                              "Ada Lovelace",
		"email":                             "ada@",
		"website":                           "adalovelace.dev",
		"summary":                           "Analytical engines",
		"projects." + projectID + ".url":    "github.com/ada/engine",
		"certifications." + certID + ".url": "not a link",
	} {
		_, err := s.UpdateField(path, value)
		require.NoError(t, err, path)
	}
}

func TestAutosavedDocumentSurvivesRestart(t *testing.T) {
	s, _ := newTestSession(t)
	fillLooseContacts(t, s)

	store := &memDocumentStore{}
	res := autosave.New(s, store, time.Minute).Tick(context.Background())
	require.Equal(t, autosave.StatusSaved, res.Status)

	restored := autosave.Seed(context.Background(), store, nil)
	assert.Equal(t, s.Document(), restored)
}

func TestExportImportRoundTrip_LooseContacts(t *testing.T) {
	s, _ := newTestSession(t)
	fillLooseContacts(t, s)

	data, err := s.Export()
	require.NoError(t, err)

	other, _ := newTestSession(t)
	require.NoError(t, other.Import(data))
	assert.Equal(t, s.Document(), other.Document())
}

func TestApplyRecommendation(t *testing.T) {
	s, _ := newTestSession(t)

	changed, err := s.ApplyRecommendation(types.Recommendation{Message: "add", Action: types.ActionAddSkill, Value: "k8s"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"Kubernetes"}, s.Document().Skills)

	changed, err = s.ApplyRecommendation(types.Recommendation{Message: "advice", Action: types.ActionAdvice})
	require.NoError(t, err)
	assert.False(t, changed)

	require.True(t, s.Undo())
	assert.Empty(t, s.Document().Skills)
}

func TestAnalyzeMatch_DefaultsToKeywordAnalyzer(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddSkill("Go")

	analysis, err := s.AnalyzeMatch(context.Background(), "Looking for Go and Kafka experience")
	require.NoError(t, err)

	assert.Equal(t, []string{"Go"}, analysis.MatchedKeywords)
	assert.Equal(t, []string{"Kafka"}, analysis.MissingKeywords)
}

func TestAnalyzeMatch_NormalizesHTML(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddSkill("Go")

	html := `<html><body><nav>Kafka jobs</nav><div class="job-description"><ul><li>Go</li></ul></div></body></html>`
	analysis, err := s.AnalyzeMatch(context.Background(), html)
	require.NoError(t, err)

	assert.Equal(t, []string{"Go"}, analysis.MatchedKeywords)
	assert.NotContains(t, analysis.MissingKeywords, "Kafka")
}

func TestAnalyzeMatch_RejectsBlank(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.AnalyzeMatch(context.Background(), "  \n ")
	var ve *types.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestEventsArePublished(t *testing.T) {
	s, _ := newTestSession(t)
	events, cancel := s.Subscribe()

	s.AddSkill("Go")
	s.Undo()
	s.Redo()
	cancel()

	var got []EventType
	for ev := range events {
		got = append(got, ev.Type)
	}
	assert.Equal(t, []EventType{EventCommitted, EventUndo, EventRedo}, got)
	assert.Zero(t, s.events.count())
}

// TestRandomOperationsKeepLayoutConsistent drives the session with random operations,
// including ids that never existed, and checks the layout after each step.
func TestRandomOperationsKeepLayoutConsistent(t *testing.T) {
	s, _ := newTestSession(t)
	rng := rand.New(rand.NewSource(7))
	ids := []types.SectionID{"custom-1", "custom-2", "custom-99", types.SectionSkills, "bogus"}

	for i := 0; i < 500; i++ {
		switch rng.Intn(8) {
		case 0:
			s.AddCustomSection(fmt.Sprintf("Section %d", i), "")
		case 1:
			s.DeleteCustomSection(ids[rng.Intn(len(ids))])
		case 2:
			s.ToggleVisibility(ids[rng.Intn(len(ids))])
		case 3:
			dir := composition.Up
			if rng.Intn(2) == 0 {
				dir = composition.Down
			}
			s.MoveSection(rng.Intn(12)-2, dir)
		case 4:
			s.Undo()
		case 5:
			s.Redo()
		case 6:
			s.UpdateCustomSectionContent(ids[rng.Intn(len(ids))], fmt.Sprint(i))
		case 7:
			before := s.Document()
			if s.Undo() {
				require.True(t, s.Redo())
				require.Equal(t, before, s.Document())
			}
		}

		doc := s.Document()
		require.NoError(t, doc.Layout.Check(), "step %d", i)
		state := s.HistoryState()
		require.True(t, state.Cursor >= 0 && state.Cursor < state.Length)
	}
}
