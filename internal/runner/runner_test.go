package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/aivis/internal/cache"
	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/observe"
	"github.com/ppiankov/aivis/internal/store"
	"github.com/ppiankov/aivis/internal/worker"
)

var fixedNow = time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(st store.Store, opts Options) *Runner {
	if opts.Prober == nil {
		opts.Prober = observe.NewSimulatedProber(observe.NewGenerator(observe.NewSeeded(42), observe.OnDemandParams))
	}
	if opts.SeedGenerator == nil {
		opts.SeedGenerator = observe.NewGenerator(observe.NewSeeded(7), observe.SeedParams)
	}
	opts.Logger = quietLogger()
	opts.Now = func() time.Time { return fixedNow }
	return New(st, opts)
}

// failingStore fails reads or inserts when the matching error is set
type failingStore struct {
	store.Store
	getErr    error
	insertErr error
	inserts   int
}

func (f *failingStore) GetProject(ctx context.Context, id string) (model.Project, error) {
	if f.getErr != nil {
		return model.Project{}, f.getErr
	}
	return f.Store.GetProject(ctx, id)
}

func (f *failingStore) InsertChecks(ctx context.Context, checks []model.Check) error {
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.Store.InsertChecks(ctx, checks)
}

type failingProber struct {
	failOn model.Engine
}

func (p failingProber) Probe(ctx context.Context, target observe.Target, task observe.Task, ts time.Time) (model.Check, error) {
	if task.Engine == p.failOn {
		return model.Check{}, errors.New("engine unavailable")
	}
	return model.Check{ProjectID: target.ProjectID, Engine: task.Engine, Keyword: task.Keyword, Timestamp: ts}, nil
}

func TestExpand(t *testing.T) {
	tasks := Expand([]string{"x", "y"})
	if len(tasks) != 8 {
		t.Fatalf("expected 8 tasks, got %d", len(tasks))
	}
	for i, task := range tasks {
		wantKeyword := "x"
		if i >= 4 {
			wantKeyword = "y"
		}
		if task.Keyword != wantKeyword || task.Engine != model.Engines[i%4] {
			t.Errorf("task %d = %+v", i, task)
		}
	}
	if len(Expand(nil)) != 0 {
		t.Error("expected no tasks for no keywords")
	}
}

func TestRun_UsesStoredKeywords(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	if _, err := st.CreateProject(ctx, model.Project{ID: "p1", Domain: "acme.io", Brand: "Acme", Keywords: []string{"x", "y"}}); err != nil {
		t.Fatal(err)
	}

	res, err := newTestRunner(st, Options{}).Run(ctx, RunRequest{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Inserted != 8 {
		t.Errorf("expected 8 inserted, got %d", res.Inserted)
	}

	checks, _ := st.ListChecks(ctx, "p1", "")
	if len(checks) != 8 {
		t.Fatalf("expected 8 stored checks, got %d", len(checks))
	}
	seen := map[string]int{}
	for _, c := range checks {
		seen[c.Keyword]++
		if !c.Timestamp.Equal(fixedNow) {
			t.Errorf("timestamp %v, want %v", c.Timestamp, fixedNow)
		}
		if err := c.Validate(); err != nil {
			t.Errorf("invalid check: %v", err)
		}
		if c.Presence && c.ObservedURLs[0] != "https://acme.io" {
			t.Errorf("canonical url = %q", c.ObservedURLs[0])
		}
	}
	if seen["x"] != 4 || seen["y"] != 4 {
		t.Errorf("keyword counts = %v", seen)
	}
}

func TestRun_ExplicitKeywordsWin(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	st.CreateProject(ctx, model.Project{ID: "p1", Keywords: []string{"x", "y"}})

	res, err := newTestRunner(st, Options{}).Run(ctx, RunRequest{ProjectID: "p1", Keywords: []string{" z ", ""}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 4 {
		t.Errorf("expected 4 inserted, got %d", res.Inserted)
	}
	checks, _ := st.ListChecks(ctx, "p1", "z")
	if len(checks) != 4 {
		t.Errorf("expected 4 checks for z, got %d", len(checks))
	}
}

func TestRun_FallsBackToDefaultKeywords(t *testing.T) {
	tests := []struct {
		name    string
		project *model.Project
	}{
		{name: "missing project"},
		{name: "project without keywords", project: &model.Project{ID: "p1", Domain: "acme.io"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := store.NewMemory()
			if tt.project != nil {
				st.CreateProject(ctx, *tt.project)
			}

			res, err := newTestRunner(st, Options{}).Run(ctx, RunRequest{ProjectID: "p1"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Inserted != 12 {
				t.Errorf("expected 12 inserted, got %d", res.Inserted)
			}
			for _, k := range DefaultKeywords {
				checks, _ := st.ListChecks(ctx, "p1", k)
				if len(checks) != 4 {
					t.Errorf("keyword %q: expected 4 checks, got %d", k, len(checks))
				}
			}
		})
	}
}

func TestRun_MissingProjectUsesIDAsURL(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	always := observe.Params{PresenceProbability: 1, MaxCitations: 1, SnippetTemplate: "%s %s"}
	prober := observe.NewSimulatedProber(observe.NewGenerator(observe.NewSeeded(1), always))

	if _, err := newTestRunner(st, Options{Prober: prober}).Run(ctx, RunRequest{ProjectID: "orphan"}); err != nil {
		t.Fatal(err)
	}
	checks, _ := st.ListChecks(ctx, "orphan", "")
	for _, c := range checks {
		if c.ObservedURLs[0] != "https://orphan" {
			t.Fatalf("canonical url = %q", c.ObservedURLs[0])
		}
	}
}

func TestRun_RequiresProjectID(t *testing.T) {
	st := &failingStore{Store: store.NewMemory()}

	for _, id := range []string{"", "   "} {
		res, err := newTestRunner(st, Options{}).Run(context.Background(), RunRequest{ProjectID: id})
		var inputErr *model.InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("expected InputError, got %v", err)
		}
		if err.Error() != "project_id required" {
			t.Errorf("message = %q", err.Error())
		}
		if res.Inserted != 0 {
			t.Errorf("expected 0 inserted, got %d", res.Inserted)
		}
	}
	if st.inserts != 0 {
		t.Errorf("expected no insert, got %d", st.inserts)
	}
}

func TestRun_InsertFailure(t *testing.T) {
	st := &failingStore{Store: store.NewMemory(), insertErr: errors.New("connection refused")}

	res, err := newTestRunner(st, Options{}).Run(context.Background(), RunRequest{ProjectID: "p1"})
	var storeErr *model.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if storeErr.Message() != "connection refused" {
		t.Errorf("message = %q", storeErr.Message())
	}
	if res.Inserted != 0 {
		t.Errorf("expected 0 inserted, got %d", res.Inserted)
	}
}

func TestRun_ReadFailure(t *testing.T) {
	st := &failingStore{Store: store.NewMemory(), getErr: errors.New("timeout")}

	_, err := newTestRunner(st, Options{}).Run(context.Background(), RunRequest{ProjectID: "p1"})
	var storeErr *model.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if st.inserts != 0 {
		t.Errorf("expected no insert after failed read, got %d", st.inserts)
	}
}

func TestRun_ProbeFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Store: store.NewMemory()}

	_, err := newTestRunner(st, Options{Prober: failingProber{failOn: model.EngineClaude}, Workers: 2}).Run(ctx, RunRequest{ProjectID: "p1"})
	if err == nil || !strings.Contains(err.Error(), "engine unavailable") {
		t.Fatalf("expected probe error, got %v", err)
	}
	var storeErr *model.StoreError
	if errors.As(err, &storeErr) {
		t.Error("probe failure must not be a store error")
	}
	if st.inserts != 0 {
		t.Errorf("expected no insert, got %d", st.inserts)
	}
}

func TestRun_SimulatedRunsAreNotThrottled(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	st.CreateProject(ctx, model.Project{ID: "p1", Keywords: SeedKeywords(12)})

	// At half a request per second this would take over 20s per engine.
	r := newTestRunner(st, Options{Limiter: worker.NewLimiter(0.5, 1), Workers: 4})

	start := time.Now()
	res, err := r.Run(ctx, RunRequest{ProjectID: "p1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 48 {
		t.Errorf("expected 48 checks, got %d", res.Inserted)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("simulated run took %v", elapsed)
	}
}

func TestRun_LiveRunsAreThrottled(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(store.NewMemory(), Options{
		Prober:  failingProber{},
		Limiter: worker.NewLimiter(20, 1),
		Workers: 4,
	})

	start := time.Now()
	if _, err := r.Run(ctx, RunRequest{ProjectID: "p1", Keywords: []string{"a", "b", "c"}}); err != nil {
		t.Fatal(err)
	}
	// Three probes per engine at 20/s with burst 1 wait at least 2 x 50ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected live probes to be rate limited, run took %v", elapsed)
	}
}

func TestRun_InvalidatesCachedReports(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	key := cache.ReportKey("p1", "", false)
	c.Set(ctx, key, []byte("stale"), 0)
	other := cache.ReportKey("p2", "", false)
	c.Set(ctx, other, []byte("keep"), 0)

	if _, err := newTestRunner(store.NewMemory(), Options{Cache: c}).Run(ctx, RunRequest{ProjectID: "p1"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected p1 report to be invalidated")
	}
	if _, ok := c.Get(ctx, other); !ok {
		t.Error("expected p2 report to survive")
	}
}

func TestRun_SeededRunsAreReproducible(t *testing.T) {
	ctx := context.Background()
	run := func() []model.Check {
		st := store.NewMemory()
		if _, err := newTestRunner(st, Options{}).Run(ctx, RunRequest{ProjectID: "p1"}); err != nil {
			t.Fatal(err)
		}
		checks, _ := st.ListChecks(ctx, "p1", "")
		return checks
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Keyword != b[i].Keyword || a[i].Engine != b[i].Engine || a[i].Presence != b[i].Presence || a[i].CitationsCount != b[i].CitationsCount {
			t.Fatalf("check %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	st.CreateProject(ctx, model.Project{ID: "p1", Domain: "acme.io", Keywords: []string{"old"}})

	n, err := newTestRunner(st, Options{}).Seed(ctx, SeedRequest{Project: model.Project{ID: "p1"}, KeywordCount: 3, Days: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3*5*4 {
		t.Errorf("expected 60 inserted, got %d", n)
	}

	p, _ := st.GetProject(ctx, "p1")
	if strings.Join(p.Keywords, ",") != "keyword 1,keyword 2,keyword 3" {
		t.Errorf("keywords = %v", p.Keywords)
	}

	checks, _ := st.ListChecks(ctx, "p1", "")
	days := map[string]int{}
	for _, c := range checks {
		days[c.Day()]++
		if c.CitationsCount > 4 {
			t.Errorf("seed citations %d above 4", c.CitationsCount)
		}
		if c.Presence && c.ObservedURLs[0] != "https://acme.io" {
			t.Errorf("canonical url = %q", c.ObservedURLs[0])
		}
	}
	if len(days) != 5 {
		t.Errorf("expected 5 distinct days, got %v", days)
	}
	if checks[0].Day() != "2024-06-06" || checks[len(checks)-1].Day() != "2024-06-10" {
		t.Errorf("day range %s..%s", checks[0].Day(), checks[len(checks)-1].Day())
	}
}

func TestSeed_CreatesMissingProject(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	n, err := newTestRunner(st, Options{}).Seed(ctx, SeedRequest{Project: model.Project{ID: "fresh", Domain: "fresh.dev"}, KeywordCount: 1, Days: 1})
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("expected 4 inserted, got %d", n)
	}
	if _, err := st.GetProject(ctx, "fresh"); err != nil {
		t.Errorf("expected project to exist: %v", err)
	}
}

func TestSeed_RejectsBadCounts(t *testing.T) {
	r := newTestRunner(store.NewMemory(), Options{})
	for _, req := range []SeedRequest{{KeywordCount: 0, Days: 1}, {KeywordCount: 1, Days: 0}} {
		_, err := r.Seed(context.Background(), req)
		var inputErr *model.InputError
		if !errors.As(err, &inputErr) {
			t.Errorf("%+v: expected InputError, got %v", req, err)
		}
	}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	projects, total, err := newTestRunner(st, Options{}).SeedDemo(ctx, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != len(DemoProjects) {
		t.Fatalf("expected %d projects, got %d", len(DemoProjects), len(projects))
	}
	if total != len(DemoProjects)*2*3*4 {
		t.Errorf("total = %d", total)
	}

	listed, _ := st.ListProjects(ctx)
	if len(listed) != len(DemoProjects) {
		t.Errorf("stored %d projects", len(listed))
	}
	if projects[0].Domain != "techstartup.io" || projects[0].Brand != "TechStartup" {
		t.Errorf("first demo project = %+v", projects[0])
	}
}
