package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/observe"
)

type stubProber struct {
	failOn string
	calls  int32
}

func (s *stubProber) Probe(ctx context.Context, target observe.Target, task observe.Task, ts time.Time) (model.Check, error) {
	atomic.AddInt32(&s.calls, 1)
	if task.Keyword == s.failOn {
		return model.Check{}, errors.New("engine unavailable")
	}
	return model.Check{ProjectID: target.ProjectID, Engine: task.Engine, Keyword: task.Keyword, Timestamp: ts}, nil
}

func tasksFor(keywords ...string) []observe.Task {
	var tasks []observe.Task
	for _, k := range keywords {
		for _, e := range model.Engines {
			tasks = append(tasks, observe.Task{Keyword: k, Engine: e})
		}
	}
	return tasks
}

func TestBatchProcessor_ProcessTasks(t *testing.T) {
	prober := &stubProber{}
	b := NewBatchProcessor(prober, NewLimiter(0, 1), 3)
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tasks := tasksFor("a", "b", "c")

	checks, err := b.ProcessTasks(context.Background(), observe.Target{ProjectID: "p"}, tasks, ts)
	if err != nil {
		t.Fatalf("ProcessTasks: %v", err)
	}
	if len(checks) != 12 {
		t.Fatalf("expected 12 checks, got %d", len(checks))
	}
	for i, c := range checks {
		if c.Keyword != tasks[i].Keyword || c.Engine != tasks[i].Engine {
			t.Errorf("checks[%d] = %s/%s, want %s/%s", i, c.Keyword, c.Engine, tasks[i].Keyword, tasks[i].Engine)
		}
		if !c.Timestamp.Equal(ts) {
			t.Errorf("checks[%d] timestamp %v, want %v", i, c.Timestamp, ts)
		}
	}
}

func TestBatchProcessor_ProcessTasks_Error(t *testing.T) {
	b := NewBatchProcessor(&stubProber{failOn: "b"}, nil, 2)

	checks, err := b.ProcessTasks(context.Background(), observe.Target{ProjectID: "p"}, tasksFor("a", "b"), time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if checks != nil {
		t.Errorf("expected no checks on failure, got %d", len(checks))
	}
}

func TestBatchProcessor_ProcessTasks_Empty(t *testing.T) {
	b := NewBatchProcessor(&stubProber{}, nil, 2)

	checks, err := b.ProcessTasks(context.Background(), observe.Target{}, nil, time.Now())
	if err != nil || len(checks) != 0 {
		t.Errorf("expected empty result, got %v, %v", checks, err)
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	b := NewBatchProcessor(&stubProber{}, nil, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.ProcessTasks(ctx, observe.Target{ProjectID: "p"}, tasksFor("a"), time.Now()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestProbeResult_GetError(t *testing.T) {
	r := &ProbeResult{Error: errors.New("x")}
	if r.GetError() == nil {
		t.Error("expected error")
	}
}
