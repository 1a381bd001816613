package events

import (
	"context"
	"sync"
	"testing"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()
	r.Emit(ctx, Event{Name: StageChanged, Stage: "analyzing"})
	r.Emit(ctx, Event{Name: StageChanged, Stage: "laying_out"})
	r.Emit(ctx, Event{Name: JobFailed, Reason: "boom"})

	if got := len(r.Events()); got != 3 {
		t.Errorf("len(Events()) = %d, want 3", got)
	}
	if got := r.Stages(); len(got) != 2 || got[0] != "analyzing" || got[1] != "laying_out" {
		t.Errorf("Stages() = %v, want [analyzing laying_out]", got)
	}
	if got := r.Named(JobFailed); len(got) != 1 || got[0].Reason != "boom" {
		t.Errorf("Named(JobFailed) = %v", got)
	}
	r.Reset()
	if got := len(r.Events()); got != 0 {
		t.Errorf("len(Events()) after Reset = %d, want 0", got)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Emit(context.Background(), Event{Name: NodeUpdated})
		}()
	}
	wg.Wait()
	if got := len(r.Events()); got != 50 {
		t.Errorf("len(Events()) = %d, want 50", got)
	}
}

func TestMultiAndFunc(t *testing.T) {
	var a, b Recorder
	calls := 0
	m := Multi{&a, nil, Func(func(context.Context, Event) { calls++ }), &b, Nop{}}
	m.Emit(context.Background(), Event{Name: DiagramReplaced})
	if len(a.Events()) != 1 || len(b.Events()) != 1 || calls != 1 {
		t.Errorf("fan out: a=%d b=%d calls=%d, want 1 each", len(a.Events()), len(b.Events()), calls)
	}
}

func TestChanDropsWhenFull(t *testing.T) {
	c := NewChan(1)
	c.Emit(context.Background(), Event{Name: StageChanged, Stage: "analyzing"})
	c.Emit(context.Background(), Event{Name: StageChanged, Stage: "laying_out"})
	e := <-c.C()
	if e.Stage != "analyzing" {
		t.Errorf("Stage = %v, want analyzing", e.Stage)
	}
	select {
	case e := <-c.C():
		t.Errorf("unexpected event %v", e)
	default:
	}
}
