package orchestrator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/mshevtsov/concilium/internal/model"
)

func TestLogAppendOrder(t *testing.T) {
	l := NewDiscussionLog()
	for i := 0; i < 5; i++ {
		l.Append(model.DiscussionEntry{Message: fmt.Sprintf("m%d", i)})
	}

	entries := l.Snapshot()
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	for i, e := range entries {
		if want := fmt.Sprintf("m%d", i); e.Message != want {
			t.Errorf("entry %d = %q, want %q", i, e.Message, want)
		}
	}
}

func TestLogSnapshotIsCopy(t *testing.T) {
	l := NewDiscussionLog()
	l.Append(model.DiscussionEntry{Message: "original"})

	snap := l.Snapshot()
	snap[0].Message = "mutated"

	if got := l.Snapshot()[0].Message; got != "original" {
		t.Errorf("snapshot mutation leaked into log: %q", got)
	}
}

func TestLogConcurrentAppend(t *testing.T) {
	l := NewDiscussionLog()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(model.DiscussionEntry{Message: fmt.Sprintf("m%d", i)})
		}(i)
	}
	wg.Wait()

	if got := l.Len(); got != 20 {
		t.Errorf("Len = %d, want 20", got)
	}
}

func TestLogSubscribe(t *testing.T) {
	l := NewDiscussionLog()
	ch, cancel := l.Subscribe(16)
	defer cancel()

	l.Append(model.DiscussionEntry{Message: "first"})
	l.Append(model.DiscussionEntry{Message: "second"})
	l.Close()

	var got []string
	for e := range ch {
		got = append(got, e.Message)
	}
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("subscriber saw %v, want [first second]", got)
	}
}

func TestLogCloseStopsAppends(t *testing.T) {
	l := NewDiscussionLog()
	l.Append(model.DiscussionEntry{Message: "before"})
	l.Close()
	l.Append(model.DiscussionEntry{Message: "after"})

	if got := l.Len(); got != 1 {
		t.Errorf("Len after close = %d, want 1", got)
	}
	// Closing twice is fine.
	l.Close()
}

func TestLogSubscribeAfterClose(t *testing.T) {
	l := NewDiscussionLog()
	l.Close()
	ch, cancel := l.Subscribe(1)
	defer cancel()
	if _, open := <-ch; open {
		t.Error("subscription on closed log should yield a closed channel")
	}
}
