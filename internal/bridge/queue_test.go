package bridge

import (
	"fmt"
	"sync"
	"testing"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Submit(Command{Event: Event(fmt.Sprintf("ev-%d", i))})
	}

	cmds := q.DrainAll()
	if len(cmds) != 5 {
		t.Fatalf("expected 5 commands, got %d", len(cmds))
	}
	for i, cmd := range cmds {
		if want := Event(fmt.Sprintf("ev-%d", i)); cmd.Event != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, cmd.Event)
		}
	}

	if q.Len() != 0 {
		t.Fatalf("queue not empty after drain: %d", q.Len())
	}
}

func TestQueueDrainEmpty(t *testing.T) {
	q := NewQueue()
	if cmds := q.DrainAll(); len(cmds) != 0 {
		t.Fatalf("expected empty drain, got %d", len(cmds))
	}
}

func TestQueueConcurrentSubmit(t *testing.T) {
	q := NewQueue()

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				q.Submit(Command{
					Event:   EventToggleMute,
					Payload: Payload{"worker": w, "seq": i},
				})
			}
		}(w)
	}
	wg.Wait()

	cmds := q.DrainAll()
	if len(cmds) != workers*perWorker {
		t.Fatalf("expected %d commands, got %d", workers*perWorker, len(cmds))
	}

	// Per-worker submission order must be preserved in the total order.
	lastSeq := make(map[int]int)
	for _, cmd := range cmds {
		w := cmd.Payload["worker"].(int)
		seq := cmd.Payload["seq"].(int)
		if last, ok := lastSeq[w]; ok && seq != last+1 {
			t.Fatalf("worker %d: seq %d followed %d", w, seq, last)
		}
		lastSeq[w] = seq
	}
}
