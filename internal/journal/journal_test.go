package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/petervdpas/callbridge/internal/bridge"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "emissions.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestAppendAndRecent(t *testing.T) {
	j := openTestDB(t)

	events := []string{"appReady", "callConnected", "callDisconnected"}
	for _, ev := range events {
		if err := j.Append(bridge.Emission{
			Event:   ev,
			Payload: bridge.Payload{"src": ev},
		}); err != nil {
			t.Fatalf("Append %s: %v", ev, err)
		}
		// Distinct timestamps so the newest-first order is deterministic.
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"callDisconnected", "callConnected", "appReady"} {
		if entries[i].Event != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, entries[i].Event)
		}
		if entries[i].Payload["src"] != want {
			t.Fatalf("payload lost for %s: %+v", want, entries[i].Payload)
		}
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	j := openTestDB(t)

	for i := 0; i < 5; i++ {
		if err := j.Append(bridge.Emission{Event: "callError"}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := j.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestNilPayloadJournalsEmpty(t *testing.T) {
	j := openTestDB(t)

	if err := j.Append(bridge.Emission{Event: "appReady"}); err != nil {
		t.Fatal(err)
	}
	entries, err := j.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Payload == nil || len(entries[0].Payload) != 0 {
		t.Fatalf("expected empty payload, got %+v", entries)
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "emissions.db")

	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Append(bridge.Emission{Event: "callConnected", Payload: bridge.Payload{"roomName": "Lobby"}}); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	j, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Event != "callConnected" {
		t.Fatalf("journal lost across reopen: %+v", entries)
	}
	if entries[0].TS <= 0 {
		t.Fatalf("missing timestamp: %+v", entries[0])
	}
}
