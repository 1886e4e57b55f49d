package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePath(t *testing.T) {
	if got := ResolvePath("/host", "app/call.js"); got != filepath.Join("/host", "app/call.js") {
		t.Fatalf("relative path not joined: %s", got)
	}
	if got := ResolvePath("/host", "/abs/call.js"); got != filepath.Clean("/abs/call.js") {
		t.Fatalf("absolute path not preserved: %s", got)
	}
}

func TestWriteJSONFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.json")
	if err := WriteJSONFile(path, map[string]int{"n": 1}); err != nil {
		t.Fatalf("WriteJSONFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"n\": 1\n}" {
		t.Fatalf("unexpected file body: %q", b)
	}
}

func TestRingBufferWrapsAround(t *testing.T) {
	r := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	if r.Len() != 3 {
		t.Fatalf("expected len 3, got %d", r.Len())
	}
	got := r.Snapshot()
	want := []int{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot %v, want %v", got, want)
		}
	}
}

func TestRingBufferEmpty(t *testing.T) {
	r := NewRingBuffer[string](4)
	if r.Len() != 0 || len(r.Snapshot()) != 0 {
		t.Fatal("fresh buffer should be empty")
	}
}
