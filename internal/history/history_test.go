package history

import (
	"sync"
	"testing"

	"go.aimuz.me/interviewcoder/internal/types"
)

func TestStore_NewestFirst(t *testing.T) {
	s := New()
	s.Add(types.HistoryEntry{ID: "1", Kind: types.HistoryScreenshot})
	s.Add(types.HistoryEntry{ID: "2", Kind: types.HistoryAudio, Transcript: "hi"})

	got := s.List()
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("List() = %+v, want newest first", got)
	}

	s.Clear()
	if len(s.List()) != 0 {
		t.Error("Clear should drop every entry")
	}
}

func TestStore_EntriesAreImmutable(t *testing.T) {
	s := New()
	sol := &types.Solution{Approach: "a"}
	shots := []types.Screenshot{{ID: 1}}
	s.Add(types.HistoryEntry{ID: "1", Solution: sol, Screenshots: shots})

	sol.Approach = "changed"
	shots[0].ID = 99

	got := s.List()
	got[0].Solution.Approach = "changed again"

	again := s.List()[0]
	if again.Solution.Approach != "a" {
		t.Errorf("stored solution mutated: %q", again.Solution.Approach)
	}
	if again.Screenshots[0].ID != 1 {
		t.Errorf("stored screenshots mutated: %d", again.Screenshots[0].ID)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			s.Add(types.HistoryEntry{Kind: types.HistoryAudio})
			_ = s.List()
		})
	}
	wg.Wait()
	if n := len(s.List()); n != 50 {
		t.Errorf("len(List()) = %d, want 50", n)
	}
}
