package memory

import (
	"fmt"
	"sync"
	"testing"
)

func TestAppend_CreatesSessionImplicitly(t *testing.T) {
	s := NewStore(5)
	s.Append("s1", Turn{Role: "user", Text: "hello"})

	turns := s.Context("s1")
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].Text != "hello" {
		t.Errorf("expected text 'hello', got %q", turns[0].Text)
	}
	if turns[0].At.IsZero() {
		t.Error("expected timestamp to be stamped on append")
	}
}

func TestAppend_FIFOEviction(t *testing.T) {
	const capacity = 4
	s := NewStore(capacity)
	for i := 0; i < capacity+1; i++ {
		s.Append("s1", Turn{Role: "user", Text: fmt.Sprintf("turn-%d", i)})
	}

	turns := s.Context("s1")
	if len(turns) != capacity {
		t.Fatalf("expected exactly %d turns after overflow, got %d", capacity, len(turns))
	}
	// Oldest evicted, relative order preserved.
	for i, turn := range turns {
		want := fmt.Sprintf("turn-%d", i+1)
		if turn.Text != want {
			t.Errorf("turn %d: expected %q, got %q", i, want, turn.Text)
		}
	}
}

func TestContext_UnknownSession(t *testing.T) {
	s := NewStore(5)
	if turns := s.Context("nobody"); turns != nil {
		t.Errorf("expected nil for unknown session, got %v", turns)
	}
	// Reading must not create the session.
	if len(s.Sessions()) != 0 {
		t.Error("Context should never create a session")
	}
}

func TestContext_ReturnsCopy(t *testing.T) {
	s := NewStore(5)
	s.Append("s1", Turn{Role: "user", Text: "original"})

	turns := s.Context("s1")
	turns[0].Text = "mutated"

	if got := s.Context("s1")[0].Text; got != "original" {
		t.Errorf("caller mutation leaked into store: %q", got)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewStore(5)
	s.Append("a", Turn{Role: "user", Text: "for a"})
	s.Append("b", Turn{Role: "user", Text: "for b"})

	if got := s.Context("a"); len(got) != 1 || got[0].Text != "for a" {
		t.Errorf("session a sees wrong turns: %v", got)
	}
	if got := s.Context("b"); len(got) != 1 || got[0].Text != "for b" {
		t.Errorf("session b sees wrong turns: %v", got)
	}
}

func TestClear(t *testing.T) {
	s := NewStore(5)
	s.Append("s1", Turn{Role: "user", Text: "x"})

	if !s.Clear("s1") {
		t.Error("expected Clear to report the session existed")
	}
	if s.Clear("s1") {
		t.Error("expected Clear to report false for a cleared session")
	}
	if turns := s.Context("s1"); turns != nil {
		t.Errorf("expected no turns after clear, got %v", turns)
	}
}

func TestHistory(t *testing.T) {
	s := NewStore(5)
	s.Append("s1", Turn{Role: "user", Text: "প্রশ্ন"})
	s.SetLanguage("s1", "bengali")
	s.SetLanguage("s1", "english") // first write wins

	h, ok := s.History("s1")
	if !ok {
		t.Fatal("expected history for existing session")
	}
	if h.Language != "bengali" {
		t.Errorf("expected first language kept, got %q", h.Language)
	}
	if len(h.Turns) != 1 {
		t.Errorf("expected 1 turn, got %d", len(h.Turns))
	}

	if _, ok := s.History("missing"); ok {
		t.Error("expected no history for unknown session")
	}
}

func TestConcurrentAppends(t *testing.T) {
	const (
		workers  = 8
		perWork  = 50
		capacity = 100
	)
	s := NewStore(capacity)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				s.Append(fmt.Sprintf("session-%d", w%2), Turn{Role: "user", Text: "t"})
			}
		}(w)
	}
	wg.Wait()

	// 4 workers per session x 50 appends = 200 > capacity, so both sessions
	// must sit exactly at capacity with no lost updates below it.
	for _, id := range []string{"session-0", "session-1"} {
		if got := len(s.Context(id)); got != capacity {
			t.Errorf("%s: expected %d turns, got %d", id, capacity, got)
		}
	}
}
