package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func testDB(name string) *LoadedDatabase {
	return &LoadedDatabase{ID: name + "-id", Name: name, Kind: KindText, Records: []Record{NewTextRecord(name)}}
}

func TestSession_AddRemove(t *testing.T) {
	sess := NewSession()
	sess.Add(testDB("a.txt"))
	sess.Add(testDB("b.txt"))
	sess.Add(testDB("a.txt"))

	if got := sess.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	if removed := sess.Remove("a.txt"); removed != 2 {
		t.Errorf("Remove(a.txt) = %d, want 2", removed)
	}
	if removed := sess.Remove("missing.txt"); removed != 0 {
		t.Errorf("Remove(missing.txt) = %d, want 0", removed)
	}

	dbs := sess.Databases()
	if len(dbs) != 1 || dbs[0].Name != "b.txt" {
		t.Errorf("Databases() = %v, want [b.txt]", dbs)
	}
}

func TestSession_DatabasesIsSnapshot(t *testing.T) {
	sess := NewSession()
	sess.Add(testDB("a.txt"))

	snap := sess.Databases()
	sess.Add(testDB("b.txt"))
	sess.Remove("a.txt")

	if len(snap) != 1 || snap[0].Name != "a.txt" {
		t.Errorf("snapshot changed after mutation: %v", snap)
	}
}

func TestSession_Summaries(t *testing.T) {
	sess := NewSession()
	sess.Add(testDB("a.txt"))

	sums := sess.Summaries()
	if len(sums) != 1 {
		t.Fatalf("len(Summaries()) = %d, want 1", len(sums))
	}
	if sums[0].Name != "a.txt" || sums[0].RecordCount != 1 || sums[0].Kind != KindText {
		t.Errorf("Summaries()[0] = %+v", sums[0])
	}
}

func TestSession_ConcurrentAdd(t *testing.T) {
	sess := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Add(testDB("x.txt"))
			_ = sess.Databases()
		}()
	}
	wg.Wait()

	if got := sess.Len(); got != 50 {
		t.Errorf("Len() = %d, want 50", got)
	}
}

func TestSessionStore_Lifecycle(t *testing.T) {
	st := NewSessionStore()

	var counts []int
	st.OnChange(func(active int) { counts = append(counts, active) })

	sess := st.Create()
	if sess.Len() != 0 {
		t.Errorf("new session has %d databases, want 0", sess.Len())
	}

	got, err := st.Get(sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get() = %v, %v", got, err)
	}

	sess.Add(testDB("a.txt"))
	if err := st.End(sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if sess.Len() != 0 {
		t.Error("ended session still holds databases")
	}

	if _, err := st.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after End error = %v, want ErrSessionNotFound", err)
	}
	if err := st.End(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second End() error = %v, want ErrSessionNotFound", err)
	}

	if len(counts) != 2 || counts[0] != 1 || counts[1] != 0 {
		t.Errorf("OnChange counts = %v, want [1 0]", counts)
	}
}

func TestSessionStore_Expire(t *testing.T) {
	st := NewSessionStore()
	stale := st.Create()
	fresh := st.Create()

	now := time.Now()
	stale.touch(now.Add(-3 * time.Hour))
	fresh.touch(now)

	if n := runSweep(st, 2*time.Hour, now); n != 1 {
		t.Errorf("runSweep() = %d, want 1", n)
	}
	if _, err := st.Get(stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session survived the sweep")
	}
	if _, err := st.Get(fresh.ID); err != nil {
		t.Errorf("fresh session removed: %v", err)
	}
	if st.Count() != 1 {
		t.Errorf("Count() = %d, want 1", st.Count())
	}
}

func TestStartSessionSweeper_StopsOnCancel(t *testing.T) {
	st := NewSessionStore()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		StartSessionSweeper(ctx, st, SweepConfig{IdleTTL: time.Millisecond, Interval: 5 * time.Millisecond})
		close(done)
	}()

	sess := st.Create()
	sess.touch(time.Now().Add(-time.Hour))

	deadline := time.After(time.Second)
	for st.Count() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not expire the idle session")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("sweeper did not stop after cancel")
	}
}
