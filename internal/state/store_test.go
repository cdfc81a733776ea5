package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"siriuswatch/internal/api"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return NewStore(filepath.Join(t.TempDir(), "state.json"), logger)
}

func TestLoad_MissingFile(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Load()
	if err != nil {
		t.Fatalf("missing file must load empty defaults, got %v", err)
	}
	if len(st.Channels) != 0 || len(st.Courses) != 0 || len(st.SeenEvents) != 0 {
		t.Errorf("expected empty state, got %+v", st)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	store := NewStore(path, logger)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected error for corrupt state file")
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	store := newTestStore(t)

	st := &State{
		Channels: []int64{111, 222},
		Pings:    []int64{7},
		Courses:  []string{"BI-LA1.21"},
	}
	st.MarkEventSeen(api.EventID("42"))
	st.MarkEventSeen(api.EventID("EX-1"))
	st.MarkNewsSeen("n-1")

	if err := store.Save(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(loaded.Channels) != 2 || loaded.Channels[0] != 111 {
		t.Errorf("unexpected channels %v", loaded.Channels)
	}
	if !loaded.HasSeenEvent(api.EventID("42")) || !loaded.HasSeenEvent(api.EventID("EX-1")) {
		t.Errorf("seen events lost across roundtrip: %v", loaded.SeenEvents)
	}
	if !loaded.HasSeenNews("n-1") {
		t.Errorf("seen news lost across roundtrip: %v", loaded.SeenNews)
	}
	if loaded.HasSeenEvent(api.EventID("43")) {
		t.Error("unexpected membership for unseen id")
	}
}

func TestSave_NumericIDsStayNumeric(t *testing.T) {
	store := newTestStore(t)

	st := &State{}
	st.MarkEventSeen(api.EventID("42"))

	if err := store.Save(st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(store.path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"42"`) {
		t.Errorf("numeric id was quoted in state file:\n%s", data)
	}
	if !strings.Contains(string(data), "42") {
		t.Errorf("id missing from state file:\n%s", data)
	}
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save(&State{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(store.path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestMarkEventSeen_MonotonicNoDuplicates(t *testing.T) {
	st := &State{SeenEvents: []api.EventID{"1", "2"}}

	st.MarkEventSeen(api.EventID("2"))
	st.MarkEventSeen(api.EventID("3"))

	if len(st.SeenEvents) != 3 {
		t.Fatalf("expected 3 ids, got %v", st.SeenEvents)
	}
	for i, want := range []api.EventID{"1", "2", "3"} {
		if st.SeenEvents[i] != want {
			t.Errorf("order changed: got %v", st.SeenEvents)
		}
	}
}
