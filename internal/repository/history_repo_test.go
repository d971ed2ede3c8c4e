package repository

import (
	"testing"

	"MatchTracker/internal/model"
)

const matchID = "ec517b6c-6ed8-4449-ad9b-0a1dbbbf8fb9"

func entry(ts int64, raw string, status model.MatchStatus) model.HistoryEntry {
	return model.HistoryEntry{Timestamp: ts, RawLine: raw, Rendered: "{}", Status: status}
}

func TestMemoryRepo_AppendAndLookup(t *testing.T) {
	r := NewMemoryHistoryRepository()

	if _, ok := r.Last(matchID); ok {
		t.Error("Last() found entry in empty repo")
	}
	if got := len(r.History(matchID)); got != 0 {
		t.Errorf("History() length = %d, want 0", got)
	}

	r.Append(matchID, entry(1, "a", model.StatusPre))
	r.Append(matchID, entry(2, "b", model.StatusLive))

	last, ok := r.Last(matchID)
	if !ok || last.RawLine != "b" {
		t.Errorf("Last() = %+v, %v; want raw line b", last, ok)
	}
	seq := r.History(matchID)
	if len(seq) != 2 || seq[0].RawLine != "a" || seq[1].RawLine != "b" {
		t.Errorf("History() = %+v, want [a b] in insertion order", seq)
	}
	if ids := r.AllIDs(); len(ids) != 1 || ids[0] != matchID {
		t.Errorf("AllIDs() = %v", ids)
	}
}

// History 返回副本：调用方修改不影响仓库
func TestMemoryRepo_HistoryReturnsCopy(t *testing.T) {
	r := NewMemoryHistoryRepository()
	r.Append(matchID, entry(1, "a", model.StatusPre))

	seq := r.History(matchID)
	seq[0].RawLine = "tampered"

	fresh := r.History(matchID)
	if fresh[0].RawLine != "a" {
		t.Errorf("RawLine = %q, want a (caller mutation must not leak)", fresh[0].RawLine)
	}
}

func TestMemoryRepo_Clear(t *testing.T) {
	r := NewMemoryHistoryRepository()
	r.Append(matchID, entry(1, "a", model.StatusPre))
	r.Clear()

	if got := len(r.AllIDs()); got != 0 {
		t.Errorf("AllIDs() length = %d, want 0", got)
	}
	if _, ok := r.Last(matchID); ok {
		t.Error("Last() found entry after Clear")
	}
}
