package digestfile

import "testing"

func TestBufferDrainRemovesOnlySelectedProjects(t *testing.T) {
	buffer := NewBuffer()
	buffer.Append(Event{ProjectID: "a", Timestamp: 1})
	buffer.Append(Event{ProjectID: "b", Timestamp: 2})
	buffer.Append(Event{ProjectID: "a", Timestamp: 3})

	removed := buffer.Drain(map[string]bool{"a": true}, 3)
	if len(removed) != 2 {
		t.Fatalf("expected 2 removed events, got %d", len(removed))
	}
	if buffer.Len() != 1 {
		t.Fatalf("expected 1 remaining event, got %d", buffer.Len())
	}
	snapshot, _ := buffer.Snapshot()
	if snapshot[0].ProjectID != "b" {
		t.Fatalf("expected project b to remain, got %s", snapshot[0].ProjectID)
	}
}

func TestBufferDrainKeepsEventsAppendedAfterSnapshot(t *testing.T) {
	buffer := NewBuffer()
	buffer.Append(Event{ProjectID: "a", Timestamp: 1})
	_, snapshotLen := buffer.Snapshot()

	// Simulates an append that lands while flush I/O is in progress.
	buffer.Append(Event{ProjectID: "a", Timestamp: 2})

	removed := buffer.Drain(map[string]bool{"a": true}, snapshotLen)
	if len(removed) != 1 || removed[0].Timestamp != 1 {
		t.Fatalf("expected only the snapshotted event removed, got %+v", removed)
	}
	if buffer.Len() != 1 {
		t.Fatalf("expected late append to survive, got len %d", buffer.Len())
	}
	snapshot, _ := buffer.Snapshot()
	if snapshot[0].Timestamp != 2 {
		t.Fatalf("expected surviving event ts=2, got %d", snapshot[0].Timestamp)
	}
}

func TestBufferSnapshotIsACopy(t *testing.T) {
	buffer := NewBuffer()
	buffer.Append(Event{ProjectID: "a", Timestamp: 1})
	snapshot, snapshotLen := buffer.Snapshot()
	if snapshotLen != 1 {
		t.Fatalf("expected snapshot length 1, got %d", snapshotLen)
	}
	snapshot[0].ProjectID = "mutated"
	fresh, _ := buffer.Snapshot()
	if fresh[0].ProjectID != "a" {
		t.Fatalf("snapshot mutation leaked into buffer: %s", fresh[0].ProjectID)
	}
}

func TestBufferDuplicateTimestampsPreserved(t *testing.T) {
	buffer := NewBuffer()
	buffer.Append(Event{ProjectID: "a", Timestamp: 5, EventType: "first"})
	buffer.Append(Event{ProjectID: "a", Timestamp: 5, EventType: "second"})
	snapshot, _ := buffer.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("expected duplicates preserved, got %d events", len(snapshot))
	}
}
