package yeti

import "testing"

func TestObjectIdUniqueness(t *testing.T) {
	seen := make(map[ObjectId]bool)
	for i := 0; i < 1000; i++ {
		id := NewObjectId()
		if seen[id] {
			t.Fatalf("ObjectId %d issued twice", id)
		}
		seen[id] = true
		if id == NoObjectId {
			t.Fatalf("NewObjectId returned the reserved NoObjectId sentinel")
		}
	}
}

func TestObjectInitObject(t *testing.T) {
	var a, b Object
	a.InitObject()
	b.InitObject()
	if a.ID() == b.ID() {
		t.Fatalf("two distinct objects got the same id %d", a.ID())
	}
	if a.ID() == NoObjectId {
		t.Fatalf("InitObject left the sentinel id")
	}
}
