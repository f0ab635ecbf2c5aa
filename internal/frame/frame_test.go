package frame

import "testing"

func TestPinUnpinBalance(t *testing.T) {
	f := New()
	if f.Pin() != 1 {
		t.Fatalf("first Pin() should return 1")
	}
	f.Pin()
	if f.PinCount() != 2 {
		t.Fatalf("PinCount() = %d, want 2", f.PinCount())
	}
	f.Unpin()
	f.Unpin()
	if f.PinCount() != 0 {
		t.Fatalf("PinCount() = %d, want 0", f.PinCount())
	}
}

func TestUnpinBelowZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unbalanced Unpin")
		}
	}()
	f := New()
	f.Unpin()
}

func TestDataMutMarksDirty(t *testing.T) {
	f := New()
	if f.IsDirty() {
		t.Fatalf("new frame should not be dirty")
	}
	buf := f.DataMut()
	buf[0] = 1
	if !f.IsDirty() {
		t.Fatalf("DataMut() should mark frame dirty")
	}
}

func TestBumpRevisionLeavesOtherStateAlone(t *testing.T) {
	f := New()
	f.Pin()
	buf := f.DataMut()
	buf[0] = 9
	rev := f.Revision()

	f.BumpRevision()

	if f.Revision() != rev+1 {
		t.Fatalf("Revision() = %d, want %d", f.Revision(), rev+1)
	}
	if f.PinCount() != 1 {
		t.Fatalf("PinCount() = %d, want 1 (BumpRevision must not touch pin state)", f.PinCount())
	}
	if !f.IsDirty() {
		t.Fatalf("IsDirty() = false, want true (BumpRevision must not touch dirty state)")
	}
	if f.Data()[0] != 9 {
		t.Fatalf("Data()[0] = %d, want 9 (BumpRevision must not touch buffer contents)", f.Data()[0])
	}
}

func TestResetClearsStateAndBumpsRevision(t *testing.T) {
	f := New()
	f.Pin()
	buf := f.DataMut()
	buf[0] = 7
	rev := f.Revision()

	f.Reset()

	if f.PinCount() != 0 {
		t.Fatalf("PinCount() after Reset = %d, want 0", f.PinCount())
	}
	if f.IsDirty() {
		t.Fatalf("IsDirty() after Reset = true, want false")
	}
	if f.Data()[0] != 0 {
		t.Fatalf("Data()[0] after Reset = %d, want 0", f.Data()[0])
	}
	if f.Revision() != rev+1 {
		t.Fatalf("Revision() = %d, want %d", f.Revision(), rev+1)
	}
}
