package ioreadcache

import "testing"

type fakeReader struct {
	closed *bool
}

func (f fakeReader) Close() error {
	*f.closed = true
	return nil
}

func newFake() (Reader, *bool) {
	closed := new(bool)
	return fakeReader{closed: closed}, closed
}

func TestAddGet(t *testing.T) {
	c := New(4)
	r, _ := newFake()
	c.Add("a", r)

	got, ok := c.Get("a")
	if !ok || got != r {
		t.Fatal("expected to get back the reader just added")
	}
}

func TestEvictionClosesReader(t *testing.T) {
	c := New(2)
	r1, closed1 := newFake()
	r2, _ := newFake()
	r3, _ := newFake()

	c.Add("a", r1)
	c.Add("b", r2)
	c.Add("c", r3) // evicts "a", the least-recently-used

	if !*closed1 {
		t.Fatal("expected evicted reader to be closed")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected evicted key to be gone")
	}
}

func TestOverwriteClosesPrevious(t *testing.T) {
	c := New(4)
	r1, closed1 := newFake()
	r2, _ := newFake()

	c.Add("a", r1)
	c.Add("a", r2)

	if !*closed1 {
		t.Fatal("expected overwritten reader to be closed")
	}
	got, _ := c.Get("a")
	if got != r2 {
		t.Fatal("expected the new reader to replace the old one")
	}
}

func TestCloseClosesAll(t *testing.T) {
	c := New(4)
	r1, closed1 := newFake()
	r2, closed2 := newFake()
	c.Add("a", r1)
	c.Add("b", r2)

	c.Close()

	if !*closed1 || !*closed2 {
		t.Fatal("expected Close to close every cached reader")
	}
	if c.Len() != 0 {
		t.Fatal("expected cache to be empty after Close")
	}
}

func TestResizeEvictsDownToNewCapacity(t *testing.T) {
	c := New(4)
	r1, closed1 := newFake()
	r2, _ := newFake()
	c.Add("a", r1)
	c.Add("b", r2)

	c.Resize(1) // evicts "a", the least-recently-used

	if !*closed1 {
		t.Fatal("expected reader evicted by shrink to be closed")
	}
	if c.GetMax() != 1 {
		t.Fatalf("expected GetMax()==1, got %d", c.GetMax())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected evicted key to be gone")
	}
}

func TestDefaultSizeUsedWhenNonPositive(t *testing.T) {
	c := New(0)
	for i := 0; i < DefaultSize+1; i++ {
		r, _ := newFake()
		c.Add(string(rune('a'+i)), r)
	}
	if c.Len() != DefaultSize {
		t.Fatalf("expected Len()==%d, got %d", DefaultSize, c.Len())
	}
}
