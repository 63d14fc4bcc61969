package tokenizer

import "testing"

func newCounter(t *testing.T) Counter {
	t.Helper()
	c, err := New()
	if err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}
	return c
}

func TestCountEmpty(t *testing.T) {
	c := newCounter(t)
	if got := c.Count(""); got != 0 {
		t.Fatalf("empty count: want=0 got=%d", got)
	}
}

func TestCountMonotonic(t *testing.T) {
	c := newCounter(t)
	short := c.Count("photosynthesis converts light energy")
	long := c.Count("photosynthesis converts light energy into chemical energy stored in glucose")
	if short <= 0 {
		t.Fatalf("short count: want>0 got=%d", short)
	}
	if long <= short {
		t.Fatalf("longer text should count more tokens: short=%d long=%d", short, long)
	}
}
