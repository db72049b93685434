package exam

import "testing"

func TestAdaptivePolicy_Classify(t *testing.T) {
	p := DefaultAdaptivePolicy()

	tests := []struct {
		name    string
		correct int
		graded  int
		want    Signal
	}{
		{name: "no graded answers defaults to moderate", correct: 0, graded: 0, want: SignalModerate},
		{name: "eight of ten is strong", correct: 8, graded: 10, want: SignalStrong},
		{name: "seven of ten is moderate", correct: 7, graded: 10, want: SignalModerate},
		{name: "four of ten is moderate", correct: 4, graded: 10, want: SignalModerate},
		{name: "three of ten is weak", correct: 3, graded: 10, want: SignalWeak},
		{name: "perfect is strong", correct: 5, graded: 5, want: SignalStrong},
		{name: "zero is weak", correct: 0, graded: 5, want: SignalWeak},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.Classify(tc.correct, tc.graded); got != tc.want {
				t.Errorf("Classify(%d, %d) = %s, want %s", tc.correct, tc.graded, got, tc.want)
			}
		})
	}
}

func TestAdaptivePolicy_Directive(t *testing.T) {
	p := DefaultAdaptivePolicy()

	tests := []struct {
		sig  Signal
		want Directive
	}{
		{sig: SignalStrong, want: DirectiveSkipAhead},
		{sig: SignalModerate, want: DirectiveContinue},
		{sig: SignalWeak, want: DirectiveInsertRemedial},
	}

	for _, tc := range tests {
		if got := p.Directive(tc.sig); got != tc.want {
			t.Errorf("Directive(%s) = %s, want %s", tc.sig, got, tc.want)
		}
	}
}

func TestClock_Countdown(t *testing.T) {
	c := NewClock(3)
	if c.Expired() {
		t.Error("fresh clock already expired")
	}

	c.Tick()
	c.Tick()
	if c.Remaining() != 1 {
		t.Errorf("remaining = %d, want 1", c.Remaining())
	}

	c.Tick()
	if !c.Expired() {
		t.Error("clock not expired at zero")
	}

	// 永不降到零以下
	c.Tick()
	c.Tick()
	if c.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0 (never negative)", c.Remaining())
	}
}

func TestClock_UntimedInert(t *testing.T) {
	c := NewClock(0)
	for i := 0; i < 100; i++ {
		c.Tick()
	}
	if c.Expired() {
		t.Error("untimed clock expired")
	}
	if c.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", c.Remaining())
	}
}
