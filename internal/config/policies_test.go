package config

import (
	"sync"
	"testing"
)

func testConfig() *Config {
	return &Config{
		Adaptive: AdaptiveConfig{StrongRatio: 0.8, WeakRatio: 0.4, SkipStep: 2},
		Guidance: GuidanceConfig{BandPoor: 40, BandFair: 60, BandGood: 80, FocusTopics: 3, TrendWindow: 5, TrendDelta: 5, WeakSubjectCutoff: 60},
		Session:  SessionConfig{SnapshotTTLMinutes: 240},
	}
}

func TestPolicyStoreLoadReflectsStore(t *testing.T) {
	store := NewPolicyStore(testConfig())

	got := store.Load()
	if got.Adaptive.StrongRatio != 0.8 || got.Guidance.BandPoor != 40 || got.Session.SnapshotTTLMinutes != 240 {
		t.Fatalf("initial snapshot = %+v", got)
	}

	next := got
	next.Adaptive.SkipStep = 3
	next.Guidance.BandPoor = 50
	store.Store(next)

	got = store.Load()
	if got.Adaptive.SkipStep != 3 {
		t.Errorf("Adaptive.SkipStep = %d, want 3", got.Adaptive.SkipStep)
	}
	if got.Guidance.BandPoor != 50 {
		t.Errorf("Guidance.BandPoor = %d, want 50", got.Guidance.BandPoor)
	}
}

// 重载 goroutine 持续发布新快照，并发读方必须始终读到某一份完整的
// 快照，而不是半新半旧的字段组合。
func TestPolicyStoreConcurrentReload(t *testing.T) {
	store := NewPolicyStore(testConfig())

	const writes = 1000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= writes; i++ {
			store.Store(Policies{
				Adaptive: AdaptiveConfig{StrongRatio: 0.8, WeakRatio: 0.4, SkipStep: i},
				Guidance: GuidanceConfig{BandPoor: i, BandFair: i, BandGood: i, FocusTopics: 3, TrendWindow: 5, TrendDelta: 5, WeakSubjectCutoff: 60},
				Session:  SessionConfig{SnapshotTTLMinutes: i},
			})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < writes; i++ {
				p := store.Load()
				// 同一快照内的档位字段总是成组更新
				if p.Guidance.BandPoor != p.Guidance.BandFair || p.Guidance.BandFair != p.Guidance.BandGood {
					t.Errorf("torn snapshot: %+v", p.Guidance)
					return
				}
			}
		}()
	}

	wg.Wait()
}
