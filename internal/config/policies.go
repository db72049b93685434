package config

import "sync/atomic"

// Policies 支持热更新的策略段：自适应阈值、建议引擎档位和会话快照TTL。
// 配置重载时整体换一份快照，读方永远拿到一致的组合。
type Policies struct {
	Adaptive AdaptiveConfig
	Guidance GuidanceConfig
	Session  SessionConfig
}

// PolicyStore 策略快照的发布点。重载 goroutine 写、请求处理 goroutine 读，
// 通过原子指针交换避免在共享 Config 上就地改字段。
type PolicyStore struct {
	v atomic.Pointer[Policies]
}

func NewPolicyStore(cfg *Config) *PolicyStore {
	s := &PolicyStore{}
	s.Store(Policies{
		Adaptive: cfg.Adaptive,
		Guidance: cfg.Guidance,
		Session:  cfg.Session,
	})
	return s
}

// Load 返回当前快照的副本
func (s *PolicyStore) Load() Policies {
	return *s.v.Load()
}

func (s *PolicyStore) Store(p Policies) {
	s.v.Store(&p)
}
