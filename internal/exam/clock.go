package exam

// Clock 会话倒计时。自身不读取墙钟，完全由宿主每秒调用一次 Tick 驱动，
// 后台标签页暂停后的补偿由宿主负责。
type Clock struct {
	timed     bool
	duration  int
	remaining int
}

// NewClock durationSeconds 为 0 时时钟惰性：Tick 无效果，Expired 恒为 false
func NewClock(durationSeconds int) *Clock {
	return &Clock{
		timed:     durationSeconds > 0,
		duration:  durationSeconds,
		remaining: durationSeconds,
	}
}

// Tick 扣减一秒，永不降到零以下
func (c *Clock) Tick() {
	if !c.timed || c.remaining == 0 {
		return
	}
	c.remaining--
}

func (c *Clock) Remaining() int {
	return c.remaining
}

func (c *Clock) Timed() bool {
	return c.timed
}

// Expired 仅限时时钟会过期
func (c *Clock) Expired() bool {
	return c.timed && c.remaining == 0
}
