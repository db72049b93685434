package exam

// 自适应出题的三档信号与对应动作。阈值是策略配置，不是分支里的魔法数字，
// 便于单独测试切分逻辑。
type Signal string

const (
	SignalStrong   Signal = "strong"
	SignalModerate Signal = "moderate"
	SignalWeak     Signal = "weak"
)

type Directive string

const (
	DirectiveSkipAhead      Directive = "skip_ahead"
	DirectiveContinue       Directive = "continue"
	DirectiveInsertRemedial Directive = "insert_remedial"
)

// AdaptivePolicy 三档规则表：正确率 >= StrongRatio 判强，< WeakRatio 判弱，
// 其余为中等。强则向前跳 SkipStep 步，弱则插入补救题，中等顺序前进。
type AdaptivePolicy struct {
	StrongRatio float64 `json:"strongRatio"`
	WeakRatio   float64 `json:"weakRatio"`
	SkipStep    int     `json:"skipStep"`
}

// DefaultAdaptivePolicy 源自课程模块的 8/10 强、4/10 弱规则
func DefaultAdaptivePolicy() AdaptivePolicy {
	return AdaptivePolicy{
		StrongRatio: 0.8,
		WeakRatio:   0.4,
		SkipStep:    2,
	}
}

// Classify 按已判分作答的正确率给出信号；尚无作答时视为中等
func (p AdaptivePolicy) Classify(correct, graded int) Signal {
	if graded == 0 {
		return SignalModerate
	}
	ratio := float64(correct) / float64(graded)
	switch {
	case ratio >= p.StrongRatio:
		return SignalStrong
	case ratio < p.WeakRatio:
		return SignalWeak
	default:
		return SignalModerate
	}
}

func (p AdaptivePolicy) Directive(sig Signal) Directive {
	switch sig {
	case SignalStrong:
		return DirectiveSkipAhead
	case SignalWeak:
		return DirectiveInsertRemedial
	default:
		return DirectiveContinue
	}
}
