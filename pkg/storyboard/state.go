package storyboard

import "errors"

var (
	// ErrEmptyScript は脚本が空のまま実行されたときに返されるのだ。
	ErrEmptyScript = errors.New("Please enter a script first.")
	// ErrNotTerminal は実行中に Reset しようとしたときに返されます。
	ErrNotTerminal = errors.New("storyboard: pipeline is still running")
	// ErrNotIdle は Reset せずに2回目の Run を始めようとしたときに返されます。
	ErrNotIdle = errors.New("storyboard: pipeline has already run, reset it first")
)

// State はパイプラインの状態なのだ。
type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StateAnalysisFailed
	StateImagesGenerating
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateAnalysisFailed:
		return "analysis_failed"
	case StateImagesGenerating:
		return "images_generating"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// IsTerminal は完了または分解失敗の状態かどうかを返します。
func (s State) IsTerminal() bool {
	return s == StateComplete || s == StateAnalysisFailed
}
