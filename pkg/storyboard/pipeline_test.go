package storyboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/extract"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

// fakeGenerator は分解結果の JSON と、シーンごとの画像生成の成否を制御するのだ。
type fakeGenerator struct {
	mu sync.Mutex

	jsonText string
	jsonErr  error

	// failRef / failPlain に含まれるシーンはその経路で失敗するのだ
	failRef   map[int]error
	failPlain map[int]error

	imageCalls []gemini.ImageRequest
	onImage    func(req gemini.ImageRequest)
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, v any, images ...domain.ImagePayload) error {
	if f.jsonErr != nil {
		return f.jsonErr
	}
	return extract.JSON(f.jsonText, v)
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, req gemini.ImageRequest) (domain.ImagePayload, error) {
	f.mu.Lock()
	f.imageCalls = append(f.imageCalls, req)
	hook := f.onImage
	f.mu.Unlock()
	if hook != nil {
		hook(req)
	}

	id := frameID(req.Prompt)
	withRef := len(req.Images) > 0
	if withRef {
		if err, ok := f.failRef[id]; ok {
			return domain.ImagePayload{}, err
		}
	} else if err, ok := f.failPlain[id]; ok {
		return domain.ImagePayload{}, err
	}
	return domain.ImagePayload{MimeType: "image/png", Data: []byte(fmt.Sprintf("scene-%d-ref-%t", id, withRef))}, nil
}

func frameID(prompt string) int {
	var id int
	_, _ = fmt.Sscanf(prompt, "Storyboard Frame %d.", &id)
	return id
}

func scenesJSON(n int) string {
	scenes := make([]domain.Scene, 0, n)
	for i := n; i >= 1; i-- {
		scenes = append(scenes, domain.Scene{ID: i, Description: fmt.Sprintf("desc %d", i), CameraMovement: "pan"})
	}
	b, _ := json.Marshal(scenes)
	return "Here is the JSON:\n```json\n" + string(b) + "\n```"
}

func newPipeline(gen Generator, progress ProgressFunc) *Pipeline {
	return New(gen, prompts.MustNewBuilder(), Options{OnProgress: progress})
}

func TestRun_ExplicitCount(t *testing.T) {
	gen := &fakeGenerator{jsonText: scenesJSON(4)}
	var percents []int
	p := newPipeline(gen, func(pr Progress) { percents = append(percents, pr.Percent) })

	res, err := p.Run(context.Background(), domain.StoryboardRequest{Script: "A story", SceneCount: 4})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, domain.Scenes(res.Scenes).IDs())
	assert.Equal(t, []int{1, 2, 3, 4}, res.Images.SortedIDs())
	assert.Empty(t, res.Failures)
	assert.Equal(t, domain.AspectWide, res.AspectRatio)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []int{25, 50, 75, 100}, percents)
	assert.Equal(t, StateComplete, p.State())

	// 昇順に1件ずつ呼ばれているのだ
	for i, call := range gen.imageCalls {
		assert.Equal(t, i+1, frameID(call.Prompt))
		assert.Empty(t, call.Images)
	}
}

func TestRun_EmptyScript(t *testing.T) {
	p := newPipeline(&fakeGenerator{}, nil)
	_, err := p.Run(context.Background(), domain.StoryboardRequest{Script: "   "})
	assert.ErrorIs(t, err, ErrEmptyScript)
	assert.Equal(t, "Please enter a script first.", gemini.UserMessage(err))
	assert.Equal(t, StateIdle, p.State())
}

func TestRun_DecompositionFailureSkipsImages(t *testing.T) {
	gen := &fakeGenerator{jsonText: "I cannot help with that."}
	p := newPipeline(gen, nil)

	_, err := p.Run(context.Background(), domain.StoryboardRequest{Script: "A story"})
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrStructuredData)
	assert.Equal(t, StateAnalysisFailed, p.State())
	assert.Empty(t, gen.imageCalls)
}

func TestRun_PartialFailureContinues(t *testing.T) {
	gen := &fakeGenerator{
		jsonText:  scenesJSON(5),
		failPlain: map[int]error{3: fmt.Errorf("generation stopped: %w", gemini.ErrSafetyBlocked)},
	}
	var last Progress
	p := newPipeline(gen, func(pr Progress) { last = pr })

	res, err := p.Run(context.Background(), domain.StoryboardRequest{Script: "A story", SceneCount: 5})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 4, 5}, res.Images.SortedIDs())
	assert.False(t, res.Images.Has(3))
	assert.Contains(t, strings.ToLower(res.Failures[3]), "safety")
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, 5, last.SceneID)
	assert.Len(t, gen.imageCalls, 5)
}

func TestVisualize_ReferenceFallback(t *testing.T) {
	ref := &domain.ImagePayload{MimeType: "image/jpeg", Data: []byte("face")}
	gen := &fakeGenerator{
		failRef:   map[int]error{2: gemini.ErrNoData, 3: gemini.ErrNoData},
		failPlain: map[int]error{3: gemini.ErrNoData},
	}
	p := newPipeline(gen, nil)
	scenes := []domain.Scene{{ID: 1}, {ID: 2}, {ID: 3}}

	frames, err := p.Visualize(context.Background(), scenes, ref, domain.AspectSquare)
	require.NoError(t, err)

	assert.Equal(t, []byte("scene-1-ref-true"), frames.Images[1].Data)
	assert.Equal(t, []byte("scene-2-ref-false"), frames.Images[2].Data)
	assert.False(t, frames.Images.Has(3))
	assert.Equal(t, gemini.MsgNoData, frames.Failures[3])

	// 1: ref, 2: ref→plain, 3: ref→plain
	require.Len(t, gen.imageCalls, 5)
	assert.Contains(t, gen.imageCalls[0].Prompt, prompts.ReferenceInstruction)
	assert.NotContains(t, gen.imageCalls[2].Prompt, prompts.ReferenceInstruction)
	assert.Equal(t, domain.AspectSquare, gen.imageCalls[0].AspectRatio)
}

func TestVisualize_CancelStopsBeforeNextScene(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{}
	gen.onImage = func(req gemini.ImageRequest) {
		if frameID(req.Prompt) == 2 {
			cancel()
		}
	}
	p := newPipeline(gen, nil)

	frames, err := p.Visualize(ctx, []domain.Scene{{ID: 1}, {ID: 2}, {ID: 3}}, nil, domain.AspectWide)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, gen.imageCalls, 2)
	assert.True(t, frames.Images.Has(1))
	assert.False(t, frames.Images.Has(3))
}

func TestVisualize_CooldownBetweenScenes(t *testing.T) {
	const (
		work     = 300 * time.Millisecond
		cooldown = 200 * time.Millisecond
	)
	var starts, ends []time.Time
	gen := &fakeGenerator{}
	gen.onImage = func(req gemini.ImageRequest) {
		starts = append(starts, time.Now())
		time.Sleep(work)
		ends = append(ends, time.Now())
	}
	p := New(gen, prompts.MustNewBuilder(), Options{Cooldown: cooldown})

	begin := time.Now()
	frames, err := p.Visualize(context.Background(), []domain.Scene{{ID: 1}, {ID: 2}, {ID: 3}}, nil, domain.AspectWide)
	elapsed := time.Since(begin)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, frames.Images.SortedIDs())
	require.Len(t, starts, 3)

	t.Run("前のシーンの終了から次のシーンの開始まで待機する", func(t *testing.T) {
		for i := 1; i < len(starts); i++ {
			gap := starts[i].Sub(ends[i-1])
			assert.GreaterOrEqual(t, gap, cooldown, "scene %d と %d の間隔", i, i+1)
		}
	})

	t.Run("最後のシーンの後は待たない", func(t *testing.T) {
		assert.Less(t, elapsed-ends[2].Sub(begin), cooldown)
	})
}

func TestVisualize_CancelDuringCooldown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{}
	gen.onImage = func(req gemini.ImageRequest) {
		if frameID(req.Prompt) == 1 {
			time.AfterFunc(20*time.Millisecond, cancel)
		}
	}
	p := New(gen, prompts.MustNewBuilder(), Options{Cooldown: time.Minute})

	start := time.Now()
	frames, err := p.Visualize(ctx, []domain.Scene{{ID: 1}, {ID: 2}}, nil, domain.AspectWide)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, gen.imageCalls, 1)
	assert.True(t, frames.Images.Has(1))
}

func TestDecompose(t *testing.T) {
	t.Run("ID が欠けていれば振り直すのだ", func(t *testing.T) {
		gen := &fakeGenerator{jsonText: `[{"description":"a"},{"description":"b"}]`}
		p := newPipeline(gen, nil)

		scenes, err := p.Decompose(context.Background(), "script", domain.SceneCountAuto)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, domain.Scenes(scenes).IDs())
		assert.Equal(t, "a", scenes[0].Description)
	})

	t.Run("空の配列は構造エラーなのだ", func(t *testing.T) {
		p := newPipeline(&fakeGenerator{jsonText: "[]"}, nil)
		_, err := p.Decompose(context.Background(), "script", domain.SceneCountAuto)
		assert.ErrorIs(t, err, extract.ErrStructuredData)
	})

	t.Run("範囲外のシーン数は拒否するのだ", func(t *testing.T) {
		p := newPipeline(&fakeGenerator{}, nil)
		_, err := p.Decompose(context.Background(), "script", 11)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("API エラーはそのまま返すのだ", func(t *testing.T) {
		apiErr := errors.New("boom")
		p := newPipeline(&fakeGenerator{jsonErr: apiErr}, nil)
		_, err := p.Decompose(context.Background(), "script", 4)
		assert.ErrorIs(t, err, apiErr)
	})
}

func TestReset(t *testing.T) {
	p := newPipeline(&fakeGenerator{jsonText: scenesJSON(3)}, nil)
	require.NoError(t, p.Reset())

	_, err := p.Run(context.Background(), domain.StoryboardRequest{Script: "A story", SceneCount: 3})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), domain.StoryboardRequest{Script: "A story", SceneCount: 3})
	assert.ErrorIs(t, err, ErrNotIdle)

	require.NoError(t, p.Reset())
	assert.Equal(t, StateIdle, p.State())

	p.state = StateImagesGenerating
	assert.ErrorIs(t, p.Reset(), ErrNotTerminal)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 67, percent(2, 3))
	assert.Equal(t, 100, percent(3, 3))
	assert.Equal(t, 100, percent(0, 0))
}

func TestRunScenes(t *testing.T) {
	gen := &fakeGenerator{failPlain: map[int]error{2: gemini.ErrSafetyBlocked}}
	p := newPipeline(gen, nil)

	scenes := []domain.Scene{
		{ID: 2, Description: "b", CameraMovement: "tilt"},
		{ID: 1, Description: "a", CameraMovement: "pan"},
	}
	res, err := p.RunScenes(context.Background(), scenes, nil, domain.AspectVertical)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, domain.Scenes(res.Scenes).IDs())
	assert.Equal(t, []int{1}, res.Images.SortedIDs())
	assert.Equal(t, gemini.MsgSafety, res.Failures[2])
	assert.Equal(t, domain.AspectVertical, res.AspectRatio)
	assert.Equal(t, StateComplete, p.State())

	_, err = p.RunScenes(context.Background(), scenes, nil, domain.AspectWide)
	assert.ErrorIs(t, err, ErrNotIdle)

	require.NoError(t, p.Reset())
	_, err = p.RunScenes(context.Background(), nil, nil, domain.AspectWide)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
