// Package storyboard は脚本から絵コンテを作る2段階のワークフローなのだ。
// 1段目で脚本をシーンに分解し、2段目でシーンごとに1枚ずつ順番に画像を生成するのだ。
package storyboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/extract"
	"github.com/shouni/go-storyboard-kit/pkg/gemini"
	"github.com/shouni/go-storyboard-kit/pkg/prompts"
)

// DefaultCooldown はシーン間に空ける待機時間です。
const DefaultCooldown = 1500 * time.Millisecond

// Generator は生成バックエンドのうち、パイプラインが使う部分なのだ。
// gemini.Client がこれを満たすのだ。
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, v any, images ...domain.ImagePayload) error
	GenerateImage(ctx context.Context, req gemini.ImageRequest) (domain.ImagePayload, error)
}

// Progress は1シーン処理し終えるたびに通知される進捗なのだ。
type Progress struct {
	SceneID int
	Done    int
	Total   int
	Percent int
	Err     error
}

// ProgressFunc は進捗の通知先です。
type ProgressFunc func(Progress)

// Options はパイプラインの挙動を調整します。
type Options struct {
	// Cooldown は前のシーンの終了から次のシーンの開始までの待機時間なのだ。0 以下なら待たないのだ。
	Cooldown time.Duration
	// OnProgress は各シーンの処理後に呼ばれます。
	OnProgress ProgressFunc
}

// Frames は画像生成フェーズの結果なのだ。失敗したシーンは Images に含まれず、Failures に理由が入るのだ。
type Frames struct {
	Images   domain.SceneImageMap
	Failures map[int]string
}

// Result は1回の実行結果全体なのだ。
type Result struct {
	RunID       string               `json:"run_id"`
	Scenes      []domain.Scene       `json:"scenes"`
	Images      domain.SceneImageMap `json:"-"`
	Failures    map[int]string       `json:"failures,omitempty"`
	AspectRatio domain.AspectRatio   `json:"aspect_ratio"`
}

// Pipeline は絵コンテ生成の司令塔です。状態を持つので、1つの実行ごとに Reset が必要なのだ。
type Pipeline struct {
	gen      Generator
	prompts  prompts.StoryboardPrompt
	cooldown time.Duration
	progress ProgressFunc

	mu    sync.Mutex
	state State
}

// New は Pipeline を生成します。
func New(gen Generator, pb prompts.StoryboardPrompt, opts Options) *Pipeline {
	return &Pipeline{
		gen:      gen,
		prompts:  pb,
		cooldown: opts.Cooldown,
		progress: opts.OnProgress,
		state:    StateIdle,
	}
}

// State は現在の状態を返すのだ。
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	prev := p.state
	p.state = s
	p.mu.Unlock()
	slog.Debug("Storyboard state changed", "from", prev.String(), "to", s.String())
}

// Reset は終端状態のパイプラインを Idle に戻します（脚本の編集に戻る操作）。
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle && !p.state.IsTerminal() {
		return fmt.Errorf("%w (state: %s)", ErrNotTerminal, p.state)
	}
	p.state = StateIdle
	return nil
}

// Run は分解と画像生成の両フェーズを実行するのだ。
// 分解に失敗した場合は AnalysisFailed になり、画像生成は一切行わないのだ。
func (p *Pipeline) Run(ctx context.Context, req domain.StoryboardRequest) (*Result, error) {
	if strings.TrimSpace(req.Script) == "" {
		return nil, ErrEmptyScript
	}
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	aspect, err := domain.ParseAspectRatio(string(req.AspectRatio))
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.state != StateIdle {
		state := p.state
		p.mu.Unlock()
		return nil, fmt.Errorf("%w (state: %s)", ErrNotIdle, state)
	}
	p.state = StateAnalyzing
	p.mu.Unlock()

	runID := uuid.NewString()
	logger := slog.With("run_id", runID)
	logger.Info("Storyboard run started", "scene_count", req.SceneCount.String(), "aspect_ratio", aspect, "with_reference", req.Reference != nil)

	scenes, err := p.Decompose(ctx, req.Script, req.SceneCount)
	if err != nil {
		p.setState(StateAnalysisFailed)
		logger.Error("Script decomposition failed", "error", err)
		return nil, err
	}

	p.setState(StateImagesGenerating)
	frames, err := p.Visualize(ctx, scenes, req.Reference, aspect)
	p.setState(StateComplete)

	result := &Result{
		RunID:       runID,
		Scenes:      scenes,
		Images:      frames.Images,
		Failures:    frames.Failures,
		AspectRatio: aspect,
	}
	if err != nil {
		return result, err
	}

	logger.Info("Storyboard run finished", "scenes", len(scenes), "images", len(frames.Images), "failures", len(frames.Failures))
	return result, nil
}

// RunScenes は分解済みのシーンから画像生成フェーズだけを実行するのだ。
// 手直ししたシーン一覧で絵を描き直すときに使うのだ。
func (p *Pipeline) RunScenes(ctx context.Context, scenes []domain.Scene, ref *domain.ImagePayload, aspect domain.AspectRatio) (*Result, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: no scenes to visualize", domain.ErrInvalidRequest)
	}
	aspect, err := domain.ParseAspectRatio(string(aspect))
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.state != StateIdle {
		state := p.state
		p.mu.Unlock()
		return nil, fmt.Errorf("%w (state: %s)", ErrNotIdle, state)
	}
	p.state = StateImagesGenerating
	p.mu.Unlock()

	runID := uuid.NewString()
	ordered := normalizeIDs(scenes).SortByID()
	slog.Info("Storyboard re-render started", "run_id", runID, "scenes", len(ordered), "aspect_ratio", aspect)

	frames, err := p.Visualize(ctx, ordered, ref, aspect)
	p.setState(StateComplete)
	return &Result{
		RunID:       runID,
		Scenes:      ordered,
		Images:      frames.Images,
		Failures:    frames.Failures,
		AspectRatio: aspect,
	}, err
}

// Decompose は脚本を ID 昇順のシーン配列に分解します。
func (p *Pipeline) Decompose(ctx context.Context, script string, count domain.SceneCount) ([]domain.Scene, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}
	if !count.IsAuto() && (count < domain.MinSceneCount || count > domain.MaxSceneCount) {
		return nil, fmt.Errorf("%w: scene count must be between %d and %d", domain.ErrInvalidRequest, domain.MinSceneCount, domain.MaxSceneCount)
	}

	prompt, err := p.prompts.Decomposition(script, count)
	if err != nil {
		return nil, fmt.Errorf("分解プロンプトの構築に失敗しました: %w", err)
	}

	var scenes domain.Scenes
	if err := p.gen.GenerateJSON(ctx, prompt, &scenes); err != nil {
		return nil, err
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("%w: decomposition returned no scenes", extract.ErrStructuredData)
	}

	scenes = normalizeIDs(scenes).SortByID()

	switch {
	case !count.IsAuto() && len(scenes) != int(count):
		slog.Warn("Scene count differs from request", "requested", int(count), "returned", len(scenes))
	case count.IsAuto() && (len(scenes) < domain.AutoSceneMin || len(scenes) > domain.AutoSceneMax):
		slog.Warn("Auto scene count out of expected range", "returned", len(scenes), "min", domain.AutoSceneMin, "max", domain.AutoSceneMax)
	}
	slog.Info("Script decomposed", "scenes", len(scenes), "ids", scenes.IDs())
	return scenes, nil
}

// normalizeIDs は ID が欠けていたり重複していたりする場合に、返却順で 1 から振り直すのだ。
func normalizeIDs(scenes domain.Scenes) domain.Scenes {
	seen := make(map[int]struct{}, len(scenes))
	valid := true
	for _, sc := range scenes {
		if _, dup := seen[sc.ID]; dup || sc.ID <= 0 {
			valid = false
			break
		}
		seen[sc.ID] = struct{}{}
	}
	if valid {
		return scenes
	}

	slog.Warn("Scene ids are missing or duplicated, renumbering in returned order")
	renumbered := make(domain.Scenes, len(scenes))
	for i, sc := range scenes {
		sc.ID = i + 1
		renumbered[i] = sc
	}
	return renumbered
}

// Visualize はシーンを ID 昇順に1枚ずつ生成するのだ。並列化はしないのだ。
// 1シーンの失敗は他のシーンに影響せず、ctx がキャンセルされたら次のシーンに進まずに止まるのだ。
func (p *Pipeline) Visualize(ctx context.Context, scenes []domain.Scene, ref *domain.ImagePayload, aspect domain.AspectRatio) (Frames, error) {
	ordered := domain.Scenes(scenes).SortByID()
	frames := Frames{
		Images:   make(domain.SceneImageMap, len(ordered)),
		Failures: make(map[int]string),
	}
	if len(ordered) == 0 {
		return frames, nil
	}
	if ref != nil && ref.IsEmpty() {
		ref = nil
	}

	total := len(ordered)
	for i, scene := range ordered {
		if err := ctx.Err(); err != nil {
			return frames, err
		}

		img, err := p.visualizeScene(ctx, scene, ref, aspect)
		if err != nil {
			frames.Failures[scene.ID] = gemini.UserMessage(err)
		} else {
			frames.Images[scene.ID] = img
		}

		p.report(Progress{
			SceneID: scene.ID,
			Done:    i + 1,
			Total:   total,
			Percent: percent(i+1, total),
			Err:     err,
		})

		if i < total-1 {
			if err := p.waitCooldown(ctx); err != nil {
				return frames, fmt.Errorf("scene %d の後の待機中に中断されました: %w", scene.ID, err)
			}
		}
	}
	return frames, nil
}

// waitCooldown は前のシーンが終わってから次のシーンを始めるまでの間隔を空けるのだ。
func (p *Pipeline) waitCooldown(ctx context.Context) error {
	if p.cooldown <= 0 {
		return nil
	}
	timer := time.NewTimer(p.cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// visualizeScene は参照画像付きで試し、失敗したら参照なしで1回だけやり直すのだ。
// 2回の呼び出しはそれぞれ独立した再試行予算を持つのだ。
func (p *Pipeline) visualizeScene(ctx context.Context, scene domain.Scene, ref *domain.ImagePayload, aspect domain.AspectRatio) (domain.ImagePayload, error) {
	logger := slog.With("scene_id", scene.ID)
	start := time.Now()

	if ref != nil {
		img, err := p.gen.GenerateImage(ctx, gemini.ImageRequest{
			Prompt:      p.prompts.SceneFrame(scene, aspect, true),
			Images:      []domain.ImagePayload{*ref},
			AspectRatio: aspect,
		})
		if err == nil {
			logger.Info("Scene generated", "with_reference", true, "duration", time.Since(start).Round(time.Millisecond))
			return img, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.ImagePayload{}, err
		}
		logger.Warn("Reference generation failed, falling back to text-only", "error", err)
	}

	img, err := p.gen.GenerateImage(ctx, gemini.ImageRequest{
		Prompt:      p.prompts.SceneFrame(scene, aspect, false),
		AspectRatio: aspect,
	})
	if err != nil {
		logger.Error("Scene generation failed", "with_reference", false, "error", err, "kind", gemini.Classify(err).String())
		return domain.ImagePayload{}, err
	}
	logger.Info("Scene generated", "with_reference", false, "duration", time.Since(start).Round(time.Millisecond))
	return img, nil
}

func (p *Pipeline) report(pr Progress) {
	if p.progress != nil {
		p.progress(pr)
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
