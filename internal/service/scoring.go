package service

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"wellcoach_backend/internal/config"
	"wellcoach_backend/internal/model"
)

// Scorer 按练习类型给提交的回答打分，返回 0-100
type Scorer interface {
	Score(exercise *model.Exercise, responses map[string]any) int
}

// 不计分的记账字段
var bookkeepingFields = map[string]bool{
	"timeSpent":   true,
	"completedAt": true,
}

// CompletionScorer 按非空字段占比打分
type CompletionScorer struct{}

func (CompletionScorer) Score(_ *model.Exercise, responses map[string]any) int {
	earned, total := 0, 0

	// 反思类练习的回答嵌套在 responses.responses 中，只统计其中的字符串字段
	if nested, ok := responses["responses"].(map[string]any); ok {
		for _, v := range nested {
			s, ok := v.(string)
			if !ok {
				continue
			}
			total++
			if strings.TrimSpace(s) != "" {
				earned++
			}
		}
		return percent(earned, total)
	}

	for k, v := range responses {
		if bookkeepingFields[k] {
			continue
		}
		total++
		if answered(v) {
			earned++
		}
	}
	return percent(earned, total)
}

// answered 非空字符串、非空数组或对象、正数，以及其它任何非 nil 值
func answered(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return strings.TrimSpace(rv.String()) != ""
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() > 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() > 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func percent(earned, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(earned) / float64(total)))
}

// AnswerKeyScorer 对照 config.answer_key 判分，忽略大小写和首尾空白。
// 没有答案时使用 Fallback。
type AnswerKeyScorer struct {
	Fallback Scorer
}

func (s AnswerKeyScorer) Score(exercise *model.Exercise, responses map[string]any) int {
	key := answerKey(exercise)
	if len(key) == 0 {
		return s.fallback().Score(exercise, responses)
	}

	answers := responses
	if nested, ok := responses["answers"].(map[string]any); ok {
		answers = nested
	}

	correct := 0
	for q, expected := range key {
		got, ok := answers[q]
		if !ok || got == nil {
			continue
		}
		if normalizeAnswer(got) == normalizeAnswer(expected) {
			correct++
		}
	}
	return percent(correct, len(key))
}

func (s AnswerKeyScorer) fallback() Scorer {
	if s.Fallback == nil {
		return CompletionScorer{}
	}
	return s.Fallback
}

func answerKey(exercise *model.Exercise) map[string]any {
	if exercise == nil || exercise.Config == nil {
		return nil
	}
	key, _ := exercise.Config["answer_key"].(map[string]any)
	return key
}

func normalizeAnswer(v any) string {
	return strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
}

// ScoringRegistry 练习类型到打分器的映射，未注册的类型使用完成度打分
type ScoringRegistry struct {
	mu       sync.RWMutex
	scorers  map[model.ExerciseType]Scorer
	fallback Scorer
}

func NewScoringRegistry() *ScoringRegistry {
	r := &ScoringRegistry{
		scorers:  make(map[model.ExerciseType]Scorer),
		fallback: CompletionScorer{},
	}
	r.Register(model.ExQuiz, AnswerKeyScorer{})
	r.Register(model.ExSelfAssessment, AnswerKeyScorer{})
	return r
}

func (r *ScoringRegistry) Register(t model.ExerciseType, s Scorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorers[t] = s
}

func (r *ScoringRegistry) ScorerFor(exercise *model.Exercise) Scorer {
	if exercise == nil {
		return r.fallback
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.scorers[exercise.Type]; ok {
		return s
	}
	return r.fallback
}

func (r *ScoringRegistry) Score(exercise *model.Exercise, responses map[string]any) int {
	score := r.ScorerFor(exercise).Score(exercise, responses)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

var DefaultFeedbackBands = []config.FeedbackBand{
	{MinScore: 90, Message: "Excellent work! Your thoughtful responses show real engagement with this exercise."},
	{MinScore: 70, Message: "Great job! You've made meaningful progress. Consider adding a little more detail next time."},
	{MinScore: 50, Message: "Good start! Take some extra time with the prompts to get even more out of this exercise."},
	{MinScore: 0, Message: "Exercise completed. Revisit it when you have a quiet moment to get the full benefit."},
}

// FeedbackPolicy 分数段文案，可在配置热更新时整体替换
type FeedbackPolicy struct {
	bands atomic.Pointer[[]config.FeedbackBand]
}

func NewFeedbackPolicy(bands []config.FeedbackBand) *FeedbackPolicy {
	p := &FeedbackPolicy{}
	p.Update(bands)
	return p
}

// Update 空配置恢复默认文案
func (p *FeedbackPolicy) Update(bands []config.FeedbackBand) {
	if len(bands) == 0 {
		bands = DefaultFeedbackBands
	}
	sorted := make([]config.FeedbackBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinScore > sorted[j].MinScore
	})
	p.bands.Store(&sorted)
}

func (p *FeedbackPolicy) Message(score int) string {
	bands := *p.bands.Load()
	for _, b := range bands {
		if score >= b.MinScore {
			return b.Message
		}
	}
	// 低于所有阈值时使用最低档
	return bands[len(bands)-1].Message
}
