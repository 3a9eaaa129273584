package model

import "slices"

// 模块目录是只读的参考数据，从 YAML 加载，不落库

type ExerciseType string

const (
	ExReflection          ExerciseType = "reflection"
	ExJournaling          ExerciseType = "journaling"
	ExSelfAssessment      ExerciseType = "self_assessment"
	ExQuiz                ExerciseType = "quiz"
	ExBreathing           ExerciseType = "breathing"
	ExBodyScan            ExerciseType = "body_scan"
	ExMindfulness         ExerciseType = "mindfulness"
	ExGratitude           ExerciseType = "gratitude"
	ExGoalSetting         ExerciseType = "goal_setting"
	ExActionPlan          ExerciseType = "action_plan"
	ExHabitTracker        ExerciseType = "habit_tracker"
	ExMoodCheckIn         ExerciseType = "mood_check_in"
	ExCognitiveReframe    ExerciseType = "cognitive_reframe"
	ExValuesClarification ExerciseType = "values_clarification"
	ExStrengthsInventory  ExerciseType = "strengths_inventory"
	ExScenario            ExerciseType = "scenario"
	ExVisualization       ExerciseType = "visualization"
	ExSleepDiary          ExerciseType = "sleep_diary"
	ExEnergyAudit         ExerciseType = "energy_audit"
	ExBoundarySetting     ExerciseType = "boundary_setting"
)

var exerciseTypes = map[ExerciseType]bool{
	ExReflection: true, ExJournaling: true, ExSelfAssessment: true, ExQuiz: true,
	ExBreathing: true, ExBodyScan: true, ExMindfulness: true, ExGratitude: true,
	ExGoalSetting: true, ExActionPlan: true, ExHabitTracker: true, ExMoodCheckIn: true,
	ExCognitiveReframe: true, ExValuesClarification: true, ExStrengthsInventory: true, ExScenario: true,
	ExVisualization: true, ExSleepDiary: true, ExEnergyAudit: true, ExBoundarySetting: true,
}

func (t ExerciseType) Valid() bool {
	return exerciseTypes[t]
}

type ContentKind string

const (
	ContentText    ContentKind = "text"
	ContentVideo   ContentKind = "video"
	ContentAudio   ContentKind = "audio"
	ContentImage   ContentKind = "image"
	ContentCallout ContentKind = "callout"
)

type ResourceKind string

const (
	ResourcePDF       ResourceKind = "pdf"
	ResourceWorksheet ResourceKind = "worksheet"
	ResourceAudio     ResourceKind = "audio"
	ResourceVideo     ResourceKind = "video"
	ResourceLink      ResourceKind = "link"
)

// TrainingModule 训练模块，EstimatedDuration 单位为分钟
type TrainingModule struct {
	ID                string           `yaml:"id" json:"id"`
	Number            int              `yaml:"number" json:"number"`
	Title             string           `yaml:"title" json:"title"`
	Description       string           `yaml:"description" json:"description"`
	EstimatedDuration int              `yaml:"estimated_duration" json:"estimatedDuration"`
	Required          bool             `yaml:"required" json:"required"`
	Prerequisites     []string         `yaml:"prerequisites" json:"prerequisites"`
	Sections          []ModuleSection  `yaml:"sections" json:"sections"`
	Resources         []ModuleResource `yaml:"resources" json:"resources"`
}

func (m *TrainingModule) TotalSections() int {
	return len(m.Sections)
}

func (m *TrainingModule) TotalExercises() int {
	total := 0
	for _, s := range m.Sections {
		total += len(s.Exercises)
	}
	return total
}

// FindExercise 在模块的所有小节中查找练习
func (m *TrainingModule) FindExercise(exerciseID string) (*Exercise, *ModuleSection, bool) {
	for i := range m.Sections {
		sec := &m.Sections[i]
		for j := range sec.Exercises {
			if sec.Exercises[j].ID == exerciseID {
				return &sec.Exercises[j], sec, true
			}
		}
	}
	return nil, nil, false
}

func (m *TrainingModule) HasSection(sectionID string) bool {
	for _, s := range m.Sections {
		if s.ID == sectionID {
			return true
		}
	}
	return false
}

// KnownSections 只保留属于本模块的小节 id，目录调整后遗留的记录不计入进度
func (m *TrainingModule) KnownSections(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if m.HasSection(id) {
			out = append(out, id)
		}
	}
	return out
}

// KnownExercises 只保留目录中存在的练习 id
func (m *TrainingModule) KnownExercises(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, _, ok := m.FindExercise(id); ok {
			out = append(out, id)
		}
	}
	return out
}

// Clone 深拷贝，调用方修改副本不影响目录
func (m *TrainingModule) Clone() TrainingModule {
	c := *m
	c.Prerequisites = slices.Clone(m.Prerequisites)
	c.Resources = slices.Clone(m.Resources)
	if m.Sections != nil {
		sections := make([]ModuleSection, len(m.Sections))
		for i, sec := range m.Sections {
			sec.Content = slices.Clone(sec.Content)
			if sec.Exercises != nil {
				exercises := make([]Exercise, len(sec.Exercises))
				for j, ex := range sec.Exercises {
					if ex.Config != nil {
						ex.Config = cloneValue(ex.Config).(map[string]any)
					}
					exercises[j] = ex
				}
				sec.Exercises = exercises
			}
			sections[i] = sec
		}
		c.Sections = sections
	}
	return c
}

// cloneValue 复制 YAML 解出的嵌套 map 和切片
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func (m *TrainingModule) FindResource(resourceID string) (*ModuleResource, bool) {
	for i := range m.Resources {
		if m.Resources[i].ID == resourceID {
			return &m.Resources[i], true
		}
	}
	return nil, false
}

type ModuleSection struct {
	ID                string        `yaml:"id" json:"id"`
	ModuleID          string        `yaml:"-" json:"moduleId"`
	Order             int           `yaml:"order" json:"order"`
	Title             string        `yaml:"title" json:"title"`
	Content           []ContentItem `yaml:"content" json:"content"`
	Exercises         []Exercise    `yaml:"exercises" json:"exercises"`
	EstimatedDuration int           `yaml:"estimated_duration" json:"estimatedDuration"`
	Required          bool          `yaml:"required" json:"required"`
}

type ContentItem struct {
	ID    string      `yaml:"id" json:"id"`
	Kind  ContentKind `yaml:"kind" json:"kind"`
	Title string      `yaml:"title" json:"title,omitempty"`
	Body  string      `yaml:"body" json:"body,omitempty"`
	URL   string      `yaml:"url" json:"url,omitempty"`
}

type Exercise struct {
	ID                string         `yaml:"id" json:"id"`
	SectionID         string         `yaml:"-" json:"sectionId"`
	Type              ExerciseType   `yaml:"type" json:"type"`
	Title             string         `yaml:"title" json:"title"`
	Instructions      string         `yaml:"instructions" json:"instructions"`
	EstimatedDuration int            `yaml:"estimated_duration" json:"estimatedDuration"`
	Required          bool           `yaml:"required" json:"required"`
	Config            map[string]any `yaml:"config" json:"config,omitempty"`
}

type ModuleResource struct {
	ID          string       `yaml:"id" json:"id"`
	Title       string       `yaml:"title" json:"title"`
	Kind        ResourceKind `yaml:"kind" json:"kind"`
	URL         string       `yaml:"url" json:"url"`
	Description string       `yaml:"description" json:"description,omitempty"`
}
