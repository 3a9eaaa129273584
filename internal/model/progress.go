package model

import "time"

type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
)

// UserModuleProgress 每个 (用户, 模块) 一条。ProgressPercentage 只是缓存列，读取时按目录重新计算。
type UserModuleProgress struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID             string         `gorm:"size:64;not null;uniqueIndex:idx_progress_user_module" json:"userId"`
	ModuleID           string         `gorm:"size:64;not null;uniqueIndex:idx_progress_user_module" json:"moduleId"`
	Status             ProgressStatus `gorm:"size:20;not null;default:not_started" json:"status"`
	StartedAt          *time.Time     `json:"startedAt"`
	CompletedAt        *time.Time     `json:"completedAt"`
	LastAccessedAt     time.Time      `json:"lastAccessedAt"`
	TimeSpent          int            `gorm:"default:0" json:"timeSpent"` // 秒
	ProgressPercentage float64        `gorm:"default:0" json:"progressPercentage"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`

	CompletedSections  []string         `gorm:"-" json:"completedSections"`
	CompletedExercises []string         `gorm:"-" json:"completedExercises"`
	Bookmarks          []ModuleBookmark `gorm:"-" json:"bookmarks,omitempty"`
	Notes              []ModuleNote     `gorm:"-" json:"notes,omitempty"`
}

func (UserModuleProgress) TableName() string {
	return "user_module_progress"
}

// Touch 刷新访问时间；not_started 时进入 in_progress 并记录开始时间
func (p *UserModuleProgress) Touch(now time.Time) {
	if p.Status == "" || p.Status == StatusNotStarted {
		p.Status = StatusInProgress
		p.StartedAt = &now
	}
	p.LastAccessedAt = now
}

// MarkCompleted 只会生效一次，completed 是终态
func (p *UserModuleProgress) MarkCompleted(now time.Time) bool {
	if p.Status == StatusCompleted {
		return false
	}
	if p.StartedAt == nil {
		p.StartedAt = &now
	}
	p.Status = StatusCompleted
	if p.CompletedAt == nil {
		p.CompletedAt = &now
	}
	return true
}

// Recompute 按目录中的真实小节数刷新百分比
func (p *UserModuleProgress) Recompute(totalSections int) {
	p.ProgressPercentage = ProgressPercentage(len(p.CompletedSections), totalSections)
}

func ProgressPercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// CompletedSection 已完成小节，复合主键保证同一小节只记录一次
type CompletedSection struct {
	UserID    string `gorm:"primaryKey;size:64"`
	ModuleID  string `gorm:"primaryKey;size:64"`
	SectionID string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
}

func (CompletedSection) TableName() string {
	return "progress_completed_sections"
}

type CompletedExercise struct {
	UserID     string `gorm:"primaryKey;size:64"`
	ModuleID   string `gorm:"primaryKey;size:64"`
	ExerciseID string `gorm:"primaryKey;size:64"`
	CreatedAt  time.Time
}

func (CompletedExercise) TableName() string {
	return "progress_completed_exercises"
}

// ProgressOverview 用户在所有模块上的汇总
type ProgressOverview struct {
	TotalModules         int     `json:"totalModules"`
	RequiredModules      int     `json:"requiredModules"`
	NotStarted           int     `json:"notStarted"`
	InProgress           int     `json:"inProgress"`
	Completed            int     `json:"completed"`
	RequiredCompleted    int     `json:"requiredCompleted"`
	TotalTimeSpent       int     `json:"totalTimeSpent"`
	CertificatesIssued   int     `json:"certificatesIssued"`
	ExercisesSubmitted   int     `json:"exercisesSubmitted"`
	CompletionPercentage float64 `json:"completionPercentage"`
}
