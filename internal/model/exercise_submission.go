package model

import (
	"time"

	"gorm.io/datatypes"
)

// ExerciseSubmission 练习提交记录，只追加不修改
type ExerciseSubmission struct {
	UUIDBase
	UserID       string            `gorm:"size:64;not null;index:idx_submission_user_exercise" json:"userId"`
	ModuleID     string            `gorm:"size:64;not null;index" json:"moduleId"`
	SectionID    string            `gorm:"size:64" json:"sectionId"`
	ExerciseID   string            `gorm:"size:64;not null;index:idx_submission_user_exercise" json:"exerciseId"`
	ExerciseType ExerciseType      `gorm:"size:50" json:"exerciseType,omitempty"`
	Responses    datatypes.JSONMap `json:"responses"`
	IsComplete   bool              `gorm:"default:false" json:"isComplete"`
	SubmittedAt  time.Time         `gorm:"index" json:"submittedAt"`
	TimeSpent    int               `gorm:"default:0" json:"timeSpent"`
	Score        int               `gorm:"default:0" json:"score"`
	Feedback     string            `gorm:"type:text" json:"feedback"`
}

func (ExerciseSubmission) TableName() string {
	return "exercise_submissions"
}
