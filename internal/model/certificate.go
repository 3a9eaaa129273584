package model

import (
	"time"

	"gorm.io/datatypes"
)

// ModuleCertificate 每个 (用户, 模块) 只有一张
type ModuleCertificate struct {
	UUIDBase
	UserID            string                                  `gorm:"size:64;not null;uniqueIndex:idx_certificate_user_module" json:"userId"`
	ModuleID          string                                  `gorm:"size:64;not null;uniqueIndex:idx_certificate_user_module" json:"moduleId"`
	CertificateNumber string                                  `gorm:"size:64;not null;uniqueIndex" json:"certificateNumber"`
	IssuedAt          time.Time                               `json:"issuedAt"`
	Metadata          datatypes.JSONType[CertificateMetadata] `json:"metadata"`
	FileURL           string                                  `gorm:"size:500" json:"fileUrl,omitempty"`
}

func (ModuleCertificate) TableName() string {
	return "module_certificates"
}

type CertificateMetadata struct {
	ModuleTitle        string     `json:"moduleTitle"`
	ModuleNumber       int        `json:"moduleNumber"`
	RecipientName      string     `json:"recipientName,omitempty"`
	CompletionTime     int        `json:"completionTime"` // 秒
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	ExercisesCompleted int        `json:"exercisesCompleted"`
	TotalExercises     int        `json:"totalExercises"`
	SectionsCompleted  int        `json:"sectionsCompleted"`
	TotalSections      int        `json:"totalSections"`
}
