package model

import "time"

// ResourceDownload 资源下载埋点，写入失败不影响主流程
type ResourceDownload struct {
	BaseModel
	UserID       string `gorm:"size:64;index"`
	ModuleID     string `gorm:"size:64;index"`
	ResourceID   string `gorm:"size:64"`
	DownloadedAt time.Time
}

func (ResourceDownload) TableName() string {
	return "resource_downloads"
}
