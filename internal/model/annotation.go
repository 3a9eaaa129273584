package model

import "gorm.io/datatypes"

type ModuleBookmark struct {
	UUIDBase
	UserID    string `gorm:"size:64;not null;index:idx_bookmark_user_module" json:"userId"`
	ModuleID  string `gorm:"size:64;not null;index:idx_bookmark_user_module" json:"moduleId"`
	SectionID string `gorm:"size:64;not null" json:"sectionId"`
	ContentID string `gorm:"size:64" json:"contentId,omitempty"`
	Title     string `gorm:"size:255" json:"title,omitempty"`
}

func (ModuleBookmark) TableName() string {
	return "module_bookmarks"
}

type ModuleNote struct {
	UUIDBase
	UserID    string                      `gorm:"size:64;not null;index:idx_note_user_module" json:"userId"`
	ModuleID  string                      `gorm:"size:64;not null;index:idx_note_user_module" json:"moduleId"`
	SectionID string                      `gorm:"size:64" json:"sectionId,omitempty"`
	Content   string                      `gorm:"type:text;not null" json:"content"`
	IsPrivate bool                        `gorm:"not null" json:"isPrivate"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`
}

func (ModuleNote) TableName() string {
	return "module_notes"
}
