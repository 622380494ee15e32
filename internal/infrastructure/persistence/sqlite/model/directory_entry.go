package model

type DirectoryEntry struct {
	UserID       uint64  `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	IsSupervisor bool    `gorm:"column:is_supervisor;not null;default:false"`
	SupervisorID *uint64 `gorm:"column:supervisor_id;index"`
	UpdatedAt    string  `gorm:"column:updated_at;size:40;not null"`
}

func (DirectoryEntry) TableName() string {
	return "directory_entries"
}
