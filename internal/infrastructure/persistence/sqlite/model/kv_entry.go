package model

type KVEntry struct {
	Key       string  `gorm:"column:cache_key;size:191;primaryKey"`
	Value     string  `gorm:"column:value;type:text;not null"`
	ExpiresAt *string `gorm:"column:expires_at;size:40"`
	UpdatedAt string  `gorm:"column:updated_at;size:40;not null"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
