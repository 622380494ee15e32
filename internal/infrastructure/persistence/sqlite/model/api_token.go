package model

type APIToken struct {
	TokenHash string  `gorm:"column:token_hash;size:64;primaryKey"`
	UserID    uint64  `gorm:"column:user_id;not null;index"`
	CreatedAt string  `gorm:"column:created_at;size:40;not null"`
	ExpiresAt *string `gorm:"column:expires_at;size:40"`
}

func (APIToken) TableName() string {
	return "api_tokens"
}
