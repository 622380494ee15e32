package model

type User struct {
	UserID       uint64 `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username     string `gorm:"column:username;size:150;not null;uniqueIndex"`
	Email        string `gorm:"column:email;size:254;not null;default:''"`
	FullName     string `gorm:"column:full_name;size:255;not null;default:''"`
	PasswordHash string `gorm:"column:password_hash;type:text;not null"`
	CreatedAt    string `gorm:"column:created_at;size:40;not null"`
}

func (User) TableName() string {
	return "users"
}
