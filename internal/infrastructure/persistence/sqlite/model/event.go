package model

// ReviewEvent is an append-only audit row; event_id doubles as a feed cursor.
type ReviewEvent struct {
	EventID   uint64 `gorm:"column:event_id;primaryKey;autoIncrement"`
	ReviewID  uint64 `gorm:"column:review_id;not null;index"`
	ActorID   uint64 `gorm:"column:actor_id;not null"`
	Kind      string `gorm:"column:kind;size:20;not null"`
	Note      string `gorm:"column:note;type:text;not null"`
	CreatedAt string `gorm:"column:created_at;size:40;not null"`
}

func (ReviewEvent) TableName() string {
	return "review_events"
}
