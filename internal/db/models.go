package db

// ActionHistory is one executed command as seen by the dispatcher.
type ActionHistory struct {
	ID              int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Character       string `gorm:"column:character;not null"`
	CommandID       string `gorm:"column:command_id;not null;default:''"`
	Kind            string `gorm:"column:kind;not null;default:''"`
	Label           string `gorm:"column:label;not null;default:''"`
	Outcome         string `gorm:"column:outcome;not null;default:''"`
	Error           string `gorm:"column:error;not null;default:''"`
	Reason          string `gorm:"column:reason;not null;default:''"`
	CooldownSeconds int    `gorm:"column:cooldown_seconds;not null;default:0"`
	StartedAt       int64  `gorm:"column:started_at;not null;default:0"`
	FinishedAt      int64  `gorm:"column:finished_at;not null;default:0"`
}

func (ActionHistory) TableName() string { return "action_history" }
