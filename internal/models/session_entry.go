package models

import "time"

// SessionEntry is one key of UI session state. The table is cleared on every startup.
type SessionEntry struct {
	Key       string `gorm:"column:state_key;primaryKey;size:120"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
