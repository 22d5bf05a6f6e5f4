package grant

import "time"

// Grant is unique per (file, grantee); re-sharing replaces the level via an
// upsert on idx_file_grantee rather than inserting a second row.
type Grant struct {
	ID        string    `gorm:"primaryKey;size:36"`
	FileID    string    `gorm:"column:file_id;size:36;not null;uniqueIndex:idx_file_grantee"`
	GranteeID string    `gorm:"column:grantee_id;size:36;not null;uniqueIndex:idx_file_grantee"`
	Level     string    `gorm:"column:level;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Grant) TableName() string {
	return "grants"
}
