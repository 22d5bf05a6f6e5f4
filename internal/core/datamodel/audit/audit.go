package audit

import "time"

// AuditRecord is append-only: no update or delete path exists anywhere in the
// codebase. UserID and FileID are plain strings, not foreign keys, so records
// survive deletion of the user or file they reference.
type AuditRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Seq       int64     `gorm:"column:seq;autoIncrement;uniqueIndex"`
	UserID    string    `gorm:"column:user_id;size:36;index;not null"`
	Action    string    `gorm:"column:action;not null"`
	FileID    *string   `gorm:"column:file_id;size:36"`
	IPAddress string    `gorm:"column:ip_address"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}
