package file

import "time"

// File rows are immutable after creation except for deletion. StorageKey is
// the opaque blob key; it is never derived from OriginalName.
type File struct {
	ID           string    `gorm:"primaryKey;size:36"`
	OriginalName string    `gorm:"column:original_name;not null"`
	StorageKey   string    `gorm:"column:storage_key;uniqueIndex;not null"`
	FileSize     int64     `gorm:"column:file_size;not null"`
	ContentType  string    `gorm:"column:content_type;not null"`
	HashSHA256   string    `gorm:"column:hash_sha256;size:64;not null"`
	OwnerID      string    `gorm:"column:owner_id;size:36;index;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (File) TableName() string {
	return "files"
}
