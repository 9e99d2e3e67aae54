package db

import (
	"time"
)

type (
	// BaseModel forks gorm.Model: uint64 keys, no soft delete. Rows here are
	// hard-deleted and cascade from their owners.
	BaseModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		BaseModel
		Username  string `gorm:"size:150;uniqueIndex;not null"`
		Email     string `gorm:"size:254;uniqueIndex;not null"`
		Password  string `gorm:"not null"` // bcrypt hash, never the raw value
		IsStaff   bool   `gorm:"not null;default:false"`
		IsActive  bool   `gorm:"not null;default:true"`
		LastLogin *time.Time

		Sounds    []Sound    `gorm:"foreignKey:UploadedByID;constraint:OnDelete:CASCADE"`
		Comments  []Comment  `gorm:"constraint:OnDelete:CASCADE"`
		Favorites []Favorite `gorm:"constraint:OnDelete:CASCADE"`
	}

	Tag struct {
		ID   uint64 `gorm:"primarykey"`
		Name string `gorm:"size:50;uniqueIndex;not null"`

		Sounds []Sound `gorm:"many2many:sound_tags;constraint:OnDelete:CASCADE"`
	}

	Sound struct {
		BaseModel
		Name        string `gorm:"size:200;not null"`
		Description *string
		// Storage-relative references; the file backend itself lives elsewhere.
		MP3File string `gorm:"not null"`
		Image   *string

		UploadedByID uint64 `gorm:"not null;index"`
		UploadedBy   User

		Tags      []Tag      `gorm:"many2many:sound_tags;constraint:OnDelete:CASCADE"`
		Comments  []Comment  `gorm:"constraint:OnDelete:CASCADE"`
		Favorites []Favorite `gorm:"constraint:OnDelete:CASCADE"`
	}

	Comment struct {
		ID        uint64 `gorm:"primarykey"`
		SoundID   uint64 `gorm:"not null;index"`
		UserID    uint64 `gorm:"not null;index"`
		Content   string `gorm:"not null"`
		CreatedAt time.Time

		Sound Sound
		User  User
	}

	// Favorite: one row per (user, sound) pair, enforced by the composite
	// unique index.
	Favorite struct {
		ID        uint64 `gorm:"primarykey"`
		UserID    uint64 `gorm:"not null;uniqueIndex:uidx_user_sound"`
		SoundID   uint64 `gorm:"not null;uniqueIndex:uidx_user_sound"`
		CreatedAt time.Time

		User  User
		Sound Sound
	}

	// BlacklistedToken records revoked refresh-token JTIs until their natural
	// expiry, after which PurgeExpired may drop them.
	BlacklistedToken struct {
		ID            uint64 `gorm:"primarykey"`
		JTI           string `gorm:"size:36;uniqueIndex;not null"`
		UserID        uint64 `gorm:"not null;index"`
		ExpiresAt     time.Time `gorm:"not null"`
		BlacklistedAt time.Time `gorm:"autoCreateTime"`
	}
)
