package service

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/db"
)

type Favorites struct {
	gdb    *gorm.DB
	logger *zap.SugaredLogger
}

func NewFavorites(gdb *gorm.DB, logger *zap.SugaredLogger) *Favorites {
	return &Favorites{gdb: gdb, logger: logger}
}

// List returns one page of the caller's favorites, newest first, with the
// sound (tags and uploader included) preloaded for the embedded projection.
func (s *Favorites) List(userID uint64, offset, limit int) ([]db.Favorite, int64, error) {
	q := s.gdb.Model(&db.Favorite{}).Where("user_id = ?", userID)

	var count int64
	if res := q.Count(&count); res.Error != nil {
		return nil, 0, res.Error
	}

	favorites := make([]db.Favorite, 0)
	res := s.gdb.Where("user_id = ?", userID).
		Preload("Sound").Preload("Sound.Tags").Preload("Sound.UploadedBy").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&favorites)
	if res.Error != nil {
		return nil, 0, res.Error
	}
	return favorites, count, nil
}

// Create favorites a sound for the caller. The duplicate pre-check gives the
// friendly error; the composite unique index remains the guard under races.
func (s *Favorites) Create(caller *db.User, soundID uint64) (*db.Favorite, error) {
	if soundID == 0 {
		return nil, ValidationError("Sound ID is required.")
	}

	var count int64
	if res := s.gdb.Model(&db.Sound{}).Where("id = ?", soundID).Count(&count); res.Error != nil {
		return nil, res.Error
	}
	if count == 0 {
		return nil, ValidationError("Sound does not exist.")
	}

	if res := s.gdb.Model(&db.Favorite{}).
		Where("user_id = ? AND sound_id = ?", caller.ID, soundID).
		Count(&count); res.Error != nil {
		return nil, res.Error
	}
	if count > 0 {
		return nil, ValidationError("Sound is already in favorites.")
	}

	favorite := db.Favorite{UserID: caller.ID, SoundID: soundID}
	if res := s.gdb.Create(&favorite); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ValidationError("Sound is already in favorites.")
		}
		return nil, res.Error
	}

	res := s.gdb.Preload("Sound").Preload("Sound.Tags").Preload("Sound.UploadedBy").Preload("User").
		First(&favorite, favorite.ID)
	if res.Error != nil {
		return nil, res.Error
	}
	return &favorite, nil
}

// RemoveBySound deletes the caller's favorite of the given sound.
func (s *Favorites) RemoveBySound(userID, soundID uint64) error {
	favorite := db.Favorite{}
	res := s.gdb.Where("user_id = ? AND sound_id = ?", userID, soundID).First(&favorite)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return NotFoundError("Favorite not found.")
		}
		return res.Error
	}
	if res := s.gdb.Delete(&favorite); res.Error != nil {
		return res.Error
	}
	return nil
}
