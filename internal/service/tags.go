package service

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/db"
)

type Tags struct {
	gdb    *gorm.DB
	logger *zap.SugaredLogger
}

func NewTags(gdb *gorm.DB, logger *zap.SugaredLogger) *Tags {
	return &Tags{gdb: gdb, logger: logger}
}

// List returns one page of tags ordered by name, optionally filtered by a
// case-insensitive name substring.
func (s *Tags) List(search string, offset, limit int) ([]db.Tag, int64, error) {
	q := s.gdb.Model(&db.Tag{})
	if search != "" {
		q = q.Where("LOWER(name) LIKE ?", contains(search))
	}

	var count int64
	if res := q.Count(&count); res.Error != nil {
		return nil, 0, res.Error
	}

	tags := make([]db.Tag, 0)
	res := q.Order("name ASC").Offset(offset).Limit(limit).Find(&tags)
	if res.Error != nil {
		return nil, 0, res.Error
	}
	return tags, count, nil
}

func (s *Tags) Get(id uint64) (*db.Tag, error) {
	tag := db.Tag{}
	res := s.gdb.First(&tag, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("Tag not found.")
		}
		return nil, res.Error
	}
	return &tag, nil
}

func (s *Tags) Create(name string) (*db.Tag, error) {
	if name == "" {
		return nil, ValidationError("Name is required.")
	}
	tag := db.Tag{Name: name}
	if res := s.gdb.Create(&tag); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ValidationError("Tag with this name already exists.")
		}
		return nil, res.Error
	}
	return &tag, nil
}

func (s *Tags) Update(id uint64, name string) (*db.Tag, error) {
	if name == "" {
		return nil, ValidationError("Name is required.")
	}
	tag, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	tag.Name = name
	if res := s.gdb.Save(tag); res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ValidationError("Tag with this name already exists.")
		}
		return nil, res.Error
	}
	return tag, nil
}

func (s *Tags) Delete(id uint64) error {
	tag, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.gdb.Model(tag).Association("Sounds").Clear(); err != nil {
		return errors.Wrap(err, "clear sounds")
	}
	if res := s.gdb.Delete(tag); res.Error != nil {
		return res.Error
	}
	return nil
}
