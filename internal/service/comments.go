package service

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/db"
	"github.com/soundvault/soundvault-back/internal/seclog"
)

type Comments struct {
	gdb       *gorm.DB
	logger    *zap.SugaredLogger
	sec       *seclog.Logger
	sanitizer *bluemonday.Policy
}

func NewComments(gdb *gorm.DB, logger *zap.SugaredLogger, sec *seclog.Logger) *Comments {
	return &Comments{
		gdb:    gdb,
		logger: logger,
		sec:    sec,
		// StrictPolicy strips all markup; comments are plain text.
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// List returns one page of comments, newest first, optionally scoped to a
// sound. soundID 0 means unfiltered.
func (s *Comments) List(soundID uint64, offset, limit int) ([]db.Comment, int64, error) {
	q := s.gdb.Model(&db.Comment{})
	if soundID != 0 {
		q = q.Where("sound_id = ?", soundID)
	}

	var count int64
	if res := q.Count(&count); res.Error != nil {
		return nil, 0, res.Error
	}

	comments := make([]db.Comment, 0)
	res := q.Preload("User").
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&comments)
	if res.Error != nil {
		return nil, 0, res.Error
	}
	return comments, count, nil
}

func (s *Comments) Get(id uint64) (*db.Comment, error) {
	comment := db.Comment{}
	res := s.gdb.Preload("User").First(&comment, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("Comment not found.")
		}
		return nil, res.Error
	}
	return &comment, nil
}

func (s *Comments) Create(author *db.User, soundID uint64, content string) (*db.Comment, error) {
	content = s.sanitize(content)
	if content == "" {
		return nil, ValidationError("Content is required.")
	}

	var count int64
	if res := s.gdb.Model(&db.Sound{}).Where("id = ?", soundID).Count(&count); res.Error != nil {
		return nil, res.Error
	}
	if count == 0 {
		return nil, ValidationError("Sound does not exist.")
	}

	comment := db.Comment{
		SoundID: soundID,
		UserID:  author.ID,
		Content: content,
	}
	if res := s.gdb.Create(&comment); res.Error != nil {
		return nil, res.Error
	}
	return s.Get(comment.ID)
}

// Update rewrites a comment's content. Only the original author may do this;
// anyone else gets a permission error even though the row is visible to them.
func (s *Comments) Update(caller *db.User, id uint64, content string) (*db.Comment, error) {
	comment, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != caller.ID {
		s.sec.Warnw("comment update denied", "comment_id", id, "caller_id", caller.ID)
		return nil, PermissionError("You can only edit your own comments.")
	}

	content = s.sanitize(content)
	if content == "" {
		return nil, ValidationError("Content is required.")
	}
	comment.Content = content
	if res := s.gdb.Save(comment); res.Error != nil {
		return nil, res.Error
	}
	return comment, nil
}

func (s *Comments) Delete(caller *db.User, id uint64) error {
	comment, err := s.Get(id)
	if err != nil {
		return err
	}
	if comment.UserID != caller.ID {
		s.sec.Warnw("comment delete denied", "comment_id", id, "caller_id", caller.ID)
		return PermissionError("You can only delete your own comments.")
	}
	if res := s.gdb.Delete(comment); res.Error != nil {
		return res.Error
	}
	return nil
}

// sanitize strips markup before persistence so stored comment text is safe to
// render anywhere.
func (s *Comments) sanitize(content string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(content))
}
