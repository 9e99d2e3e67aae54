package service

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/soundvault/soundvault-back/internal/db"
)

type (
	Sounds struct {
		gdb    *gorm.DB
		logger *zap.SugaredLogger
	}

	// SoundQuery carries the list-endpoint filters. Ordering accepts
	// created_at, -created_at, name, -name; anything else falls back to the
	// default (newest first).
	SoundQuery struct {
		Tag      string
		Search   string
		Ordering string
	}

	// SoundUpdate applies a partial update; nil fields stay unchanged.
	SoundUpdate struct {
		Name        *string
		Description *string
		MP3File     *string
		Image       *string
		Tags        *[]uint64
	}
)

func NewSounds(gdb *gorm.DB, logger *zap.SugaredLogger) *Sounds {
	return &Sounds{gdb: gdb, logger: logger}
}

var soundOrderings = map[string]string{
	"created_at":  "s.created_at ASC, s.id ASC",
	"-created_at": "s.created_at DESC, s.id DESC",
	"name":        "s.name ASC, s.id ASC",
	"-name":       "s.name DESC, s.id DESC",
}

// List returns one page of sounds plus the total match count. Search matches
// case-insensitive substrings of name, description and tag names; Tag matches
// tag names only.
func (s *Sounds) List(q SoundQuery, offset, limit int) ([]db.Sound, int64, error) {
	b := squirrel.
		Select("s.id").From("sounds s").
		LeftJoin("sound_tags st ON s.id = st.sound_id").
		LeftJoin("tags t ON st.tag_id = t.id").
		GroupBy("s.id")

	if q.Tag != "" {
		b = b.Where("LOWER(t.name) LIKE ?", contains(q.Tag))
	}
	if q.Search != "" {
		p := contains(q.Search)
		b = b.Where(squirrel.Or{
			squirrel.Expr("LOWER(s.name) LIKE ?", p),
			squirrel.Expr("LOWER(COALESCE(s.description, '')) LIKE ?", p),
			squirrel.Expr("LOWER(COALESCE(t.name, '')) LIKE ?", p),
		})
	}

	orderBy, ok := soundOrderings[q.Ordering]
	if !ok {
		orderBy = soundOrderings["-created_at"]
	}
	b = b.OrderBy(orderBy)

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, 0, errors.Wrap(err, "build sql")
	}

	ids := make([]uint64, 0)
	if res := s.gdb.Raw(sql, args...).Scan(&ids); res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "scan ids")
	}

	count := int64(len(ids))
	if offset >= len(ids) {
		return []db.Sound{}, count, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	page := ids[offset:end]

	sounds := make([]db.Sound, 0, len(page))
	res := s.gdb.Preload("Tags").Preload("UploadedBy").Where("id IN ?", page).Find(&sounds)
	if res.Error != nil {
		return nil, 0, errors.Wrap(res.Error, "load sounds")
	}

	// Find does not preserve the IN order; restore it.
	byID := make(map[uint64]db.Sound, len(sounds))
	for _, snd := range sounds {
		byID[snd.ID] = snd
	}
	ordered := make([]db.Sound, 0, len(page))
	for _, id := range page {
		if snd, ok := byID[id]; ok {
			ordered = append(ordered, snd)
		}
	}
	return ordered, count, nil
}

func (s *Sounds) Get(id uint64) (*db.Sound, error) {
	sound := db.Sound{}
	res := s.gdb.Preload("Tags").Preload("UploadedBy").First(&sound, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("Sound not found.")
		}
		return nil, res.Error
	}
	return &sound, nil
}

// RecentComments returns the newest comments on a sound, author preloaded.
func (s *Sounds) RecentComments(soundID uint64, limit int) ([]db.Comment, error) {
	comments := make([]db.Comment, 0)
	res := s.gdb.Preload("User").
		Where("sound_id = ?", soundID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&comments)
	if res.Error != nil {
		return nil, res.Error
	}
	return comments, nil
}

func (s *Sounds) FavoriteCount(soundID uint64) (int64, error) {
	var count int64
	res := s.gdb.Model(&db.Favorite{}).Where("sound_id = ?", soundID).Count(&count)
	if res.Error != nil {
		return 0, res.Error
	}
	return count, nil
}

// FavoritedSet reports which of the given sounds the user has favorited, in
// one query, for the list view's is_favorite flag.
func (s *Sounds) FavoritedSet(userID uint64, soundIDs []uint64) (map[uint64]bool, error) {
	set := make(map[uint64]bool, len(soundIDs))
	if userID == 0 || len(soundIDs) == 0 {
		return set, nil
	}
	favorited := make([]uint64, 0)
	res := s.gdb.Model(&db.Favorite{}).
		Where("user_id = ? AND sound_id IN ?", userID, soundIDs).
		Pluck("sound_id", &favorited)
	if res.Error != nil {
		return nil, res.Error
	}
	for _, id := range favorited {
		set[id] = true
	}
	return set, nil
}

// Create stores a new sound. The owner always comes from the authenticated
// caller, never from the payload.
func (s *Sounds) Create(owner *db.User, name string, description *string, mp3File string, image *string, tagIDs []uint64) (*db.Sound, error) {
	if name == "" || mp3File == "" {
		return nil, ValidationError("Name and mp3_file are required.")
	}
	tags, err := s.loadTags(tagIDs)
	if err != nil {
		return nil, err
	}

	sound := db.Sound{
		Name:         name,
		Description:  description,
		MP3File:      mp3File,
		Image:        image,
		UploadedByID: owner.ID,
		Tags:         tags,
	}
	if res := s.gdb.Create(&sound); res.Error != nil {
		return nil, res.Error
	}
	return s.Get(sound.ID)
}

func (s *Sounds) Update(id uint64, in SoundUpdate) (*db.Sound, error) {
	sound := db.Sound{}
	res := s.gdb.First(&sound, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("Sound not found.")
		}
		return nil, res.Error
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, ValidationError("Name must not be empty.")
		}
		sound.Name = *in.Name
	}
	if in.Description != nil {
		sound.Description = in.Description
	}
	if in.MP3File != nil {
		if *in.MP3File == "" {
			return nil, ValidationError("mp3_file must not be empty.")
		}
		sound.MP3File = *in.MP3File
	}
	if in.Image != nil {
		sound.Image = in.Image
	}

	if res := s.gdb.Save(&sound); res.Error != nil {
		return nil, res.Error
	}

	if in.Tags != nil {
		tags, err := s.loadTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		if err := s.gdb.Model(&sound).Association("Tags").Replace(tags); err != nil {
			return nil, errors.Wrap(err, "replace tags")
		}
	}
	return s.Get(sound.ID)
}

func (s *Sounds) Delete(id uint64) error {
	sound := db.Sound{}
	res := s.gdb.First(&sound, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return NotFoundError("Sound not found.")
		}
		return res.Error
	}
	if err := s.gdb.Model(&sound).Association("Tags").Clear(); err != nil {
		return errors.Wrap(err, "clear tags")
	}
	if res := s.gdb.Delete(&sound); res.Error != nil {
		return res.Error
	}
	return nil
}

func (s *Sounds) loadTags(tagIDs []uint64) ([]db.Tag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	tags := make([]db.Tag, 0, len(tagIDs))
	res := s.gdb.Where("id IN ?", tagIDs).Find(&tags)
	if res.Error != nil {
		return nil, res.Error
	}
	if len(tags) != len(dedupe(tagIDs)) {
		return nil, ValidationError("One or more tags do not exist.")
	}
	return tags, nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func contains(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
