package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/soundvault-back/internal/db"
)

func soundNames(sounds []db.Sound) []string {
	names := make([]string, 0, len(sounds))
	for _, snd := range sounds {
		names = append(names, snd.Name)
	}
	return names
}

func TestSoundListFilters(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice", false)
	nature := f.createTag(t, "Nature")
	urban := f.createTag(t, "Urban")

	f.createSound(t, owner, "rainstorm", nature)
	f.createSound(t, owner, "traffic", urban)
	f.createSound(t, owner, "birdsong", nature, urban)

	// Tag filter matches case-insensitive substrings of the tag name.
	sounds, count, err := f.sounds.List(SoundQuery{Tag: "nat"}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.ElementsMatch(t, []string{"rainstorm", "birdsong"}, soundNames(sounds))

	// Search spans name, description and tag names.
	sounds, count, err = f.sounds.List(SoundQuery{Search: "RAIN"}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, []string{"rainstorm"}, soundNames(sounds))

	sounds, count, err = f.sounds.List(SoundQuery{Search: "urban"}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.ElementsMatch(t, []string{"traffic", "birdsong"}, soundNames(sounds))

	_, count, err = f.sounds.List(SoundQuery{Search: "nothing matches this"}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestSoundListSearchesDescription(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice", false)

	desc := "Gentle waves on a pebble beach"
	_, err := f.sounds.Create(owner, "seaside", &desc, "sounds/mp3/seaside.mp3", nil, nil)
	require.NoError(t, err)
	f.createSound(t, owner, "forest")

	sounds, count, err := f.sounds.List(SoundQuery{Search: "pebble"}, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, []string{"seaside"}, soundNames(sounds))
}

func TestSoundListOrdering(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice", false)
	f.createSound(t, owner, "bravo")
	f.createSound(t, owner, "alpha")
	f.createSound(t, owner, "charlie")

	sounds, _, err := f.sounds.List(SoundQuery{Ordering: "name"}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, soundNames(sounds))

	sounds, _, err = f.sounds.List(SoundQuery{Ordering: "-name"}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "bravo", "alpha"}, soundNames(sounds))

	// Unknown ordering falls back to newest first.
	sounds, _, err = f.sounds.List(SoundQuery{Ordering: "bogus"}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "alpha", "bravo"}, soundNames(sounds))
}

func TestSoundListPagination(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice", false)
	f.createSound(t, owner, "one")
	f.createSound(t, owner, "two")
	f.createSound(t, owner, "three")

	sounds, count, err := f.sounds.List(SoundQuery{Ordering: "created_at"}, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Equal(t, []string{"one", "two"}, soundNames(sounds))

	sounds, count, err = f.sounds.List(SoundQuery{Ordering: "created_at"}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Equal(t, []string{"three"}, soundNames(sounds))

	sounds, count, err = f.sounds.List(SoundQuery{Ordering: "created_at"}, 10, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Empty(t, sounds)
}

func TestSoundCreate(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice", false)
	nature := f.createTag(t, "Nature")

	desc := "A thunderstorm at night"
	sound, err := f.sounds.Create(owner, "storm", &desc, "sounds/mp3/storm.mp3", nil, []uint64{nature.ID})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, sound.UploadedByID)
	assert.Equal(t, "alice", sound.UploadedBy.Username)
	require.Len(t, sound.Tags, 1)
	assert.Equal(t, "Nature", sound.Tags[0].Name)

	_, err = f.sounds.Create(owner, "", nil, "sounds/mp3/x.mp3", nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.sounds.Create(owner, "no file", nil, "", nil, nil)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.sounds.Create(owner, "bad tags", nil, "sounds/mp3/y.mp3", nil, []uint64{nature.ID, 9999})
	require.Error(t, err)
	assert.Equal(t, "One or more tags do not exist.", err.Error())
}

func TestSoundUpdateIsPartial(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice", false)
	nature := f.createTag(t, "Nature")
	urban := f.createTag(t, "Urban")
	sound := f.createSound(t, owner, "storm", nature)

	name := "renamed storm"
	updated, err := f.sounds.Update(sound.ID, SoundUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed storm", updated.Name)
	assert.Equal(t, sound.MP3File, updated.MP3File)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "Nature", updated.Tags[0].Name)

	tags := []uint64{urban.ID}
	updated, err = f.sounds.Update(sound.ID, SoundUpdate{Tags: &tags})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "Urban", updated.Tags[0].Name)

	empty := ""
	_, err = f.sounds.Update(sound.ID, SoundUpdate{Name: &empty})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = f.sounds.Update(99999, SoundUpdate{Name: &name})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSoundDelete(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "alice", false)
	nature := f.createTag(t, "Nature")
	sound := f.createSound(t, owner, "storm", nature)

	require.NoError(t, f.sounds.Delete(sound.ID))

	_, err := f.sounds.Get(sound.ID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))

	// The tag itself survives.
	_, err = f.tags.Get(nature.ID)
	require.NoError(t, err)

	err = f.sounds.Delete(sound.ID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestFavoritedSet(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice", false)
	bob := f.createUser(t, "bob", false)
	one := f.createSound(t, alice, "one")
	two := f.createSound(t, alice, "two")

	_, err := f.favorites.Create(bob, one.ID)
	require.NoError(t, err)

	set, err := f.sounds.FavoritedSet(bob.ID, []uint64{one.ID, two.ID})
	require.NoError(t, err)
	assert.True(t, set[one.ID])
	assert.False(t, set[two.ID])

	// Anonymous callers favorite nothing.
	set, err = f.sounds.FavoritedSet(0, []uint64{one.ID, two.ID})
	require.NoError(t, err)
	assert.Empty(t, set)
}
