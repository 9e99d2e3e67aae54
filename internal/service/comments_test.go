package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentCreateSanitizesContent(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice", false)
	sound := f.createSound(t, alice, "storm")

	comment, err := f.comments.Create(alice, sound.ID, `  <script>alert("x")</script>Nice <b>sound</b>!  `)
	require.NoError(t, err)
	assert.Equal(t, "Nice sound!", comment.Content)
	assert.Equal(t, "alice", comment.User.Username)

	// Content that is nothing but markup sanitizes to empty.
	_, err = f.comments.Create(alice, sound.ID, "<img src=x onerror=alert(1)>")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, "Content is required.", err.Error())

	_, err = f.comments.Create(alice, 99999, "Where did the sound go?")
	require.Error(t, err)
	assert.Equal(t, "Sound does not exist.", err.Error())
}

func TestCommentListScopedToSound(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice", false)
	storm := f.createSound(t, alice, "storm")
	birds := f.createSound(t, alice, "birds")

	_, err := f.comments.Create(alice, storm.ID, "first")
	require.NoError(t, err)
	_, err = f.comments.Create(alice, storm.ID, "second")
	require.NoError(t, err)
	_, err = f.comments.Create(alice, birds.ID, "chirp")
	require.NoError(t, err)

	comments, count, err := f.comments.List(storm.ID, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	require.Len(t, comments, 2)
	// Newest first.
	assert.Equal(t, "second", comments[0].Content)
	assert.Equal(t, "first", comments[1].Content)

	_, count, err = f.comments.List(0, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestCommentUpdateIsAuthorOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice", false)
	bob := f.createUser(t, "bob", false)
	sound := f.createSound(t, alice, "storm")

	comment, err := f.comments.Create(alice, sound.ID, "original")
	require.NoError(t, err)

	_, err = f.comments.Update(bob, comment.ID, "hijacked")
	require.Error(t, err)
	assert.Equal(t, KindPermission, KindOf(err))
	assert.Equal(t, "You can only edit your own comments.", err.Error())

	updated, err := f.comments.Update(alice, comment.ID, "revised <i>text</i>")
	require.NoError(t, err)
	assert.Equal(t, "revised text", updated.Content)
}

func TestCommentDeleteIsAuthorOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice", false)
	bob := f.createUser(t, "bob", false)
	sound := f.createSound(t, alice, "storm")

	comment, err := f.comments.Create(alice, sound.ID, "delete me")
	require.NoError(t, err)

	err = f.comments.Delete(bob, comment.ID)
	require.Error(t, err)
	assert.Equal(t, KindPermission, KindOf(err))

	require.NoError(t, f.comments.Delete(alice, comment.ID))

	_, err = f.comments.Get(comment.ID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}
