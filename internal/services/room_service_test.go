package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/jobchat/internal/database"
	"github.com/thereayou/jobchat/internal/presence"
	"github.com/thereayou/jobchat/internal/testutil"
)

func newRoomService(t *testing.T) (*RoomService, *MessageService, presence.Store, *database.Database) {
	t.Helper()

	db := testutil.NewDatabase(t)
	rdb, _ := testutil.NewRedis(t)
	store := presence.NewRedisStore(rdb, 0)

	return NewRoomService(db, store), NewMessageService(db), store, db
}

func TestCreateOrGetPrivateRoom(t *testing.T) {
	rooms, _, _, db := newRoomService(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	room, created, err := rooms.CreateOrGetPrivateRoom(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, room.IsPrivate)
	assert.Equal(t, alice.ID, room.CreatorID)
	assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, room.MemberIDs())
	require.NotNil(t, room.Name)
	assert.Equal(t, "alice Tester - bob Tester", *room.Name)

	t.Run("idempotent for the same pair", func(t *testing.T) {
		again, created, err := rooms.CreateOrGetPrivateRoom(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, room.ID, again.ID)
	})

	t.Run("order of the pair does not matter", func(t *testing.T) {
		again, created, err := rooms.CreateOrGetPrivateRoom(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, room.ID, again.ID)
	})
}

func TestCreateOrGetPrivateRoomErrors(t *testing.T) {
	rooms, _, _, db := newRoomService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	_, _, err := rooms.CreateOrGetPrivateRoom(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfRoom)

	_, _, err = rooms.CreateOrGetPrivateRoom(ctx, alice.ID, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthorizeAccessAndValidatePrivate(t *testing.T) {
	rooms, _, _, db := newRoomService(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	room, _, err := rooms.CreateOrGetPrivateRoom(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	assert.True(t, rooms.AuthorizeAccess(room, alice.ID))
	assert.True(t, rooms.AuthorizeAccess(room, bob.ID))
	assert.False(t, rooms.AuthorizeAccess(room, carol.ID))

	assert.NoError(t, ValidatePrivate(room))

	room.IsPrivate = false
	assert.ErrorIs(t, ValidatePrivate(room), ErrNotPrivateRoom)
}

func TestGetUnknownRoom(t *testing.T) {
	rooms, _, _, _ := newRoomService(t)

	_, err := rooms.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestListRoomsFor(t *testing.T) {
	rooms, messages, store, db := newRoomService(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	withBob, _, err := rooms.CreateOrGetPrivateRoom(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	withCarol, _, err := rooms.CreateOrGetPrivateRoom(ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	_, err = messages.Append(ctx, withBob.ID, bob.ID, MessageBody{Text: "hello alice"}, false)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, withBob.ID, bob.ID))

	all, err := rooms.ListRoomsFor(ctx, alice.ID, FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Equal(t, withCarol.ID, all[0].ID, "newest room first")
	require.NotNil(t, all[0].LastMessage)
	assert.Equal(t, "say hi to carol Tester", *all[0].LastMessage)
	assert.Zero(t, all[0].UnreadCount)

	assert.Equal(t, withBob.ID, all[1].ID)
	require.NotNil(t, all[1].LastMessage)
	assert.Equal(t, "hello alice", *all[1].LastMessage)
	assert.EqualValues(t, 1, all[1].UnreadCount)
	assert.EqualValues(t, 1, all[1].OnlineCount)
	require.NotNil(t, all[1].OtherUserID)
	assert.Equal(t, bob.ID, *all[1].OtherUserID)

	unread, err := rooms.ListRoomsFor(ctx, alice.ID, FilterUnread)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, withBob.ID, unread[0].ID)

	// bob wrote the message, so it is not unread for him
	bobUnread, err := rooms.ListRoomsFor(ctx, bob.ID, FilterUnread)
	require.NoError(t, err)
	assert.Empty(t, bobUnread)

	_, err = rooms.ListRoomsFor(ctx, alice.ID, FilterWon)
	assert.ErrorIs(t, err, ErrUnsupportedFilter)
}

func TestUpdateMetadata(t *testing.T) {
	rooms, _, _, db := newRoomService(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	room, _, err := rooms.CreateOrGetPrivateRoom(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	t.Run("only the creator may update", func(t *testing.T) {
		name := "hijacked"
		_, err := rooms.UpdateMetadata(ctx, room.ID, bob.ID, RoomPatch{Name: &name})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rename", func(t *testing.T) {
		name := "project kitchen"
		updated, err := rooms.UpdateMetadata(ctx, room.ID, alice.ID, RoomPatch{Name: &name})
		require.NoError(t, err)
		require.NotNil(t, updated.Name)
		assert.Equal(t, name, *updated.Name)

		reloaded, err := rooms.Get(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, name, *reloaded.Name)
	})

	t.Run("private room keeps two members", func(t *testing.T) {
		_, err := rooms.UpdateMetadata(ctx, room.ID, alice.ID, RoomPatch{MemberIDs: []uint{alice.ID, bob.ID, carol.ID}})
		assert.ErrorIs(t, err, ErrInvalidMembership)

		_, err = rooms.UpdateMetadata(ctx, room.ID, alice.ID, RoomPatch{MemberIDs: []uint{bob.ID, carol.ID}})
		assert.ErrorIs(t, err, ErrInvalidMembership)

		reloaded, err := rooms.Get(ctx, room.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, reloaded.MemberIDs())
	})

	t.Run("swap the other member", func(t *testing.T) {
		updated, err := rooms.UpdateMetadata(ctx, room.ID, alice.ID, RoomPatch{MemberIDs: []uint{alice.ID, carol.ID}})
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{alice.ID, carol.ID}, updated.MemberIDs())

		again, created, err := rooms.CreateOrGetPrivateRoom(ctx, carol.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, room.ID, again.ID)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := rooms.UpdateMetadata(ctx, 9999, alice.ID, RoomPatch{})
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}
