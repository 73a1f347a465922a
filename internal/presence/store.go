package presence

import "context"

// Store tracks which users currently hold an open connection to a room.
// Implementations must be shared between server processes.
type Store interface {
	// Add marks userID as connected to roomID. Adding twice is a no-op.
	Add(ctx context.Context, roomID, userID uint) error

	// Remove clears the mark. Removing an absent user is a no-op.
	Remove(ctx context.Context, roomID, userID uint) error

	// ConnectedCount returns the number of distinct connected users.
	ConnectedCount(ctx context.Context, roomID uint) (int64, error)

	// Connected returns the connected user ids.
	Connected(ctx context.Context, roomID uint) ([]uint, error)

	// AllConnected reports whether every id in members is connected.
	// An empty member list is never considered connected.
	AllConnected(ctx context.Context, roomID uint, members []uint) (bool, error)
}

// BothPresent reports whether a two-member room has both members connected.
func BothPresent(ctx context.Context, s Store, roomID uint, members []uint) (bool, error) {
	if len(members) != 2 {
		return false, nil
	}
	return s.AllConnected(ctx, roomID, members)
}
