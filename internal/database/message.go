package database

import (
	"context"
	"sort"
	"time"

	"github.com/thereayou/jobchat/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveMessage inserts the message and bumps the room's updated_at in one transaction.
func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Room{}).
			Where("id = ?", message.RoomID).
			Update("updated_at", time.Now()).Error
	})
}

// MarkSeen flips seen=false -> true for messages in the room not written by userID
// and returns the ids that actually changed. A nil ids slice means every message.
// The whole transition is one UPDATE ... RETURNING, so concurrent callers never
// report the same id twice.
func (d *Database) MarkSeen(ctx context.Context, roomID, userID uint, ids []uint) ([]uint, error) {
	if ids != nil && len(ids) == 0 {
		return []uint{}, nil
	}

	var updated []models.Message
	q := d.db.WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("room_id = ? AND seen = ?", roomID, false).
		Where("(user_id IS NULL OR user_id <> ?)", userID)
	if ids != nil {
		q = q.Where("id IN ?", ids)
	}

	if err := q.Update("seen", true).Error; err != nil {
		return nil, err
	}

	out := make([]uint, len(updated))
	for i, m := range updated {
		out[i] = m.ID
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, nil
}

// GetRoomMessages returns one page of a room's messages ordered by id.
func (d *Database) GetRoomMessages(ctx context.Context, roomID uint, limit, offset int, desc bool) ([]models.Message, int64, error) {
	var (
		messages []models.Message
		total    int64
	)

	base := d.db.WithContext(ctx).Model(&models.Message{}).Where("room_id = ?", roomID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "id ASC"
	if desc {
		order = "id DESC"
	}

	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// GetAllRoomMessages returns the full history, oldest first.
func (d *Database) GetAllRoomMessages(ctx context.Context, roomID uint) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id ASC").
		Find(&messages).Error
	return messages, err
}

func (d *Database) GetLastMessage(ctx context.Context, roomID uint) (*models.Message, error) {
	var message models.Message
	err := d.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// CountUnseen counts unseen messages in the room written by someone other than userID.
func (d *Database) CountUnseen(ctx context.Context, roomID, userID uint) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("room_id = ? AND seen = ?", roomID, false).
		Where("(user_id IS NULL OR user_id <> ?)", userID).
		Count(&count).Error
	return count, err
}
