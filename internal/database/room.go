package database

import (
	"context"
	"errors"

	"github.com/thereayou/jobchat/internal/models"
	"gorm.io/gorm"
)

// ErrRoomSize is returned when a private room would not end up with exactly two members.
var ErrRoomSize = errors.New("private room must have exactly two members")

func (d *Database) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := d.db.WithContext(ctx).Preload("Members").Preload("Creator").First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetUserRooms returns rooms the user created or belongs to, newest first.
func (d *Database) GetUserRooms(ctx context.Context, userID uint) ([]models.Room, error) {
	var rooms []models.Room

	memberOf := d.db.Table("room_members").Select("room_id").Where("user_id = ?", userID)

	err := d.db.WithContext(ctx).
		Where("creator_id = ? OR id IN (?)", userID, memberOf).
		Order("id DESC").
		Preload("Members").
		Find(&rooms).Error

	return rooms, err
}

func (d *Database) FindPrivateRoomByPair(ctx context.Context, a, b uint) (*models.Room, error) {
	var room models.Room
	err := d.db.WithContext(ctx).
		Preload("Members").
		Where("is_private = ? AND pair_key = ?", true, models.PairKey(a, b)).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreatePrivateRoom inserts the room and both members in one transaction.
// Nothing is persisted unless the room ends up with exactly two members.
func (d *Database) CreatePrivateRoom(ctx context.Context, creator, other *models.User, name string) (*models.Room, error) {
	key := models.PairKey(creator.ID, other.ID)
	room := models.Room{
		Name:      &name,
		CreatorID: creator.ID,
		IsPrivate: true,
		PairKey:   &key,
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Members", "Creator", "Messages").Create(&room).Error; err != nil {
			return err
		}

		if err := tx.Model(&room).Association("Members").Append(creator, other); err != nil {
			return err
		}

		if count := tx.Model(&room).Association("Members").Count(); count != 2 {
			return ErrRoomSize
		}

		return tx.Model(&room).Association("Members").Find(&room.Members)
	})
	if err != nil {
		return nil, err
	}

	return &room, nil
}

// UpdateRoom applies a name change and, when members is non-nil, replaces the member set.
func (d *Database) UpdateRoom(ctx context.Context, room *models.Room, name *string, members []models.User) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if name != nil {
			updates["name"] = *name
			room.Name = name
		}

		if members != nil {
			if err := tx.Model(room).Association("Members").Replace(members); err != nil {
				return err
			}
			if room.IsPrivate {
				if len(members) != 2 {
					return ErrRoomSize
				}
				key := models.PairKey(members[0].ID, members[1].ID)
				updates["pair_key"] = key
				room.PairKey = &key
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(room).Updates(updates).Error; err != nil {
				return err
			}
		}

		return tx.Model(room).Association("Members").Find(&room.Members)
	})
}
