package authstore

import (
	"context"
	"time"

	"github.com/angelmondragon/stylinx-storefront/internal/identity"
	"github.com/angelmondragon/stylinx-storefront/pkg/db"
	"github.com/angelmondragon/stylinx-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore keeps the record as one row of auth_records.
type SQLStore struct {
	db  *gorm.DB
	key string
}

func NewSQLStore(conn *gorm.DB, key string) *SQLStore {
	return &SQLStore{db: conn, key: key}
}

func (s *SQLStore) Save(ctx context.Context, user identity.User) error {
	payload, err := encode(user)
	if err != nil {
		return err
	}
	record := models.AuthRecord{Key: s.key, Payload: payload, UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save auth record")
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (*identity.User, error) {
	var record models.AuthRecord
	err := s.db.WithContext(ctx).Where("key = ?", s.key).First(&record).Error
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load auth record")
	}
	return decode(record.Payload)
}

func (s *SQLStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).Where("key = ?", s.key).Delete(&models.AuthRecord{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear auth record")
	}
	return nil
}
