package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/onemama/telehealth-ussd/internal/models"
)

// DatabaseStore keeps sessions in PostgreSQL so several instances can share them
type DatabaseStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewDatabaseStore creates a new database-backed session store
func NewDatabaseStore(db *gorm.DB, timeout time.Duration) *DatabaseStore {
	return &DatabaseStore{
		db:      db,
		timeout: timeout,
	}
}

// Migrate creates or updates the sessions table
func (d *DatabaseStore) Migrate() error {
	return d.db.AutoMigrate(&models.USSDSessionRecord{})
}

func (d *DatabaseStore) Timeout() time.Duration {
	return d.timeout
}

func (d *DatabaseStore) GetOrCreate(sessionID, phoneNumber string, now time.Time) (*models.USSDSession, bool, error) {
	var (
		result  *models.USSDSession
		created bool
	)

	err := d.db.Transaction(func(tx *gorm.DB) error {
		record, err := lockSession(tx, sessionID)
		if err != nil {
			return err
		}

		if record != nil && now.Sub(record.LastActivityAt) > d.timeout {
			// stale dialog, start over under the same id
			if err := tx.Unscoped().Delete(record).Error; err != nil {
				return fmt.Errorf("failed to discard stale session: %w", err)
			}
			record = nil
		}

		if record == nil {
			session := newSession(sessionID, phoneNumber, now)
			fresh, err := session.ToRecord()
			if err != nil {
				return err
			}

			// A retransmitted first request can insert the same id between the
			// lookup and here. Its row wins and is joined below.
			insert := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "session_id"}},
				DoNothing: true,
			}).Create(fresh)
			if insert.Error != nil {
				return fmt.Errorf("failed to create session: %w", insert.Error)
			}
			if insert.RowsAffected == 1 {
				result = session
				created = true
				return nil
			}

			if record, err = lockSession(tx, sessionID); err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("session %s disappeared while being created", sessionID)
			}
		}

		if now.After(record.LastActivityAt) {
			record.LastActivityAt = now
			if err := tx.Model(record).Update("last_activity_at", now).Error; err != nil {
				return fmt.Errorf("failed to refresh session: %w", err)
			}
		}
		session, err := record.ToSession()
		if err != nil {
			return fmt.Errorf("failed to decode session: %w", err)
		}
		result = session
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// lockSession loads a row with SELECT ... FOR UPDATE, returning nil when absent
func lockSession(tx *gorm.DB, sessionID string) (*models.USSDSessionRecord, error) {
	var record models.USSDSessionRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &record, nil
}

func (d *DatabaseStore) Save(session *models.USSDSession) error {
	record, err := session.ToRecord()
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	updates := clause.AssignmentColumns([]string{
		"dialog_id", "step", "service_context", "history", "service_code", "updated_at",
	})
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "last_activity_at"},
		Value:  gorm.Expr("GREATEST(ussd_sessions.last_activity_at, EXCLUDED.last_activity_at)"),
	})

	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: updates,
	}).Create(record).Error
}

func (d *DatabaseStore) Delete(sessionID string) (bool, error) {
	result := d.db.Unscoped().
		Where("session_id = ?", sessionID).
		Delete(&models.USSDSessionRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (d *DatabaseStore) SweepExpired(now time.Time, timeout time.Duration) (int, error) {
	result := d.db.Unscoped().
		Where("last_activity_at < ?", now.Add(-timeout)).
		Delete(&models.USSDSessionRecord{})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (d *DatabaseStore) ListAll() ([]*models.USSDSession, error) {
	var records []models.USSDSessionRecord
	if err := d.db.Order("session_id").Find(&records).Error; err != nil {
		return nil, err
	}

	sessions := make([]*models.USSDSession, 0, len(records))
	for i := range records {
		session, err := records[i].ToSession()
		if err != nil {
			return nil, fmt.Errorf("failed to decode session %s: %w", records[i].SessionID, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (d *DatabaseStore) Get(sessionID string) (*models.USSDSession, error) {
	var record models.USSDSessionRecord
	err := d.db.Where("session_id = ?", sessionID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.ToSession()
}
