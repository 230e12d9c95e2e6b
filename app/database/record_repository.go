package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/rss-loader/app/feed"
)

type StoredRecord struct {
	ID        int64
	FeedName  string
	Text      string
	Metadata  map[string]any
	CreatedAt time.Time
}

// RecordRepository handles database operations for loaded records
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// StoreRecord stores one loaded record. Records carry no natural key, so
// repeated loads insert new rows.
func (r *RecordRepository) StoreRecord(feedName string, record feed.Record) error {
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO records (feed_name, text, metadata, created_at)
		VALUES (?, ?, ?, ?)
	`, feedName, record.Text, string(metadata), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}

	return nil
}

// GetRecords returns up to limit records for a feed, newest first. A limit
// of zero means no limit.
func (r *RecordRepository) GetRecords(feedName string, limit int) ([]StoredRecord, error) {
	if limit <= 0 {
		limit = -1 // sqlite treats a negative limit as unlimited
	}

	rows, err := r.db.Query(`
		SELECT id, feed_name, text, metadata, created_at
		FROM records
		WHERE feed_name = ?
		ORDER BY id DESC
		LIMIT ?
	`, feedName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var record StoredRecord
		var metadata, createdAt string

		if err := rows.Scan(&record.ID, &record.FeedName, &record.Text, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}

		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			record.CreatedAt = parsed
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

// GetRecordCount returns the number of stored records for a feed
func (r *RecordRepository) GetRecordCount(feedName string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM records WHERE feed_name = ?`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return count, nil
}
