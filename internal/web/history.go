package web

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const submissionBucket = "submissions"

// Submission is one processed upload as recorded in the journal.
type Submission struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Kind      string    `json:"kind"`
	Rows      int       `json:"rows"`
	Artifact  string    `json:"artifact,omitempty"` // empty when nothing was extracted
	CreatedAt time.Time `json:"created_at"`
}

// Journal records processed submissions so their artifacts stay
// downloadable across restarts.
type Journal interface {
	// SaveSubmission saves a submission record.
	SaveSubmission(sub *Submission) error

	// GetSubmission retrieves a submission record by ID.
	GetSubmission(id string) (*Submission, error)

	// ListSubmissions returns all submission records.
	ListSubmissions() ([]*Submission, error)

	// Close closes the journal.
	Close() error
}

// BoltJournal implements the Journal interface using BoltDB.
type BoltJournal struct {
	db *bbolt.DB
}

// NewBoltJournal creates a new BoltJournal instance.
func NewBoltJournal(path string) (*BoltJournal, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(submissionBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltJournal{db: db}, nil
}

// SaveSubmission saves a submission record.
func (b *BoltJournal) SaveSubmission(sub *Submission) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		data, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("marshaling submission: %w", err)
		}
		return bucket.Put([]byte(sub.ID), data)
	})
}

// GetSubmission retrieves a submission record by ID.
func (b *BoltJournal) GetSubmission(id string) (*Submission, error) {
	var sub *Submission
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("submission not found: %s", id)
		}
		return json.Unmarshal(data, &sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListSubmissions returns all submission records.
func (b *BoltJournal) ListSubmissions() ([]*Submission, error) {
	subs := make([]*Submission, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var sub Submission
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("unmarshaling submission: %w", err)
			}
			subs = append(subs, &sub)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Close closes the journal database.
func (b *BoltJournal) Close() error {
	return b.db.Close()
}
