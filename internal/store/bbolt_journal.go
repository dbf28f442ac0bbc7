package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var bucketCalls = []byte("calls")

type BboltJournal struct {
	db    *bolt.DB
	limit int
	now   func() time.Time
}

// NewBboltJournal opens the journal at path, keeping at most limit records.
func NewBboltJournal(path string, limit int) (*BboltJournal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCalls)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BboltJournal{db: db, limit: limit, now: time.Now}, nil
}

func (j *BboltJournal) Append(ctx context.Context, record *CallRecord) error {
	if record == nil {
		return errors.New("record is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCalls)
		if b == nil {
			return errors.New("calls bucket missing")
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		stored := *record
		stored.Seq = seq
		if stored.ID == "" {
			stored.ID = uuid.NewString()
		}
		if stored.Time.IsZero() {
			stored.Time = j.now().UTC()
		}
		if stored.BodyBytes == 0 {
			stored.BodyBytes = len(stored.Body)
		}
		data, err := json.Marshal(&stored)
		if err != nil {
			return err
		}
		if err := b.Put(seqKey(seq), data); err != nil {
			return err
		}
		*record = stored
		return j.pruneLocked(b, seq)
	})
}

func (j *BboltJournal) pruneLocked(b *bolt.Bucket, newest uint64) error {
	if j.limit <= 0 || newest <= uint64(j.limit) {
		return nil
	}
	cutoff := seqKey(newest - uint64(j.limit))
	c := b.Cursor()
	for k, _ := c.First(); k != nil && string(k) <= string(cutoff); k, _ = c.First() {
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (j *BboltJournal) Recent(ctx context.Context, limit int) ([]*CallRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*CallRecord, 0)
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCalls)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var record CallRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			out = append(out, &record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (j *BboltJournal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func seqKey(seq uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return buf[:]
}
