package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Infinity2209/user/cmd/panelapi/internal/db/bunx"
	"github.com/Infinity2209/user/cmd/panelapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunDocumentStore implements DocumentStore on the documents table using Bun ORM
type BunDocumentStore struct {
	db    *bun.DB
	newID func() string
}

// NewBunDocumentStore creates a new Bun-based document store
func NewBunDocumentStore(db *bun.DB) *BunDocumentStore {
	return &BunDocumentStore{db: db, newID: bunx.NewUUIDv7}
}

// FindAll returns every document of the collection ordered by insertion.
func (s *BunDocumentStore) FindAll(ctx context.Context, collection string) ([]Record, error) {
	var docs []models.Document
	err := s.db.NewSelect().
		Model(&docs).
		Where("collection = ?", collection).
		Order("seq ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	out := make([]Record, 0, len(docs))
	for i := range docs {
		out = append(out, toRecord(&docs[i]))
	}
	return out, nil
}

// FindByID fetches one document.
func (s *BunDocumentStore) FindByID(ctx context.Context, collection, id string) (Record, error) {
	doc, err := findDocument(ctx, s.db, collection, id)
	if err != nil {
		return nil, err
	}
	return toRecord(doc), nil
}

// Insert stores data under a fresh id at the end of the collection.
func (s *BunDocumentStore) Insert(ctx context.Context, collection string, data Record) (Record, error) {
	var out Record
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		seq, err := nextSeq(ctx, tx, collection)
		if err != nil {
			return err
		}

		rec := data.Clone()
		if rec == nil {
			rec = Record{}
		}
		rec[IDField] = s.newID()

		doc := newDocument(collection, rec, seq)
		if _, err := tx.NewInsert().Model(doc).Exec(ctx); err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("insert %s/%s: %w", collection, rec.ID(), ErrDuplicate)
			}
			return fmt.Errorf("insert %s: %w", collection, err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update merges patch into the stored body inside a transaction.
func (s *BunDocumentStore) Update(ctx context.Context, collection, id string, patch Record) (Record, error) {
	var out Record
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		doc, err := findDocument(ctx, tx, collection, id)
		if err != nil {
			return err
		}

		rec := toRecord(doc)
		rec.Merge(patch)
		doc.Body = models.Body(rec)
		doc.UpdatedAt = time.Now().UTC()

		_, err = tx.NewUpdate().
			Model(doc).
			Column("body", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update %s/%s: %w", collection, id, err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a document and returns what was stored.
func (s *BunDocumentStore) Delete(ctx context.Context, collection, id string) (Record, error) {
	var out Record
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		doc, err := findDocument(ctx, tx, collection, id)
		if err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model(doc).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("delete %s/%s: %w", collection, id, err)
		}
		out = toRecord(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Import appends records keeping their ids, all or nothing.
func (s *BunDocumentStore) Import(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		seq, err := nextSeq(ctx, tx, collection)
		if err != nil {
			return err
		}

		docs := make([]*models.Document, 0, len(records))
		for i, r := range records {
			rec := r.Clone()
			if rec.ID() == "" {
				rec[IDField] = s.newID()
			}
			docs = append(docs, newDocument(collection, rec, seq+int64(i)))
		}

		if _, err := tx.NewInsert().Model(&docs).Exec(ctx); err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("import %s: %w", collection, ErrDuplicate)
			}
			return fmt.Errorf("import %s: %w", collection, err)
		}
		return nil
	})
}

// Count returns the number of documents in the collection.
func (s *BunDocumentStore) Count(ctx context.Context, collection string) (int, error) {
	n, err := s.db.NewSelect().
		Model((*models.Document)(nil)).
		Where("collection = ?", collection).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func findDocument(ctx context.Context, db bun.IDB, collection, id string) (*models.Document, error) {
	doc := new(models.Document)
	err := db.NewSelect().
		Model(doc).
		Where("collection = ?", collection).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func nextSeq(ctx context.Context, db bun.IDB, collection string) (int64, error) {
	var max sql.NullInt64
	err := db.NewSelect().
		Model((*models.Document)(nil)).
		ColumnExpr("MAX(seq)").
		Where("collection = ?", collection).
		Scan(ctx, &max)
	if err != nil {
		return 0, fmt.Errorf("next sequence for %s: %w", collection, err)
	}
	return max.Int64 + 1, nil
}

func newDocument(collection string, rec Record, seq int64) *models.Document {
	now := time.Now().UTC()
	return &models.Document{
		Collection: collection,
		ID:         rec.ID(),
		Seq:        seq,
		Body:       models.Body(rec),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func toRecord(doc *models.Document) Record {
	rec := Record(doc.Body).Clone()
	if rec == nil {
		rec = Record{}
	}
	rec[IDField] = doc.ID
	return rec
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "23505")
}
