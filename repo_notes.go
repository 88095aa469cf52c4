package uptask

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Notes persists task comments.
type Notes interface {
	Create(ctx context.Context, record *Note) (*Note, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Note, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type notes struct {
	db *bun.DB
}

var _ Notes = (*notes)(nil)

func NewNotesRepository(db *bun.DB) Notes {
	return &notes{db: db}
}

func (r *notes) Create(ctx context.Context, record *Note) (*Note, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create note")
	}
	return record, nil
}

func (r *notes) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	record := &Note{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load note")
	}

	return record, nil
}

func (r *notes) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Note, error) {
	records := []*Note{}
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.task_id = ?", taskID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list notes")
	}
	return records, nil
}

func (r *notes) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.NewDelete().
		Model((*Note)(nil)).
		Where("id = ?", id).
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete note")
	}
	return nil
}
