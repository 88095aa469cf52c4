package uptask

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Tasks persists tasks, their append-only status history, and cascades.
type Tasks interface {
	Create(ctx context.Context, record *Task) (*Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error)
	Update(ctx context.Context, record *Task) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status TaskStatus, changedBy uuid.UUID) (*Task, error)
}

type tasks struct {
	db *bun.DB
}

var _ Tasks = (*tasks)(nil)

func NewTasksRepository(db *bun.DB) Tasks {
	return &tasks{db: db}
}

func (r *tasks) Create(ctx context.Context, record *Task) (*Task, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = TaskStatusPending
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create task")
	}
	return record, nil
}

func (r *tasks) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	record := &Task{}
	err := r.db.NewSelect().
		Model(record).
		Relation("StatusHistory").
		Relation("Notes").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load task")
	}

	return record, nil
}

func (r *tasks) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Task, error) {
	records := []*Task{}
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.project_id = ?", projectID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list tasks")
	}
	return records, nil
}

// Update touches name and description only. ProjectID is immutable after
// creation and Status moves exclusively through UpdateStatus.
func (r *tasks) Update(ctx context.Context, record *Task) (*Task, error) {
	_, err := r.db.NewUpdate().
		Model(record).
		Column("name", "description", "updated_at").
		Where("?TableAlias.id = ?", record.ID).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update task")
	}
	return record, nil
}

func (r *tasks) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Note)(nil)).
			Where("task_id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete task notes")
		}

		if _, err := tx.NewDelete().
			Model((*TaskStatusChange)(nil)).
			Where("task_id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete task history")
		}

		if _, err := tx.NewDelete().
			Model((*Task)(nil)).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete task")
		}

		return nil
	})
}

// UpdateStatus moves the task and appends a history entry in one
// transaction, so the history never disagrees with the current status.
func (r *tasks) UpdateStatus(ctx context.Context, id uuid.UUID, status TaskStatus, changedBy uuid.UUID) (*Task, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*Task)(nil)).
			Set("status = ?", status).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to update task status")
		}

		change := &TaskStatusChange{
			ID:     uuid.New(),
			TaskID: id,
			UserID: changedBy,
			Status: status,
		}
		if _, err := tx.NewInsert().Model(change).Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to record status change")
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}
