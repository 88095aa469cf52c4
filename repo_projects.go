package uptask

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Projects persists projects and their team membership rows.
type Projects interface {
	Create(ctx context.Context, record *Project) (*Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error)
	Update(ctx context.Context, record *Project) (*Project, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
	Team(ctx context.Context, projectID uuid.UUID) ([]*User, error)
}

type projects struct {
	db *bun.DB
}

var _ Projects = (*projects)(nil)

func NewProjectsRepository(db *bun.DB) Projects {
	return &projects{db: db}
}

func (r *projects) Create(ctx context.Context, record *Project) (*Project, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create project")
	}
	return record, nil
}

// GetByID loads a project with its team. The team is always needed by the
// authorization chain, so it is not optional here.
func (r *projects) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	record := &Project{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Team").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load project")
	}

	return record, nil
}

// ListForUser returns projects the user owns or is a team member of. The
// result is never nil so it always serializes as a JSON array.
func (r *projects) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error) {
	records := []*Project{}

	memberOf := r.db.NewSelect().
		Model((*ProjectMember)(nil)).
		Column("project_id").
		Where("user_id = ?", userID)

	err := r.db.NewSelect().
		Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.owner_id = ?", userID).
				WhereOr("prj.id IN (?)", memberOf)
		}).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list projects")
	}

	return records, nil
}

func (r *projects) Update(ctx context.Context, record *Project) (*Project, error) {
	_, err := r.db.NewUpdate().
		Model(record).
		Column("name", "client_name", "description", "updated_at").
		Where("?TableAlias.id = ?", record.ID).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update project")
	}
	return record, nil
}

// Delete removes a project and everything it exclusively owns: notes and
// status history of its tasks, the tasks, and the membership rows.
func (r *projects) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		taskIDs := tx.NewSelect().
			Model((*Task)(nil)).
			Column("id").
			Where("project_id = ?", id)

		if _, err := tx.NewDelete().
			Model((*Note)(nil)).
			Where("task_id IN (?)", taskIDs).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete project notes")
		}

		if _, err := tx.NewDelete().
			Model((*TaskStatusChange)(nil)).
			Where("task_id IN (?)", taskIDs).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete task history")
		}

		if _, err := tx.NewDelete().
			Model((*Task)(nil)).
			Where("project_id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete project tasks")
		}

		if _, err := tx.NewDelete().
			Model((*ProjectMember)(nil)).
			Where("project_id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete project team")
		}

		if _, err := tx.NewDelete().
			Model((*Project)(nil)).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to delete project")
		}

		return nil
	})
}

// AddMember is idempotent: adding an existing member is a no-op.
func (r *projects) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	member := &ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
	}

	_, err := r.db.NewInsert().
		Model(member).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to add team member")
	}
	return nil
}

func (r *projects) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	res, err := r.db.NewDelete().
		Model((*ProjectMember)(nil)).
		Where("project_id = ?", projectID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to remove team member")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return true, nil
	}
	return n > 0, nil
}

func (r *projects) Team(ctx context.Context, projectID uuid.UUID) ([]*User, error) {
	members := []*User{}

	memberIDs := r.db.NewSelect().
		Model((*ProjectMember)(nil)).
		Column("user_id").
		Where("project_id = ?", projectID)

	err := r.db.NewSelect().
		Model(&members).
		Column("usr.id", "usr.name", "usr.email").
		Where("usr.id IN (?)", memberIDs).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load project team")
	}

	return members, nil
}
