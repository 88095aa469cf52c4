package uptask

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterModels wires the m2m join table into bun's model registry. Must
// run before any query touching Project.Team.
func RegisterModels(db *bun.DB) {
	db.RegisterModel((*ProjectMember)(nil))
}

// Migrate creates the schema. Tables are created in dependency order so
// foreign keys resolve; every statement is idempotent.
func Migrate(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*VerificationToken)(nil),
		(*Project)(nil),
		(*ProjectMember)(nil),
		(*Task)(nil),
		(*TaskStatusChange)(nil),
		(*Note)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "schema migration failed")
		}
	}

	return nil
}
