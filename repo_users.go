package accounts

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProfileChanges carries the mutable profile fields; empty values are left
// untouched.
type ProfileChanges struct {
	Username string
	Email    string
}

// Users is the credential store contract
type Users interface {
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	ExistsWithEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	ExistsWithEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (bool, error)
	EmailTakenByOther(ctx context.Context, email string, id uuid.UUID) (bool, error)
	EmailTakenByOtherTx(ctx context.Context, tx bun.IDB, email string, id uuid.UUID) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, changes ProfileChanges) (*User, error)
	UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, changes ProfileChanges) (*User, error)
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository builds the bun backed credential store
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user").
			WithTextCode(TextCodeDuplicateUser)
	}

	return record, nil
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, wrapRecordNotFound(err, map[string]any{"email": email})
	}

	return record, nil
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		return nil, wrapRecordNotFound(err, map[string]any{"id": id.String()})
	}

	return record, nil
}

// ExistsWithEmailOrUsername is the single existence check registration runs
// against both unique fields.
func (a *users) ExistsWithEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	return a.ExistsWithEmailOrUsernameTx(ctx, a.db, email, username)
}

func (a *users) ExistsWithEmailOrUsernameTx(ctx context.Context, tx bun.IDB, email, username string) (bool, error) {
	count, err := tx.NewSelect().Model((*User)(nil)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.email = ?", email).
				WhereOr("?TableAlias.username = ?", username)
		}).
		Count(ctx)

	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check existing users")
	}

	return count > 0, nil
}

func (a *users) EmailTakenByOther(ctx context.Context, email string, id uuid.UUID) (bool, error) {
	return a.EmailTakenByOtherTx(ctx, a.db, email, id)
}

func (a *users) EmailTakenByOtherTx(ctx context.Context, tx bun.IDB, email string, id uuid.UUID) (bool, error) {
	count, err := tx.NewSelect().Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.id != ?", id).
		Count(ctx)

	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check email ownership")
	}

	return count > 0, nil
}

func (a *users) UpdateProfile(ctx context.Context, id uuid.UUID, changes ProfileChanges) (*User, error) {
	return a.UpdateProfileTx(ctx, a.db, id, changes)
}

func (a *users) UpdateProfileTx(ctx context.Context, tx bun.IDB, id uuid.UUID, changes ProfileChanges) (*User, error) {
	now := time.Now()
	record := &User{
		Username:  changes.Username,
		Email:     changes.Email,
		UpdatedAt: &now,
	}

	q := tx.NewUpdate().Model(record).
		Column("updated_at").
		Where("?TableAlias.id = ?", id)

	if changes.Username != "" {
		q = q.Column("username")
	}
	if changes.Email != "" {
		q = q.Column("email")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not update user").
			WithTextCode(TextCodeEmailInUse)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrIdentityNotFound
	}

	return a.GetByIDTx(ctx, tx, id)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func wrapRecordNotFound(err error, meta map[string]any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(err, errors.CategoryNotFound, "record not found").
			WithTextCode(TextCodeUserNotFound).
			WithCode(errors.CodeNotFound).
			WithMetadata(meta)
	}
	return errors.Wrap(err, errors.CategoryInternal, "user lookup failed")
}
