package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UpdateProfileMessage struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
}

func (e UpdateProfileMessage) Type() string { return "user.update_profile" }

// UpdateProfileHandler mutates username and email on an existing account.
// A supplied email that belongs to a different account is a conflict; the
// check and the update run in one transaction.
type UpdateProfileHandler struct {
	repo RepositoryManager
}

func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{repo: repo}
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) (*User, error) {
	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if event.Email != "" {
			taken, err := h.repo.Users().EmailTakenByOtherTx(ctx, tx, event.Email, event.UserID)
			if err != nil {
				return err
			}

			if taken {
				return ErrEmailInUse
			}
		}

		updated, err := h.repo.Users().UpdateProfileTx(ctx, tx, event.UserID, ProfileChanges{
			Username: event.Username,
			Email:    event.Email,
		})
		if err != nil {
			return err
		}

		user = updated
		return nil
	})

	if err != nil {
		return nil, err
	}

	return user, nil
}
