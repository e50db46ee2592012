package commands

import (
	"context"

	"support-center/internal/domain/appointment"
	reqdto "support-center/internal/handler/dto/request"
	"support-center/internal/pkg/errs"
	"support-center/internal/usecase/queries"
	"support-center/internal/usecase/shared"
)

var ErrSettingsValidation = errs.New("settings validation error")

type SettingsCommands interface {
	// Upsert writes the global policy or a per-technician override.
	// Manager only.
	Upsert(ctx context.Context, req reqdto.UpdateSettingsRequest, actor appointment.Actor) (*queries.SettingsView, error)
}

type settingsUseCaseImpl struct {
	uow shared.UnitOfWork
}

func NewSettingsUseCase(uow shared.UnitOfWork) SettingsCommands {
	return &settingsUseCaseImpl{uow: uow}
}

func (u *settingsUseCaseImpl) Upsert(
	ctx context.Context,
	req reqdto.UpdateSettingsRequest,
	actor appointment.Actor,
) (*queries.SettingsView, error) {
	if !actor.IsManager {
		return nil, ErrForbidden
	}

	settings := req.ToDomain()
	if err := settings.Validate(); err != nil {
		return nil, errs.Mark(err, ErrSettingsValidation)
	}

	err := u.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Settings().Upsert(ctx, settings); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return queries.NewSettingsView(settings), nil
}
