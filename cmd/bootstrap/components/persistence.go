package components

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	"support-center/internal/infra/db"
	"support-center/internal/infra/readstore"
	"support-center/internal/infra/repository"
	"support-center/internal/infra/uow"
	"support-center/internal/usecase/queries"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		uow.NewPostgresUoW,
		fx.Annotate(
			readstore.NewAppointmentReadStore,
			fx.As(new(queries.AppointmentViewRepo)),
		),
		// Pool-backed repositories serve the read side; the same
		// constructors run against transactions inside the unit of work.
		fx.Annotate(
			repository.NewSettingsRepository,
			fx.As(new(queries.SettingsReader)),
		),
		fx.Annotate(
			repository.NewAppointmentRepository,
			fx.As(new(queries.BookedSlotReader)),
		),
	),
)

// NewDBTX exposes the pool under the repository-facing interface.
func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
