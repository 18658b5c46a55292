package migrate

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db"
	"github.com/rohanmehta-dev/vaanijya-backend/pkg/logger"
)

// AutoRun applies pending migrations at boot when the feature flag is set.
// Intended for dev environments; production runs the migrate binary.
func AutoRun(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	logg.Info(ctx, "running database migrations")
	if err := Up(ctx, sqlDB); err != nil {
		return err
	}
	logg.Info(ctx, "database migrations complete")
	return nil
}
