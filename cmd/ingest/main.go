// Command ingest pulls player reference data and weekly stat lines from the
// upstream feed into the local store, then exits. Run it from cron or a
// scheduler around game days.
package main

import (
	"context"
	"flag"

	fxmodules "fantasy-tracker/internal/fx"
	"fantasy-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	season := flag.Int("season", 0, "season to ingest, e.g. 2025")
	week := flag.Int("week", 0, "week to ingest; 0 skips stat ingestion")
	players := flag.Bool("players", true, "refresh player reference data")
	flag.Parse()

	app := fx.New(
		fxmodules.Module,
		fx.Invoke(func(lc fx.Lifecycle, ingest *service.IngestService, logger zerolog.Logger, shutdowner fx.Shutdowner) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go func() {
						if err := run(context.Background(), ingest, logger, *players, *season, *week); err != nil {
							logger.Error().Err(err).Msg("ingestion failed")
							_ = shutdowner.Shutdown(fx.ExitCode(1))
							return
						}
						_ = shutdowner.Shutdown()
					}()
					return nil
				},
			})
		}),
	)

	app.Run()
}

func run(ctx context.Context, ingest *service.IngestService, logger zerolog.Logger, players bool, season, week int) error {
	if players {
		count, err := ingest.SyncPlayers(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int("count", count).Msg("player sync complete")
	}

	if season > 0 && week > 0 {
		count, err := ingest.SyncWeek(ctx, season, week)
		if err != nil {
			return err
		}
		logger.Info().Int("season", season).Int("week", week).Int("count", count).Msg("week sync complete")
	}

	return nil
}
