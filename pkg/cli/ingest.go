package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/opsgrid/defectpulse/pkg/cli/config"
	"github.com/opsgrid/defectpulse/pkg/domain/model"
	"github.com/opsgrid/defectpulse/pkg/service/classifier"
	"github.com/opsgrid/defectpulse/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var (
		firestoreCfg config.Firestore
		metricsCfg   config.Metrics
		weekEnding   string
		uploadedBy   string
		input        string
		replace      bool
	)

	flags := joinFlags(
		firestoreCfg.Flags(),
		metricsCfg.Flags(),
		[]cli.Flag{
			&cli.StringFlag{
				Name:        "week-ending",
				Usage:       "Week ending date (YYYY-MM-DD)",
				Required:    true,
				Destination: &weekEnding,
			},
			&cli.StringFlag{
				Name:        "uploaded-by",
				Usage:       "Name recorded as the uploader",
				Sources:     cli.EnvVars("DEFECTPULSE_UPLOADED_BY"),
				Destination: &uploadedBy,
			},
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "Path to a JSON file with the exported defect rows",
				Required:    true,
				Destination: &input,
			},
			&cli.BoolFlag{
				Name:        "replace",
				Usage:       "Replace the existing upload for the week instead of failing on conflict",
				Destination: &replace,
			},
		},
	)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Ingest a weekly defect export from a file",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			week, err := time.Parse("2006-01-02", weekEnding)
			if err != nil {
				return goerr.Wrap(err, "invalid week-ending date", goerr.V("week_ending", weekEnding))
			}

			rows, err := readRows(input)
			if err != nil {
				return err
			}

			repo, err := firestoreCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			rules, err := metricsCfg.Rules()
			if err != nil {
				return err
			}
			cls, err := classifier.New(rules)
			if err != nil {
				return err
			}

			weekday, err := metricsCfg.Weekday()
			if err != nil {
				return err
			}

			ledger := usecase.NewUpload(repo,
				usecase.WithClassifier(cls),
				usecase.WithWeekEndingDay(weekday),
			)

			upload, err := ledger.Commit(ctx, week, uploadedBy, rows)
			if errors.Is(err, model.ErrWeekConflict) && replace {
				prior, lookupErr := repo.GetUploadByWeek(ctx, week)
				if lookupErr != nil {
					return lookupErr
				}
				upload, err = ledger.Replace(ctx, prior.ID, uploadedBy, rows)
			}
			if err != nil {
				return err
			}

			logger.Info("Ingest complete",
				slog.String("uploadID", string(upload.ID)),
				slog.String("weekEnding", upload.WeekKey()),
				slog.Int("records", upload.RecordCount),
			)
			return nil
		},
	}
}

func readRows(path string) ([]model.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
	}

	var rows []model.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, goerr.Wrap(err, "failed to parse input file", goerr.V("path", path))
	}

	return rows, nil
}
