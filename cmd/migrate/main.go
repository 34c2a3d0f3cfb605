package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	infraBQ "github.com/dvloznov/edufin/internal/infra/bigquery"
	"github.com/dvloznov/edufin/internal/infra/sqlite"
	"github.com/dvloznov/edufin/internal/logger"
	"google.golang.org/api/iterator"
)

// AppliedMigration represents a migration that has already been applied
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

var (
	projectID  = flag.String("project", os.Getenv("GOOGLE_CLOUD_PROJECT"), "GCP project ID for BigQuery migrations")
	datasetID  = flag.String("dataset", "edufin", "BigQuery dataset ID")
	appliedBy  = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
	sqlitePath = flag.String("sqlite", "", "Migrate the SQLite ledger at this path instead of BigQuery")
)

func main() {
	flag.Parse()

	log := logger.New(logger.Options{Console: true})
	ctx := logger.WithContext(context.Background(), log)

	if *sqlitePath != "" {
		store, err := sqlite.Open(*sqlitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *sqlitePath).Msg("Failed to migrate SQLite ledger")
		}
		_ = store.Close()
		log.Info().Str("path", *sqlitePath).Msg("SQLite ledger is up to date")
		return
	}

	// Validate required flags
	if *projectID == "" {
		log.Fatal().Msg("Error: -project flag is required. Please specify your GCP project ID.")
	}

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	log.Info().Str("project_id", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	if err := runQuery(ctx, client, schemaMigrationsDDL(*projectID, *datasetID), nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure schema_migrations table")
	}

	migrations, err := infraBQ.Migrations(*projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Msg("Found migration files")

	applied, err := getAppliedMigrations(ctx, client)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get applied migrations")
	}
	log.Info().Int("count", len(applied)).Msg("Found already applied migrations")

	pending, err := pendingMigrations(migrations, applied)
	if err != nil {
		log.Fatal().Err(err).Msg("Applied migrations do not match the embedded files")
	}

	for _, m := range pending {
		log.Info().Msgf("  [RUN]  %04d_%s", m.Version, m.Name)
		if err := applyMigration(ctx, client, m); err != nil {
			log.Fatal().Err(err).Msgf("Failed to apply migration %04d_%s", m.Version, m.Name)
		}
		log.Info().Msgf("  [OK]   %04d_%s", m.Version, m.Name)
	}

	if len(pending) == 0 {
		log.Info().Msg("No new migrations to apply. Database is up to date.")
	} else {
		log.Info().Int("count", len(pending)).Msg("Successfully applied migrations")
	}
}

// pendingMigrations returns the migrations not yet applied, in version
// order. An applied migration whose file changed since is an error.
func pendingMigrations(all []infraBQ.Migration, applied []AppliedMigration) ([]infraBQ.Migration, error) {
	done := make(map[int]AppliedMigration, len(applied))
	for _, a := range applied {
		done[a.Version] = a
	}

	var pending []infraBQ.Migration
	for _, m := range all {
		a, ok := done[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if a.Checksum != "" && a.Checksum != m.Checksum {
			return nil, fmt.Errorf("migration %04d_%s was modified after being applied", m.Version, m.Name)
		}
	}
	return pending, nil
}

func schemaMigrationsDDL(project, dataset string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS `+"`%s.%s.schema_migrations`"+` (
			version       INT64 NOT NULL,
			name          STRING NOT NULL,
			applied_at    TIMESTAMP NOT NULL,
			checksum      STRING,
			applied_by    STRING
		)
	`, project, dataset)
}

// runQuery runs sql as a job and waits for it to finish.
func runQuery(ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) error {
	query := client.Query(sql)
	query.Parameters = params
	job, err := query.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// getAppliedMigrations retrieves the list of already applied migrations
func getAppliedMigrations(ctx context.Context, client *bigquery.Client) ([]AppliedMigration, error) {
	sql := fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM `+"`%s.%s.schema_migrations`"+`
		ORDER BY version ASC
	`, *projectID, *datasetID)

	it, err := client.Query(sql).Read(ctx)
	if err != nil {
		// If table doesn't exist yet, return empty list
		if strings.Contains(err.Error(), "Not found") {
			return []AppliedMigration{}, nil
		}
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64
			Name      string
			AppliedAt time.Time
			Checksum  bigquery.NullString
			AppliedBy bigquery.NullString
		}

		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}

		am := AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
		}
		if row.Checksum.Valid {
			am.Checksum = row.Checksum.StringVal
		}
		if row.AppliedBy.Valid {
			am.AppliedBy = row.AppliedBy.StringVal
		}
		applied = append(applied, am)
	}

	return applied, nil
}

// applyMigration executes a migration and records it in schema_migrations.
func applyMigration(ctx context.Context, client *bigquery.Client, m infraBQ.Migration) error {
	log := logger.FromContext(ctx)
	if err := runQuery(ctx, client, m.SQL, nil); err != nil {
		return err
	}

	sql := fmt.Sprintf(`
		INSERT INTO `+"`%s.%s.schema_migrations`"+`
		(version, name, applied_at, checksum, applied_by)
		VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
	`, *projectID, *datasetID)

	if err := runQuery(ctx, client, sql, []bigquery.QueryParameter{
		{Name: "version", Value: m.Version},
		{Name: "name", Value: m.Name},
		{Name: "checksum", Value: m.Checksum},
		{Name: "applied_by", Value: *appliedBy},
	}); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	log.Debug().Str("checksum", m.Checksum).Msg("Migration recorded")
	return nil
}
