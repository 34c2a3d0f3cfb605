package bigquery

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration is one versioned DDL file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// ParseMigrationFilename extracts version and name from "0001_name.sql".
func ParseMigrationFilename(filename string) (int, string, bool) {
	m := migrationPattern.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return v, m[2], true
}

// Migrations returns the embedded migrations sorted by version with
// {{PROJECT_ID}} and {{DATASET_ID}} substituted. Checksums are taken over the
// raw file so the same migration matches across projects.
func Migrations(projectID, datasetID string) ([]Migration, error) {
	return loadMigrations(migrationFiles, "migrations", projectID, datasetID)
}

func loadMigrations(fsys fs.FS, dir, projectID, datasetID string) ([]Migration, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("Migrations: reading %s: %w", dir, err)
	}

	var out []Migration
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		version, name, ok := ParseMigrationFilename(f.Name())
		if !ok {
			continue
		}
		content, err := fs.ReadFile(fsys, dir+"/"+f.Name())
		if err != nil {
			return nil, fmt.Errorf("Migrations: reading %s: %w", f.Name(), err)
		}
		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", projectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)
		out = append(out, Migration{
			Version:  version,
			Name:     name,
			Filename: f.Name(),
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
