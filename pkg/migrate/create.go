package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9]+`)
	fileNameRe    = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
)

const sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`

// migrationFile is a parsed <version>_<slug>.sql name.
type migrationFile struct {
	Version int64
	Slug    string
	Name    string
}

func parseFileName(name string) (migrationFile, bool) {
	m := fileNameRe.FindStringSubmatch(name)
	if m == nil {
		return migrationFile{}, false
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return migrationFile{}, false
	}
	return migrationFile{Version: v, Slug: m[2], Name: name}, true
}

func slugify(name string) string {
	return strings.Trim(slugInvalidRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// CreateSQLMigration writes an empty goose migration named
// <version>_<slug>.sql into dir and returns its path. The version is the
// current UTC timestamp, bumped past the newest existing file so two
// migrations created within the same second still sort.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigration(dir, name, time.Now().UTC())
}

func createSQLMigration(dir, name string, now time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	latest, err := latestVersion(os.DirFS(dir))
	if err != nil {
		return "", err
	}
	version, _ := strconv.ParseInt(now.Format(versionLayout), 10, 64)
	if version <= latest {
		version = latest + 1
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, slug))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, sqlTemplate, slug); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func latestVersion(fsys fs.FS) (int64, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return 0, fmt.Errorf("read migrations: %w", err)
	}
	var latest int64
	for _, e := range entries {
		if mf, ok := parseFileName(e.Name()); ok && mf.Version > latest {
			latest = mf.Version
		}
	}
	return latest, nil
}
