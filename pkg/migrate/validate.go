package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/multierr"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// ValidateDir checks the migrations in dir. See ValidateFS.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks every .sql file at the root of fsys: the name must be
// <YYYYMMDDHHMMSS>_<slug>.sql, versions must be unique, and the body must
// carry an Up section followed by a Down section. All problems are reported
// together.
func ValidateFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var problems error
	byVersion := make(map[int64]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		mf, ok := parseFileName(name)
		if !ok {
			problems = multierr.Append(problems, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, dup := byVersion[mf.Version]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %d already used by %s", name, mf.Version, prev))
			continue
		}
		byVersion[mf.Version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", name, err))
			continue
		}
		problems = multierr.Append(problems, checkSections(name, string(body)))
	}

	if problems == nil && len(byVersion) == 0 {
		return fmt.Errorf("no migrations found")
	}
	return problems
}

func checkSections(name, body string) error {
	up := strings.Index(body, upMarker)
	down := strings.Index(body, downMarker)
	switch {
	case up < 0:
		return fmt.Errorf("%s: missing %q", name, upMarker)
	case down < 0:
		return fmt.Errorf("%s: missing %q", name, downMarker)
	case down < up:
		return fmt.Errorf("%s: down section precedes up section", name)
	}
	return nil
}
