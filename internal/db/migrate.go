package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies every .sql file in order. When dir is non-empty and
// exists it overrides the embedded set; otherwise the migrations compiled
// into the binary run.
func RunMigrations(sqlDB *sql.DB, dir string) error {
	var fsys fs.FS
	pattern := "migrations/*.sql"
	if dir != "" {
		if _, err := os.Stat(dir); err == nil {
			fsys, pattern = os.DirFS(dir), "*.sql"
		}
	}
	if fsys == nil {
		fsys = embeddedMigrations
	}

	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if len(data) == 0 {
			continue
		}
		if _, err := sqlDB.Exec(string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
	}
	return nil
}
