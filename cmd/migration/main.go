// Command migration manages the snapshot-archive schema with
// golang-migrate. The archive is a single table, so the surface is small:
// up, down, version and force.
package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	m, err := newMigrator()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("close migrator: source=%v db=%v", srcErr, dbErr)
		}
	}()

	var runErr error
	switch cmd := strings.ToLower(strings.TrimSpace(os.Args[1])); cmd {
	case "up":
		runErr = runUp(m)
	case "down":
		runErr = runDown(m, os.Args[2:])
	case "version":
		runErr = runVersion(m)
	case "force":
		runErr = runForce(m, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}

func runUp(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Println("schema is up to date")
	return nil
}

func runDown(m *migrate.Migrate, args []string) error {
	steps := 1
	if len(args) > 0 {
		parsed, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || parsed <= 0 {
			return fmt.Errorf("down steps must be a positive integer, got %q", args[0])
		}
		steps = parsed
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("roll back %d migration(s): %w", steps, err)
	}
	log.Printf("rolled back %d migration(s)", steps)
	return nil
}

func runVersion(m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("version: none")
		fmt.Println("dirty: false")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	fmt.Printf("version: %d\n", version)
	fmt.Printf("dirty: %t\n", dirty)
	return nil
}

func runForce(m *migrate.Migrate, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("force requires a version argument")
	}
	version, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}

	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	log.Printf("forced version to %d", version)
	return nil
}

func newMigrator() (*migrate.Migrate, error) {
	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}

	dir, err := locateMigrationsDir()
	if err != nil {
		return nil, err
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), applyDriverOptions(dbURL))
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// locateMigrationsDir picks the first existing directory out of the
// MIGRATIONS_DIR override, the repo-relative path and the container path.
func locateMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}

	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

// applyDriverOptions mirrors the api binary's connection tweaks: prepared
// binary results stay off unless explicitly re-enabled.
func applyDriverOptions(raw string) string {
	disable := true
	if value := strings.TrimSpace(os.Getenv("DB_DISABLE_PREPARED_BINARY_RESULT")); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			disable = parsed
		}
	}
	if !disable {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func usage() {
	fmt.Println("usage: migration <up|down [steps]|version|force <version>>")
}
