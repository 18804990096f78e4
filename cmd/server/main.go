package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tigertrust/tigertrust/internal/api"
	"github.com/tigertrust/tigertrust/internal/db"
	"github.com/tigertrust/tigertrust/internal/identity"
	"github.com/tigertrust/tigertrust/internal/middleware"
	"github.com/tigertrust/tigertrust/internal/services"
	"github.com/tigertrust/tigertrust/internal/utils"
)

func main() {
	addr := utils.SafeEnv("TIGERTRUST_ADDR", ":8080")
	commit := os.Getenv("TIGERTRUST_COMMIT")
	buildTime := os.Getenv("TIGERTRUST_BUILD_TIME")

	store, err := openStore()
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	admins, err := adminKeys()
	if err != nil {
		log.Fatalf("admin keys: %v", err)
	}
	if len(admins) == 0 {
		log.Printf("warning: TIGERTRUST_ADMIN_KEYS not set; every admin operation will be rejected")
	}

	profiles := services.NewProfileService(api.NewProfileStore(store), services.NewAuditNotifier(store), admins)
	auth := services.NewAuthService(adminCredentials(admins), middleware.SignToken)

	mux := http.NewServeMux()
	api.NewRouter(store, profiles, auth).Register(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "TigerTrust Ledger API",
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	handler := middleware.WithAuth(mux)

	log.Printf("TigerTrust ledger listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore picks SQLite when a path is configured, otherwise the in-memory
// store for local runs.
func openStore() (api.Store, error) {
	path := utils.SafeEnv("TIGERTRUST_SQLITE_PATH", "")
	if path == "" {
		log.Printf("TIGERTRUST_SQLITE_PATH not set; using in-memory store")
		return api.NewMemoryStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.RunMigrations(sqlDB, utils.SafeEnv("TIGERTRUST_MIGRATIONS_DIR", "")); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db.NewStore(sqlDB)
}

func adminKeys() ([]identity.Key, error) {
	var keys []identity.Key
	for _, raw := range utils.EnvList("TIGERTRUST_ADMIN_KEYS") {
		k, err := identity.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", raw, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// adminCredentials builds the login table for the HTTP surface. The first
// configured admin key is the signer the credential acts as.
func adminCredentials(admins []identity.Key) []services.AdminCredential {
	email := os.Getenv("TIGERTRUST_ADMIN_EMAIL")
	hash := os.Getenv("TIGERTRUST_ADMIN_PASSWORD_HASH")
	if email == "" || hash == "" || len(admins) == 0 {
		log.Printf("warning: admin login not configured (TIGERTRUST_ADMIN_EMAIL/TIGERTRUST_ADMIN_PASSWORD_HASH)")
		return nil
	}
	return []services.AdminCredential{{Email: email, PassHash: []byte(hash), SignerKey: admins[0]}}
}
