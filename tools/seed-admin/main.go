package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goold/roomsched/libs/config"
	"github.com/goold/roomsched/libs/db"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// seed-admin creates (or promotes and re-activates) an administrator account directly in the
// scheduling database. Public signup only creates customers, so the first admin comes from here.
func main() {
	config.LoadDotEnv()
	var (
		dbURL    = flag.String("database-url", config.String("DATABASE_URL", ""), "scheduling database url")
		email    = flag.String("email", config.String("ADMIN_EMAIL", ""), "admin email")
		password = flag.String("password", config.String("ADMIN_PASSWORD", ""), "admin password (min 6 chars)")
		first    = flag.String("first", config.String("ADMIN_FIRST_NAME", "Admin"), "first name")
		last     = flag.String("last", config.String("ADMIN_LAST_NAME", "User"), "last name")
	)
	flag.Parse()

	if strings.TrimSpace(*dbURL) == "" {
		fatal("DATABASE_URL is required")
	}
	if strings.TrimSpace(*email) == "" {
		fatal("ADMIN_EMAIL is required")
	}
	if len(*password) < 6 {
		fatal("ADMIN_PASSWORD must have at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, *dbURL)
	if err != nil {
		fatal(err.Error())
	}
	defer pool.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fatal(err.Error())
	}

	var (
		id      int64
		created bool
	)
	err = pool.InTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, email, password_hash, account_type, status)
			VALUES ($1, $2, lower($3), $4, 'admin', TRUE)
			ON CONFLICT ((lower(email))) DO UPDATE
			SET account_type = 'admin', status = TRUE, password_hash = EXCLUDED.password_hash, updated_at = now()
			RETURNING id, (xmax = 0)
		`, *first, *last, strings.TrimSpace(*email), string(hash)).Scan(&id, &created)
	})
	if err != nil {
		fatal(err.Error())
	}

	action := "updated"
	if created {
		action = "created"
	}
	fmt.Printf("admin %s id=%d email=%s\n", action, id, strings.ToLower(strings.TrimSpace(*email)))
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
