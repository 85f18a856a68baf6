// Command db-seeder creates test users with random profile answers so the
// discover endpoint has something to match against.
package main

import (
	"context"
	"fmt"
	"maps"
	"math/rand"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// defaultNames are the first names used for test users.
var defaultNames = []string{
	"Alice", "Bob", "Charlie", "Dana", "Eve", "Frank", "Grace", "Henry", "Iris", "Jack",
	"Kate", "Leo", "Maya", "Noah", "Olivia", "Paul", "Quinn", "Ruby", "Sam", "Tara",
	"Uma", "Victor", "Wanda", "Xavier", "Yara", "Zoe", "Amy", "Ben", "Clara", "David",
}

type cfg struct {
	DSN       string
	Seed      int64
	Password  string // same password for everyone (easy login)
	MinAnswer int
	MaxAnswer int
	Names     []string
	Timeout   time.Duration
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var c cfg
	cmd := &cobra.Command{
		Use:   "db-seeder",
		Short: "Create test users with random profile answers",
		Long: "Creates (or updates) one active user per name and gives every configured\n" +
			"profile question a random answer. Create the profile questions first.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), c)
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres DSN [env: DATABASE_URL]")
	f.Int64Var(&c.Seed, "seed", time.Now().UnixNano(), "RNG seed")
	f.StringVar(&c.Password, "password", "TestPass123!@#", "Password assigned to all users")
	f.IntVar(&c.MinAnswer, "min-answer", 1, "Lowest answer value")
	f.IntVar(&c.MaxAnswer, "max-answer", 3, "Highest answer value")
	f.StringSliceVar(&c.Names, "names", defaultNames, "First names of the users to create")
	f.DurationVar(&c.Timeout, "timeout", 2*time.Minute, "Overall timeout")
	return cmd
}

func (c cfg) validate() error {
	switch {
	case c.DSN == "":
		return fmt.Errorf("missing DSN: provide --dsn or set DATABASE_URL")
	case c.MinAnswer > c.MaxAnswer:
		return fmt.Errorf("--min-answer (%d) is above --max-answer (%d)", c.MinAnswer, c.MaxAnswer)
	case len(c.Names) == 0:
		return fmt.Errorf("--names must not be empty")
	case c.Password == "":
		return fmt.Errorf("--password must not be empty")
	}
	return nil
}

func run(ctx context.Context, c cfg) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	db, err := sqlx.Open("postgres", c.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	pwHash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	r := rand.New(rand.NewSource(c.Seed))
	created, updated, err := seed(ctx, db, r, c, string(pwHash))
	if err != nil {
		return err
	}
	log.Info().Int("created", created).Int("updated", updated).Str("password", c.Password).Msg("seed complete")
	return nil
}

// seed upserts one user per name and rewrites their answers, all in one
// transaction.
func seed(ctx context.Context, db *sqlx.DB, r *rand.Rand, c cfg, pwHash string) (created, updated int, err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var fieldIDs []int
	if err = tx.SelectContext(ctx, &fieldIDs, `SELECT id FROM user_fields ORDER BY id`); err != nil {
		return 0, 0, fmt.Errorf("select user fields: %w", err)
	}
	if len(fieldIDs) == 0 {
		log.Warn().Msg("no profile questions configured; users get no answers")
	}

	for _, name := range c.Names {
		username := strings.ToLower(strings.TrimSpace(name))
		if username == "" {
			continue
		}

		var id int
		var isNew bool
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO users (username, name, email, password_hash, active, staged)
			VALUES ($1, $2, $3, $4, TRUE, FALSE)
			ON CONFLICT (username) DO UPDATE SET active = TRUE
			RETURNING id, (xmax = 0) AS inserted
		`, username, name, username+"@example.com", pwHash).Scan(&id, &isNew)
		if err != nil {
			return 0, 0, fmt.Errorf("upsert user %s: %w", username, err)
		}

		answers := randomAnswers(r, fieldIDs, c.MinAnswer, c.MaxAnswer)
		if err = writeAnswers(ctx, tx, id, answers); err != nil {
			return 0, 0, fmt.Errorf("answers for %s: %w", username, err)
		}

		if isNew {
			created++
		} else {
			updated++
		}
		log.Info().Str("username", username).Bool("created", isNew).Interface("answers", answers).Msg("seeded user")
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return created, updated, nil
}

// randomAnswers picks a value in [lo, hi] for every field, keyed by the
// custom field name that stores it.
func randomAnswers(r *rand.Rand, fieldIDs []int, lo, hi int) map[string]string {
	answers := make(map[string]string, len(fieldIDs))
	for _, id := range fieldIDs {
		answers[fieldName(id)] = strconv.Itoa(lo + r.Intn(hi-lo+1))
	}
	return answers
}

func fieldName(id int) string {
	return "user_field_" + strconv.Itoa(id)
}

func writeAnswers(ctx context.Context, tx *sqlx.Tx, userID int, answers map[string]string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_custom_fields WHERE user_id = $1 AND name LIKE 'user_field_%'`, userID); err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(answers)) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_custom_fields (user_id, name, value) VALUES ($1, $2, $3)`,
			userID, name, answers[name]); err != nil {
			return err
		}
	}
	return nil
}
