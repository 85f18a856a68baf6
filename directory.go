package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/frndr/backend/match"
	"github.com/jmoiron/sqlx"
)

// directory reads users, profile questions and answers from Postgres.
// It is the CandidateSource, QuestionProvider and UserLookup of the matcher.
//
// Tables used (schema is owned by the main application):
//
//	users(id, username, name, email, avatar_template, active, staged, suspended_till, password_hash)
//	user_fields(id, name, description)
//	user_custom_fields(id, user_id, name, value)  -- name = 'user_field_<user_fields.id>'
type directory struct {
	db         *sqlx.DB
	timeout    time.Duration
	loaderWait time.Duration
}

func newDirectory(db *sqlx.DB, timeout, loaderWait time.Duration) *directory {
	return &directory{db: db, timeout: timeout, loaderWait: loaderWait}
}

type userRow struct {
	ID             int    `db:"id"`
	Username       string `db:"username"`
	Name           string `db:"name"`
	AvatarTemplate string `db:"avatar_template"`
}

func (r userRow) toUser(answers match.AnswerSet) match.User {
	return match.User{
		ID:             r.ID,
		Username:       r.Username,
		Name:           r.Name,
		AvatarTemplate: r.AvatarTemplate,
		Answers:        answers,
	}
}

const userColumns = `id, username, COALESCE(name, '') AS name, COALESCE(avatar_template, '') AS avatar_template`

// candidateQuery builds the eligibility query. $1 is the excluded id, $2 the limit.
func candidateQuery(f match.Filters) string {
	conds := []string{"id <> $1"}
	if f.RealOnly {
		conds = append(conds, "id > 0", "NOT staged")
	}
	if f.ActivatedOnly {
		conds = append(conds, "active")
	}
	if f.ExcludeSuspended {
		conds = append(conds, "(suspended_till IS NULL OR suspended_till <= NOW())")
	}
	return "SELECT " + userColumns + " FROM users WHERE " + strings.Join(conds, " AND ") + " ORDER BY id LIMIT $2"
}

// Candidates returns up to max eligible users other than excludeID.
func (d *directory) Candidates(ctx context.Context, excludeID int, f match.Filters, max int) ([]match.User, error) {
	if max <= 0 {
		return []match.User{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var rows []userRow
	if err := d.db.SelectContext(ctx, &rows, candidateQuery(f), excludeID, max); err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	return d.withAnswers(ctx, rows)
}

// User loads one user with answers.
func (d *directory) User(ctx context.Context, id int) (match.User, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var row userRow
	err := d.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return match.User{}, match.ErrUserNotFound
	} else if err != nil {
		return match.User{}, fmt.Errorf("select user %d: %w", id, err)
	}

	users, err := d.withAnswers(ctx, []userRow{row})
	if err != nil {
		return match.User{}, err
	}
	return users[0], nil
}

type questionRow struct {
	ID          int    `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

// Questions returns every configured profile question.
func (d *directory) Questions(ctx context.Context) ([]match.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var rows []questionRow
	err := d.db.SelectContext(ctx, &rows, `
		SELECT id, name, COALESCE(description, '') AS description
		FROM user_fields
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("select profile questions: %w", err)
	}
	questions := make([]match.Question, len(rows))
	for i, r := range rows {
		questions[i] = match.Question{ID: match.QuestionID(r.ID), Name: r.Name, Description: r.Description}
	}
	return questions, nil
}

// credentials returns the id and password hash of an active user by username
// or email.
func (d *directory) credentials(ctx context.Context, login string) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var row struct {
		ID           int    `db:"id"`
		PasswordHash string `db:"password_hash"`
	}
	err := d.db.GetContext(ctx, &row, `
		SELECT id, COALESCE(password_hash, '') AS password_hash
		FROM users
		WHERE (username = $1 OR email = $1) AND active
	`, login)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", match.ErrUserNotFound
	} else if err != nil {
		return 0, "", fmt.Errorf("select credentials: %w", err)
	}
	return row.ID, row.PasswordHash, nil
}

// withAnswers attaches answer sets through the request's loader, or a one-off
// loader outside of HTTP requests.
func (d *directory) withAnswers(ctx context.Context, rows []userRow) ([]match.User, error) {
	users := make([]match.User, len(rows))
	if len(rows) == 0 {
		return users, nil
	}

	loaders := GetDataLoadersFromContext(ctx)
	if loaders == nil {
		loaders = NewDataLoaders(d.db, d.loaderWait)
	}

	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	answers, errs := loaders.AnswerLoader.LoadMany(ctx, ids)()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("load answers: %w", err)
		}
	}

	for i, r := range rows {
		users[i] = r.toUser(answers[i])
	}
	return users, nil
}
