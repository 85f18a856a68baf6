package main

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestRandomAnswers(t *testing.T) {
	fields := []int{1, 2, 10}
	answers := randomAnswers(rand.New(rand.NewSource(7)), fields, 1, 3)

	require.Len(t, answers, 3)
	for _, id := range fields {
		v, err := strconv.Atoi(answers[fieldName(id)])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 3)
	}

	again := randomAnswers(rand.New(rand.NewSource(7)), fields, 1, 3)
	assert.Equal(t, answers, again, "same seed, same answers")

	fixed := randomAnswers(rand.New(rand.NewSource(1)), fields, 2, 2)
	assert.Equal(t, map[string]string{"user_field_1": "2", "user_field_2": "2", "user_field_10": "2"}, fixed)
}

func TestValidate(t *testing.T) {
	ok := cfg{DSN: "postgres://x", MinAnswer: 1, MaxAnswer: 3, Names: []string{"Alice"}, Password: "pw"}
	require.NoError(t, ok.validate())

	tests := []struct {
		name   string
		mutate func(*cfg)
		want   string
	}{
		{"Missing DSN", func(c *cfg) { c.DSN = "" }, "missing DSN"},
		{"Inverted range", func(c *cfg) { c.MinAnswer = 4 }, "--min-answer"},
		{"No names", func(c *cfg) { c.Names = nil }, "--names"},
		{"No password", func(c *cfg) { c.Password = "" }, "--password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ok
			tt.mutate(&c)
			assert.ErrorContains(t, c.validate(), tt.want)
		})
	}
}

func TestSeed(t *testing.T) {
	db, mock := newMock(t)
	c := cfg{Names: []string{"Alice", " ", "Bob"}, MinAnswer: 1, MaxAnswer: 3}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM user_fields`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("alice", "Alice", "alice@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(11, true))
	mock.ExpectExec(`DELETE FROM user_custom_fields`).WithArgs(11).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO user_custom_fields`).WithArgs(11, "user_field_1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO user_custom_fields`).WithArgs(11, "user_field_2", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("bob", "Bob", "bob@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow(12, false))
	mock.ExpectExec(`DELETE FROM user_custom_fields`).WithArgs(12).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO user_custom_fields`).WithArgs(12, "user_field_1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO user_custom_fields`).WithArgs(12, "user_field_2", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, updated, err := seed(context.Background(), db, rand.New(rand.NewSource(1)), c, "hash")
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRollsBackOnFailure(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("unique violation")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM user_fields`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(boom)
	mock.ExpectRollback()

	_, _, err := seed(context.Background(), db, rand.New(rand.NewSource(1)), cfg{Names: []string{"Alice"}}, "hash")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "upsert user alice")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRootCmdFlags(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--min-answer", "5", "--max-answer", "2", "--dsn", "postgres://x"})

	err := cmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "--min-answer (5) is above --max-answer (2)")
}
