// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite NEXT TO MONGODB?
// ───────────────────────────
// SQLite stores everything in a single file on disk. There is no
// network and no separate server process, so the whole API can run (and
// be tested end to end) without a MongoDB deployment.
//
// The document shape is flattened into columns. Ids are still MongoDB
// ObjectIDs, generated in-process and stored as their hex string, so
// clients cannot tell the two backends apart.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

var _ storage.Storage = (*SQLite)(nil)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.StoragePath, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	// sql.Open does NOT open a real connection yet. It only validates
	// the driver name and data source name (DSN).
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Schema:
	//   id      - ObjectID hex string, assigned on insert
	//   name    - student's full name
	//   age     - age in years
	//   city    - address.city
	//   country - address.country
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id      TEXT    PRIMARY KEY,
			name    TEXT    NOT NULL,
			age     INTEGER NOT NULL,
			city    TEXT    NOT NULL,
			country TEXT    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// CreateStudent inserts a new row. The id is generated here because
// SQLite has no ObjectID type of its own.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (id, name, age, city, country) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	student.ID = primitive.NewObjectID()

	_, err = stmt.ExecContext(ctx,
		student.ID.Hex(),
		student.Name,
		student.Age,
		student.Address.City,
		student.Address.Country,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return student, nil
}

// ListStudents builds the WHERE clause from the filter. Placeholders are
// used for every value, never string concatenation.
func (s *SQLite) ListStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	var (
		where []string
		args  []any
	)
	if filter.Country != "" {
		where = append(where, "country = ?")
		args = append(args, filter.Country)
	}
	if filter.MinAge != nil {
		where = append(where, "age >= ?")
		args = append(args, *filter.MinAge)
	}

	query := "SELECT id, name, age, city, country FROM students"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListStudents: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListStudents: rows iteration: %w", err)
	}

	return students, nil
}

func (s *SQLite) GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.Student, error) {
	row := s.Db.QueryRowContext(ctx,
		"SELECT id, name, age, city, country FROM students WHERE id = ? LIMIT 1",
		id.Hex(),
	)

	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// UpdateStudentByID only names the columns present in patch in the SET
// clause. RowsAffected counts matched rows, even when the new values equal
// the old ones, so zero really means "no such student".
func (s *SQLite) UpdateStudentByID(ctx context.Context, id primitive.ObjectID, patch types.StudentPatch) error {
	var (
		set  []string
		args []any
	)
	if patch.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Age != nil {
		set = append(set, "age = ?")
		args = append(args, *patch.Age)
	}
	if patch.Address != nil {
		address := patch.Address.Address()
		set = append(set, "city = ?", "country = ?")
		args = append(args, address.City, address.Country)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id.Hex())

	result, err := s.Db.ExecContext(ctx,
		"UPDATE students SET "+strings.Join(set, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	return requireAffected(result, "UpdateStudentByID")
}

func (s *SQLite) DeleteStudentByID(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.Db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id.Hex())
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	return requireAffected(result, "DeleteStudentByID")
}

func (s *SQLite) Close(context.Context) error {
	return s.Db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanStudent reads the columns in SELECT order and turns the stored hex
// string back into an ObjectID.
func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		hexID   string
	)
	if err := row.Scan(
		&hexID,
		&student.Name,
		&student.Age,
		&student.Address.City,
		&student.Address.Country,
	); err != nil {
		return types.Student{}, err
	}

	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return types.Student{}, fmt.Errorf("stored id %q: %w", hexID, err)
	}
	student.ID = id

	return student, nil
}

func requireAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
