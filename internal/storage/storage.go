// Package storage defines the Storage interface, the contract that any
// document store backend must satisfy to work with this application.
//
// Handlers (HTTP layer) depend only on this interface, so the same
// handlers run against MongoDB in production and against the embedded
// SQLite backend in development and tests.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-management/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no student matches the given id.
// Callers check it with errors.Is.
var ErrNotFound = errors.New("student not found")

// Storage is the document store contract.
//
// Ids are passed in their native form. Turning the string from the URL
// into a primitive.ObjectID is the caller's job.
type Storage interface {
	// CreateStudent inserts a new student and returns it with the id
	// assigned by the store.
	CreateStudent(ctx context.Context, student types.Student) (types.Student, error)

	// ListStudents returns every student matching filter, in the store's
	// natural order. Returns an empty slice (not nil) when nothing matches.
	ListStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error)

	// GetStudentByID returns ErrNotFound if no student has this id.
	GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.Student, error)

	// UpdateStudentByID writes only the non-nil fields of patch.
	// An empty patch is a no-op and never fails.
	UpdateStudentByID(ctx context.Context, id primitive.ObjectID, patch types.StudentPatch) error

	// DeleteStudentByID removes the student permanently.
	DeleteStudentByID(ctx context.Context, id primitive.ObjectID) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
