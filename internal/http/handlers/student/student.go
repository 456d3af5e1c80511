// Package student contains all HTTP handlers related to the Student resource.
//
// Every handler is built by a factory that receives the storage and
// returns the func(http.ResponseWriter, *http.Request) the router needs:
//
//	router.HandleFunc("POST /students", student.Create(store))
//	//                                  ^^^^^^^^^^^^^^^^^^^^^
//	//              Create(store) runs ONCE at startup. The handler it
//	//              returns runs on EVERY incoming request.
package student

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
	"github.com/aanand-mishra/student-management/internal/utils/response"
)

const (
	msgNotFound  = "Student not found"
	msgDeleted   = "Student deleted successfully"
	msgInvalidID = "invalid student id"
	msgInternal  = "internal server error"
)

// Register mounts the five student routes on mux.
//
//	POST   /students        → Create
//	GET    /students        → List
//	GET    /students/{id}   → Fetch
//	PATCH  /students/{id}   → Update
//	DELETE /students/{id}   → Delete
func Register(mux *http.ServeMux, store storage.Storage) {
	mux.HandleFunc("POST /students", Create(store))
	mux.HandleFunc("GET /students", List(store))
	mux.HandleFunc("GET /students/{id}", Fetch(store))
	mux.HandleFunc("PATCH /students/{id}", Update(store))
	mux.HandleFunc("DELETE /students/{id}", Delete(store))
}

// listResponse wraps GET /students results in {"data": [...]}.
type listResponse struct {
	Data []types.Student `json:"data"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Create handles POST /students
//
// Request body (JSON), every field required:
//
//	{ "name": "Ada", "age": 20, "address": { "city": "Paris", "country": "France" } }
//
// Success response (201 Created): the stored student, including its new id.
//
// Error responses:
//
//	422 Unprocessable Entity - empty body, malformed JSON, or failed validation
//	500 Internal             - storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func Create(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.StudentCreate
		if !decodeBody(w, r, &req) || !validBody(w, req) {
			return
		}

		student, err := store.CreateStudent(r.Context(), req.Student())
		if err != nil {
			internalError(w, "error creating student", err)
			return
		}

		slog.Info("student created", slog.String("id", student.ID.Hex()))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// List handles GET /students?country=France&age=20
//
// Both query parameters are optional:
//
//	country - exact match on address.country
//	age     - only students at least this old
//
// Success response (200 OK), never null:
//
//	{ "data": [ { "id": "...", "name": "Ada", ... } ] }
//
// ─────────────────────────────────────────────────────────────────────────────
func List(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter := types.StudentFilter{Country: query.Get("country")}

		if raw := query.Get("age"); raw != "" {
			age, err := strconv.Atoi(raw)
			if err != nil {
				response.WriteJSON(w, http.StatusUnprocessableEntity,
					response.FieldErrors(map[string]string{"age": "must be an integer"}))
				return
			}
			filter.MinAge = &age
		}

		slog.Info("listing students",
			slog.String("country", filter.Country),
			slog.String("age", query.Get("age")))

		students, err := store.ListStudents(r.Context(), filter)
		if err != nil {
			internalError(w, "error listing students", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, listResponse{Data: students})
	}
}

// Fetch handles GET /students/{id}
//
//	200 OK          - the student
//	400 Bad Request - id is not a 24-char hex ObjectID
//	404 Not Found   - no student with this id
func Fetch(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a student", slog.String("id", id.Hex()))

		student, err := store.GetStudentByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Error(msgNotFound))
			return
		}
		if err != nil {
			internalError(w, "error getting student", err, slog.String("id", id.Hex()))
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PATCH /students/{id}
// Changes only the fields present in the body. A field sent with a zero
// value ("", 0) IS applied; a field left out is not touched.
//
//	{ "age": 21 }
//
// An empty object {} is a successful no-op.
//
// Success response: 204 No Content, empty body.
//
// Error responses:
//
//	400 Bad Request          - malformed id
//	404 Not Found            - no student with this id
//	422 Unprocessable Entity - bad body, or a field sent as null
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a student", slog.String("id", id.Hex()))

		var req types.StudentUpdate
		if !decodeBody(w, r, &req) {
			return
		}

		if nulls := req.NullFields(); len(nulls) > 0 {
			fields := make(map[string]string, len(nulls))
			for _, f := range nulls {
				fields[f] = "must not be null"
			}
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.FieldErrors(fields))
			return
		}

		patch := req.Patch()
		if !validBody(w, patch) {
			return
		}

		if patch.IsEmpty() {
			slog.Debug("empty update, nothing to do", slog.String("id", id.Hex()))
			response.WriteNoContent(w)
			return
		}

		err := store.UpdateStudentByID(r.Context(), id, patch)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Error(msgNotFound))
			return
		}
		if err != nil {
			internalError(w, "error updating student", err, slog.String("id", id.Hex()))
			return
		}

		slog.Info("student updated", slog.String("id", id.Hex()))
		response.WriteNoContent(w)
	}
}

// Delete handles DELETE /students/{id}
// Permanently removes the student; there is no soft delete.
//
//	200 OK        - { "message": "Student deleted successfully" }
//	400, 404      - as for Fetch
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a student", slog.String("id", id.Hex()))

		err := store.DeleteStudentByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Error(msgNotFound))
			return
		}
		if err != nil {
			internalError(w, "error deleting student", err, slog.String("id", id.Hex()))
			return
		}

		slog.Info("student deleted", slog.String("id", id.Hex()))
		response.WriteJSON(w, http.StatusOK, response.Message{Message: msgDeleted})
	}
}

// internalError logs the real cause and answers with a generic 500 so
// storage details never reach the client.
func internalError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.String("error", err.Error()))
	slog.Error(msg, attrs...)
	response.WriteJSON(w, http.StatusInternalServerError, response.Error(msgInternal))
}
