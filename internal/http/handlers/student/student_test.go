package student_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/http/handlers/student"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/storage/sqlite"
	"github.com/aanand-mishra/student-management/internal/types"
	"github.com/aanand-mishra/student-management/internal/utils/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newServer wires the real routes to a throwaway SQLite database.
func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(&config.Config{StoragePath: filepath.Join(t.TempDir(), "students.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	return serve(t, store)
}

func serve(t *testing.T, store storage.Storage) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	student.Register(mux, store)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func create(t *testing.T, srv *httptest.Server, body string) types.Student {
	t.Helper()

	resp := do(t, srv, http.MethodPost, "/students", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[types.Student](t, resp)
}

const adaJSON = `{"name": "Ada", "age": 19, "address": {"city": "Paris", "country": "France"}}`

func TestCreateThenFetch(t *testing.T) {
	srv := newServer(t)

	created := create(t, srv, adaJSON)
	require.False(t, created.ID.IsZero())

	resp := do(t, srv, http.MethodGet, "/students/"+created.ID.Hex(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[types.Student](t, resp)
	assert.Equal(t, types.Student{
		ID:      created.ID,
		Name:    "Ada",
		Age:     19,
		Address: types.Address{City: "Paris", Country: "France"},
	}, got)
}

func TestCreate_Invalid(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"empty body", "", nil},
		{"malformed json", `{"name": `, nil},
		{"missing fields", `{}`, []string{"name", "age", "address"}},
		{"wrong type", `{"name": "Ada", "age": "old", "address": {"city": "Paris", "country": "France"}}`, []string{"age"}},
		{"empty name", `{"name": "", "age": 19, "address": {"city": "Paris", "country": "France"}}`, []string{"name"}},
		{"negative age", `{"name": "Ada", "age": -1, "address": {"city": "Paris", "country": "France"}}`, []string{"age"}},
		{"incomplete address", `{"name": "Ada", "age": 19, "address": {"city": "Paris"}}`, []string{"address.country"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/students", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

			body := decode[response.Response](t, resp)
			assert.Equal(t, response.StatusError, body.Status)
			assert.NotEmpty(t, body.Error)
			for _, f := range tt.fields {
				assert.Contains(t, body.Fields, f)
			}
		})
	}
}

func TestCreate_ZeroAgeIsValid(t *testing.T) {
	srv := newServer(t)

	created := create(t, srv, `{"name": "Baby", "age": 0, "address": {"city": "", "country": "France"}}`)
	assert.Equal(t, 0, created.Age)
	assert.Equal(t, "", created.Address.City)
}

func TestList(t *testing.T) {
	srv := newServer(t)
	create(t, srv, adaJSON)
	create(t, srv, `{"name": "Bo", "age": 24, "address": {"city": "Lyon", "country": "France"}}`)
	create(t, srv, `{"name": "Cy", "age": 31, "address": {"city": "Berlin", "country": "Germany"}}`)

	list := func(t *testing.T, query string) []types.Student {
		t.Helper()
		resp := do(t, srv, http.MethodGet, "/students"+query, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data []types.Student `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.Data)
		return body.Data
	}

	t.Run("all", func(t *testing.T) {
		assert.Len(t, list(t, ""), 3)
	})

	t.Run("by country", func(t *testing.T) {
		students := list(t, "?country=France")
		require.Len(t, students, 2)
		for _, s := range students {
			assert.Equal(t, "France", s.Address.Country)
		}
	})

	t.Run("by minimum age", func(t *testing.T) {
		students := list(t, "?age=20")
		require.Len(t, students, 2)
		for _, s := range students {
			assert.GreaterOrEqual(t, s.Age, 20)
		}
	})

	t.Run("both filters", func(t *testing.T) {
		students := list(t, "?country=France&age=20")
		require.Len(t, students, 1)
		assert.Equal(t, "Bo", students[0].Name)
	})

	t.Run("no match is an empty array", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/students?country=Spain", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		assert.JSONEq(t, `[]`, string(raw["data"]))
	})

	t.Run("non-integer age", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/students?age=old", "")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestUpdate(t *testing.T) {
	srv := newServer(t)
	created := create(t, srv, adaJSON)
	path := "/students/" + created.ID.Hex()

	fetch := func(t *testing.T) types.Student {
		t.Helper()
		resp := do(t, srv, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[types.Student](t, resp)
	}

	t.Run("empty body changes nothing", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, path, `{}`)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, created, fetch(t))
	})

	t.Run("only age", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, path, `{"age": 20}`)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		got := fetch(t)
		assert.Equal(t, 20, got.Age)
		assert.Equal(t, created.Name, got.Name)
		assert.Equal(t, created.Address, got.Address)
	})

	t.Run("zero age is applied", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, path, `{"age": 0}`)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, 0, fetch(t).Age)
	})

	t.Run("address", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, path, `{"address": {"city": "Nice", "country": "France"}}`)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, types.Address{City: "Nice", Country: "France"}, fetch(t).Address)
	})

	t.Run("null is rejected", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, path, `{"name": null}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		body := decode[response.Response](t, resp)
		assert.Equal(t, "must not be null", body.Fields["name"])
		assert.Equal(t, "Ada", fetch(t).Name)
	})

	t.Run("invalid value is rejected", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, path, `{"age": -3}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("missing student", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, "/students/"+primitive.NewObjectID().Hex(), `{"age": 30}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteThenFetch(t *testing.T) {
	srv := newServer(t)
	created := create(t, srv, adaJSON)
	path := "/students/" + created.ID.Hex()

	resp := do(t, srv, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, response.Message{Message: "Student deleted successfully"}, decode[response.Message](t, resp))

	resp = do(t, srv, http.MethodGet, path, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Student not found", decode[response.Response](t, resp).Error)

	resp = do(t, srv, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNonexistentID_IsNotFound(t *testing.T) {
	srv := newServer(t)
	path := "/students/" + primitive.NewObjectID().Hex()

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, path, "").StatusCode)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, path, "").StatusCode)
}

func TestMalformedID_IsBadRequest(t *testing.T) {
	srv := newServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			resp := do(t, srv, method, "/students/not-an-object-id", `{}`)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "invalid student id", decode[response.Response](t, resp).Error)
		})
	}
}

// brokenStore fails every call the way an unreachable database would.
type brokenStore struct{}

var errUnavailable = errors.New("server selection timeout")

func (brokenStore) CreateStudent(context.Context, types.Student) (types.Student, error) {
	return types.Student{}, errUnavailable
}

func (brokenStore) ListStudents(context.Context, types.StudentFilter) ([]types.Student, error) {
	return nil, errUnavailable
}

func (brokenStore) GetStudentByID(context.Context, primitive.ObjectID) (types.Student, error) {
	return types.Student{}, errUnavailable
}

func (brokenStore) UpdateStudentByID(context.Context, primitive.ObjectID, types.StudentPatch) error {
	return errUnavailable
}

func (brokenStore) DeleteStudentByID(context.Context, primitive.ObjectID) error {
	return errUnavailable
}

func (brokenStore) Close(context.Context) error { return nil }

func TestStoreUnavailable_IsServerError(t *testing.T) {
	srv := serve(t, brokenStore{})
	path := "/students/" + primitive.NewObjectID().Hex()

	tests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/students", adaJSON},
		{http.MethodGet, "/students", ""},
		{http.MethodGet, path, ""},
		{http.MethodPatch, path, `{"age": 1}`},
		{http.MethodDelete, path, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := do(t, srv, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

			body := decode[response.Response](t, resp)
			assert.Equal(t, "internal server error", body.Error)
			assert.NotContains(t, body.Error, errUnavailable.Error())
		})
	}
}
