package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/aanand-mishra/student-management/internal/utils/response"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves every request.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names ("address.city") rather than Go names ("Address.City").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// pathID parses the {id} path segment. A malformed id is answered with
// 400 and ok is false.
func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.Error(msgInvalidID))
		return primitive.NilObjectID, false
	}
	return id, true
}

// decodeBody reads the JSON body into v. Any failure is answered with 422
// and reported through the return value.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		resp      response.Response
	)
	switch {
	case errors.Is(err, io.EOF):
		resp = response.Error("request body is empty")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		resp = response.FieldErrors(map[string]string{
			field: fmt.Sprintf("must be of type %s", typeErr.Type),
		})
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		resp = response.Error("malformed JSON body")
	default:
		resp = response.GeneralError(err)
	}

	response.WriteJSON(w, http.StatusUnprocessableEntity, resp)
	return false
}

// validBody runs the validate:"..." rules on v and answers with 422 and
// per-field detail when they fail.
func validBody(w http.ResponseWriter, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(verrs))
	} else {
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
	}
	return false
}
