package types

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON field was present in a request body.
//
// encoding/json leaves a field untouched when its key is missing, so Set
// stays false for omitted fields. A present key always calls UnmarshalJSON,
// including for a literal null, which is reported through Null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// Ptr returns a pointer to the value, or nil when the field was omitted
// or sent as null.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// StudentUpdate is the body of PATCH /students/{id}.
// Any subset of the fields may be sent.
type StudentUpdate struct {
	Name    Optional[string]       `json:"name"`
	Age     Optional[int]          `json:"age"`
	Address Optional[AddressInput] `json:"address"`
}

// NullFields lists the fields that were explicitly sent as null.
// A null would unset a field every stored student must carry.
func (u StudentUpdate) NullFields() []string {
	var fields []string
	if u.Name.Null {
		fields = append(fields, "name")
	}
	if u.Age.Null {
		fields = append(fields, "age")
	}
	if u.Address.Null {
		fields = append(fields, "address")
	}
	return fields
}

// Patch keeps only the fields present in the request.
func (u StudentUpdate) Patch() StudentPatch {
	return StudentPatch{
		Name:    u.Name.Ptr(),
		Age:     u.Age.Ptr(),
		Address: u.Address.Ptr(),
	}
}

// StudentPatch is the set of fields a partial update writes.
// A nil field is left untouched in the stored document.
type StudentPatch struct {
	Name    *string       `json:"name,omitempty"    validate:"omitnil,min=1"`
	Age     *int          `json:"age,omitempty"     validate:"omitnil,gte=0"`
	Address *AddressInput `json:"address,omitempty" validate:"omitnil"`
}

// IsEmpty reports whether the patch would change nothing.
func (p StudentPatch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Address == nil
}
