// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import "go.mongodb.org/mongo-driver/bson/primitive"

// Student is a student document as it is stored and as it is returned
// to API clients.
//
// Struct tags serve three purposes:
//
//  1. json:"..."  is the field name at the HTTP boundary.
//     primitive.ObjectID marshals itself to its 24-char hex string, so
//     clients only ever see the string form of the id.
//
//  2. bson:"..."  is the field name inside the MongoDB document.
//     "_id,omitempty" lets the driver generate the id on insert.
type Student struct {
	ID      primitive.ObjectID `json:"id"      bson:"_id,omitempty"`
	Name    string             `json:"name"    bson:"name"`
	Age     int                `json:"age"     bson:"age"`
	Address Address            `json:"address" bson:"address"`
}

// Address is embedded in every Student document.
type Address struct {
	City    string `json:"city"    bson:"city"`
	Country string `json:"country" bson:"country"`
}

// AddressInput is the request-side shape of an Address.
//
// Pointers let the validator tell "field missing" (nil) apart from
// "field sent as an empty string" (pointer to "").
type AddressInput struct {
	City    *string `json:"city"    validate:"required"`
	Country *string `json:"country" validate:"required"`
}

// Address converts a validated AddressInput into an Address.
// Must only be called after validation succeeded.
func (a AddressInput) Address() Address {
	return Address{City: *a.City, Country: *a.Country}
}

// StudentCreate is the body of POST /students. Every field is mandatory.
//
// validate:"..." holds rules checked by the go-playground/validator package.
// On pointers "required" means "present in the JSON"; the following
// rules (min, gte) are applied to the value the pointer refers to.
type StudentCreate struct {
	Name    *string       `json:"name"    validate:"required,min=1"`
	Age     *int          `json:"age"     validate:"required,gte=0"`
	Address *AddressInput `json:"address" validate:"required"`
}

// Student converts a validated StudentCreate into a Student without an id.
func (c StudentCreate) Student() Student {
	return Student{
		Name:    *c.Name,
		Age:     *c.Age,
		Address: c.Address.Address(),
	}
}

// StudentFilter narrows GET /students.
// A zero Country means "any country"; a nil MinAge means "any age".
type StudentFilter struct {
	Country string
	MinAge  *int
}
