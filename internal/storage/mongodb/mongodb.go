// Package mongodb provides the MongoDB-backed implementation of the
// storage.Storage interface.
//
// Every student is one document in the "students" collection:
//
//	{ "_id": ObjectId(...), "name": "Ada", "age": 20,
//	  "address": { "city": "Paris", "country": "France" } }
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/storage"
	"github.com/aanand-mishra/student-management/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "students"

var _ storage.Storage = (*MongoDB)(nil)

// MongoDB is the concrete implementation of storage.Storage.
// A *mongo.Client is a connection pool and is safe for concurrent use.
type MongoDB struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New builds a client for cfg.MongoURI and selects the students
// collection of cfg.Database.
//
// mongo.Connect does not dial the server; the first real connection is
// made by the first operation. An unreachable server therefore surfaces
// as an error from that operation, not from New.
func New(cfg *config.Config) (*MongoDB, error) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	return newWithCollection(client.Database(cfg.Database).Collection(collectionName)), nil
}

func newWithCollection(coll *mongo.Collection) *MongoDB {
	return &MongoDB{
		client: coll.Database().Client(),
		coll:   coll,
	}
}

// CreateStudent inserts the document and copies the generated _id back
// onto the returned student.
func (m *MongoDB) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	result, err := m.coll.InsertOne(ctx, student)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", err)
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return types.Student{}, fmt.Errorf("CreateStudent: unexpected id type %T", result.InsertedID)
	}
	student.ID = id

	return student, nil
}

func (m *MongoDB) ListStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	cursor, err := m.coll.Find(ctx, studentFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("ListStudents: find: %w", err)
	}
	defer cursor.Close(ctx)

	students := make([]types.Student, 0)
	if err := cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("ListStudents: decode: %w", err)
	}
	if students == nil {
		students = []types.Student{}
	}

	return students, nil
}

func (m *MongoDB) GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.Student, error) {
	var student types.Student

	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&student)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: find: %w", err)
	}

	return student, nil
}

// UpdateStudentByID applies patch with $set. The matched count, not the
// modified count, decides NotFound: writing identical values to an
// existing student is still a success.
func (m *MongoDB) UpdateStudentByID(ctx context.Context, id primitive.ObjectID, patch types.StudentPatch) error {
	set := updateFields(patch)
	if len(set) == 0 {
		return nil
	}

	result, err := m.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: update: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (m *MongoDB) DeleteStudentByID(ctx context.Context, id primitive.ObjectID) error {
	result, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: delete: %w", err)
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Close disconnects the client and waits for in-use connections to be
// returned to the pool.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// studentFilter translates a StudentFilter into a query document.
// Country is an exact match on the embedded address; MinAge is inclusive.
func studentFilter(f types.StudentFilter) bson.M {
	filter := bson.M{}
	if f.Country != "" {
		filter["address.country"] = f.Country
	}
	if f.MinAge != nil {
		filter["age"] = bson.M{"$gte": *f.MinAge}
	}
	return filter
}

// updateFields builds the $set document. The address is replaced as a
// whole embedded object.
func updateFields(p types.StudentPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.Address != nil {
		set["address"] = p.Address.Address()
	}
	return set
}
