// Package mongostore reads the course catalog and users from MongoDB.
//
// Courses live in the "courses" collection as {_id, title, tags} and users in
// "users" as {username, feedback: [{courseId, liked}]}. Identifiers may be
// ObjectIDs or strings; ObjectIDs are compared by their hex form.
package mongostore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/learnnova/coursematch/internal/catalog"
	"github.com/learnnova/coursematch/internal/source"
)

const (
	DefaultDatabase    = "learnnova"
	CoursesCollection  = "courses"
	UsersCollection    = "users"
	defaultDialTimeout = 5 * time.Second
)

// Store is a source.DataSource backed by a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ source.DataSource = (*Store)(nil)

// Open connects to uri and verifies the connection with a ping. An empty
// database name selects DefaultDatabase.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(defaultDialTimeout).
		SetConnectTimeout(defaultDialTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to mongodb: %w", source.ErrUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: pinging mongodb: %w", source.ErrUnavailable, err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// FetchItems returns every course in natural collection order.
func (s *Store) FetchItems(ctx context.Context) ([]catalog.Item, error) {
	docs, err := s.findAll(ctx, CoursesCollection)
	if err != nil {
		return nil, err
	}
	items := make([]catalog.Item, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeCourse(doc))
	}
	return items, nil
}

// FetchUsers returns every user with their feedback.
func (s *Store) FetchUsers(ctx context.Context) ([]source.User, error) {
	docs, err := s.findAll(ctx, UsersCollection)
	if err != nil {
		return nil, err
	}
	users := make([]source.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, decodeUser(doc))
	}
	return users, nil
}

func (s *Store) findAll(ctx context.Context, collection string) ([]bson.Raw, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %w", source.ErrUnavailable, collection, err)
	}
	defer cur.Close(ctx)

	var docs []bson.Raw
	for cur.Next(ctx) {
		// Current is only valid until the next call to Next.
		docs = append(docs, append(bson.Raw(nil), cur.Current...))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", source.ErrUnavailable, collection, err)
	}
	return docs, nil
}

func decodeCourse(doc bson.Raw) catalog.Item {
	return catalog.Item{
		ID:    idString(doc.Lookup("_id")),
		Title: stringValue(doc.Lookup("title")),
		Tags:  tagList(doc.Lookup("tags")),
	}
}

func decodeUser(doc bson.Raw) source.User {
	u := source.User{Username: stringValue(doc.Lookup("username"))}
	fbVal := doc.Lookup("feedback")
	if fbVal.Type != bson.TypeArray {
		return u
	}
	entries, err := fbVal.Array().Values()
	if err != nil {
		return u
	}
	for _, e := range entries {
		entry, ok := e.DocumentOK()
		if !ok {
			continue
		}
		u.Feedback = append(u.Feedback, source.Feedback{
			ItemID: idString(entry.Lookup("courseId")),
			Liked:  truthy(entry.Lookup("liked")),
		})
	}
	return u
}

// idString renders an identifier as a comparable string.
func idString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	case bson.TypeInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bson.TypeInt64:
		return strconv.FormatInt(v.Int64(), 10)
	}
	return ""
}

// truthy applies the same rule as source.DecodeBool to a BSON value: false,
// zero, empty and missing values are not liked.
func truthy(v bson.RawValue) bool {
	switch v.Type {
	case 0, bson.TypeNull, bson.TypeUndefined:
		return false
	case bson.TypeBoolean:
		return v.Boolean()
	case bson.TypeInt32:
		return v.Int32() != 0
	case bson.TypeInt64:
		return v.Int64() != 0
	case bson.TypeDouble:
		return v.Double() != 0
	case bson.TypeString:
		return v.StringValue() != ""
	case bson.TypeArray:
		vals, err := v.Array().Values()
		return err == nil && len(vals) > 0
	case bson.TypeEmbeddedDocument:
		elems, err := v.Document().Elements()
		return err == nil && len(elems) > 0
	}
	return true
}

func stringValue(v bson.RawValue) string {
	s, _ := v.StringValueOK()
	return s
}

// tagList keeps the string elements of an array value. Any other type means
// no tags.
func tagList(v bson.RawValue) []string {
	if v.Type != bson.TypeArray {
		return nil
	}
	vals, err := v.Array().Values()
	if err != nil {
		return nil
	}
	tags := make([]string, 0, len(vals))
	for _, el := range vals {
		if s, ok := el.StringValueOK(); ok {
			tags = append(tags, s)
		}
	}
	return tags
}
