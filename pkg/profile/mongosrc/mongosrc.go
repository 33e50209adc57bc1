// Package mongosrc reads profile streams from a MongoDB collection.
//
// The collection is owned by the external record store; this package only
// issues read queries. Deleted records are filtered server-side and results
// are returned in insertion order so layout tie-breaks stay stable.
package mongosrc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/lineage/pkg/profile"
)

// DefaultTimeout bounds connect and query round trips.
const DefaultTimeout = 10 * time.Second

// Options configures a Source.
type Options struct {
	URI        string // mongodb:// connection string
	Database   string
	Collection string
	TreeID     string // optional tree_id filter
	Timeout    time.Duration
}

// Source implements [profile.Source] over a MongoDB collection.
type Source struct {
	client *mongo.Client
	coll   *mongo.Collection
	opts   Options
}

// Open connects to MongoDB and verifies the connection with a ping.
func Open(ctx context.Context, opts Options) (*Source, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Source{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
		opts:   opts,
	}, nil
}

// Filter returns the query document used by Profiles.
func (s *Source) Filter() bson.D {
	return filterFor(s.opts.TreeID)
}

func filterFor(treeID string) bson.D {
	f := bson.D{{Key: "deleted", Value: bson.D{{Key: "$ne", Value: true}}}}
	if treeID != "" {
		f = append(f, bson.E{Key: "tree_id", Value: treeID})
	}
	return f
}

// Profiles implements [profile.Source].
func (s *Source) Profiles(ctx context.Context) ([]profile.Profile, error) {
	qctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})
	cur, err := s.coll.Find(qctx, s.Filter(), findOpts)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer cur.Close(qctx)

	var out []profile.Profile
	if err := cur.All(qctx, &out); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (s *Source) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ profile.Source = (*Source)(nil)
