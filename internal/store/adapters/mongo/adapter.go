// Package mongo implementa el adapter MongoDB. Es el backend por defecto del
// cache de consentimientos (colección "consents").
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/store"
)

func init() {
	store.RegisterAdapter(&mongoAdapter{})
}

const (
	collConsents    = "consents"
	collProfiles    = "profiles"
	collCredentials = "credentials"
	collAudit       = "audit_events"

	defaultDatabase = "hellodid"
)

type mongoAdapter struct{}

func (a *mongoAdapter) Name() string { return "mongo" }

func (a *mongoAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (store.AdapterConnection, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("mongo: uri required")
	}
	opts := options.Client().ApplyURI(cfg.DSN)
	if cfg.MaxOpenConns > 0 {
		opts.SetMaxPoolSize(uint64(cfg.MaxOpenConns))
	}
	if cfg.MaxIdleConns > 0 {
		opts.SetMinPoolSize(uint64(cfg.MaxIdleConns))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping failed: %w", err)
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = defaultDatabase
	}
	conn := &mongoConnection{client: client, db: client.Database(dbName)}

	if cfg.Migrate {
		if err := conn.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
	}
	return conn, nil
}

type mongoConnection struct {
	client *mongo.Client
	db     *mongo.Database
}

func (c *mongoConnection) Name() string { return "mongo" }

func (c *mongoConnection) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *mongoConnection) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

func (c *mongoConnection) Consents() repository.ConsentRepository {
	return &consentRepo{coll: c.db.Collection(collConsents)}
}
func (c *mongoConnection) Profiles() repository.ProfileRepository {
	return &profileRepo{coll: c.db.Collection(collProfiles)}
}
func (c *mongoConnection) Credentials() repository.CredentialRepository {
	return &credentialRepo{coll: c.db.Collection(collCredentials)}
}
func (c *mongoConnection) Audit() repository.AuditRepository {
	return &auditRepo{coll: c.db.Collection(collAudit)}
}

// EnsureIndexes crea los índices. Es idempotente.
func (c *mongoConnection) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		collConsents: {
			{
				// unicidad solo para requestId resuelto
				Keys: bson.D{{Key: "requestId", Value: 1}},
				Options: options.Index().
					SetName("requestId_unique_nonempty").
					SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "requestId", Value: bson.D{{Key: "$gt", Value: ""}}}}),
			},
			{Keys: bson.D{{Key: "txHash", Value: 1}}},
			{Keys: bson.D{{Key: "requester", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "subject", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		collCredentials: {
			{Keys: bson.D{{Key: "holder", Value: 1}, {Key: "issuedAt", Value: -1}}},
		},
		collAudit: {
			{Keys: bson.D{{Key: "actor", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range specs {
		if _, err := c.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: create indexes %s: %w", coll, err)
		}
	}
	return nil
}

func isNoDocuments(err error) bool { return errors.Is(err, mongo.ErrNoDocuments) }
