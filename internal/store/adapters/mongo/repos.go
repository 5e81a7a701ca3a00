package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
)

// ─── Profiles ───

type profileDoc struct {
	Address     string                      `bson:"_id"`
	Enc         repository.EncryptedPayload `bson:"enc"`
	ProfileHash string                      `bson:"profileHash"`
	CreatedAt   time.Time                   `bson:"createdAt"`
	UpdatedAt   time.Time                   `bson:"updatedAt"`
}

type profileRepo struct{ coll *mongo.Collection }

func (r *profileRepo) Upsert(ctx context.Context, address string, payload repository.EncryptedPayload, profileHash string) (*repository.Profile, error) {
	now := time.Now().UTC()
	var doc profileDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: address}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "enc", Value: bson.D{
					{Key: "iv", Value: payload.IV},
					{Key: "tag", Value: payload.Tag},
					{Key: "ciphertext", Value: payload.Ciphertext},
				}},
				{Key: "profileHash", Value: profileHash},
				{Key: "updatedAt", Value: now},
			}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "createdAt", Value: now}}},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("mongo: upsert profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *profileRepo) Get(ctx context.Context, address string) (*repository.Profile, error) {
	var doc profileDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: address}}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get profile: %w", err)
	}
	return doc.toDomain(), nil
}

func (d profileDoc) toDomain() *repository.Profile {
	return &repository.Profile{
		Address:     d.Address,
		Payload:     d.Enc,
		ProfileHash: d.ProfileHash,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// ─── Credentials ───

type credentialDoc struct {
	TokenID        string     `bson:"_id"`
	Holder         string     `bson:"holder"`
	CredentialHash string     `bson:"credentialHash"`
	URI            string     `bson:"uri"`
	TxHash         string     `bson:"txHash"`
	IssuedAt       time.Time  `bson:"issuedAt"`
	RevokedAt      *time.Time `bson:"revokedAt,omitempty"`
}

type credentialRepo struct{ coll *mongo.Collection }

func (r *credentialRepo) Create(ctx context.Context, c repository.Credential) error {
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	}
	doc := credentialDoc{
		TokenID:        c.TokenID,
		Holder:         c.Holder,
		CredentialHash: c.CredentialHash,
		URI:            c.URI,
		TxHash:         c.TxHash,
		IssuedAt:       c.IssuedAt,
		RevokedAt:      c.RevokedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("mongo: insert credential: %w", err)
	}
	return nil
}

func (r *credentialRepo) GetByTokenID(ctx context.Context, tokenID string) (*repository.Credential, error) {
	var doc credentialDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: tokenID}}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: get credential: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *credentialRepo) ListByHolder(ctx context.Context, holder string) ([]repository.Credential, error) {
	cur, err := r.coll.Find(ctx, bson.D{{Key: "holder", Value: holder}},
		options.Find().SetSort(bson.D{{Key: "issuedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list credentials: %w", err)
	}
	var docs []credentialDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode credentials: %w", err)
	}
	out := make([]repository.Credential, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *credentialRepo) MarkRevoked(ctx context.Context, tokenID string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: tokenID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "revokedAt", Value: at.UTC()}}}},
	)
	if err != nil {
		return fmt.Errorf("mongo: revoke credential: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (d credentialDoc) toDomain() repository.Credential {
	c := repository.Credential{
		TokenID:        d.TokenID,
		Holder:         d.Holder,
		CredentialHash: d.CredentialHash,
		URI:            d.URI,
		TxHash:         d.TxHash,
		IssuedAt:       d.IssuedAt.UTC(),
	}
	if d.RevokedAt != nil {
		t := d.RevokedAt.UTC()
		c.RevokedAt = &t
	}
	return c
}

// ─── Audit ───

type auditDoc struct {
	ID        string         `bson:"_id"`
	Type      string         `bson:"type"`
	Actor     string         `bson:"actor"`
	Subject   string         `bson:"subject,omitempty"`
	RequestID string         `bson:"requestId,omitempty"`
	TokenID   string         `bson:"tokenId,omitempty"`
	TxHash    string         `bson:"txHash,omitempty"`
	Details   map[string]any `bson:"details,omitempty"`
	CreatedAt time.Time      `bson:"createdAt"`
}

type auditRepo struct{ coll *mongo.Collection }

func (r *auditRepo) Append(ctx context.Context, ev repository.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	doc := auditDoc{
		ID:        ev.ID,
		Type:      ev.Type,
		Actor:     ev.Actor,
		Subject:   ev.Subject,
		RequestID: ev.RequestID,
		TokenID:   ev.TokenID,
		TxHash:    ev.TxHash,
		Details:   ev.Details,
		CreatedAt: ev.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: insert audit: %w", err)
	}
	return nil
}

func (r *auditRepo) ListByActor(ctx context.Context, actor string, limit int) ([]repository.AuditEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, bson.D{{Key: "actor", Value: actor}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: list audit: %w", err)
	}
	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode audit: %w", err)
	}
	out := make([]repository.AuditEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, repository.AuditEvent{
			ID:        d.ID,
			Type:      d.Type,
			Actor:     d.Actor,
			Subject:   d.Subject,
			RequestID: d.RequestID,
			TokenID:   d.TokenID,
			TxHash:    d.TxHash,
			Details:   d.Details,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}
