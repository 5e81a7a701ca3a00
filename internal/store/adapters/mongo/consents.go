package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/store"
)

type consentDoc struct {
	ID            string    `bson:"_id"`
	RequestID     string    `bson:"requestId"`
	TxHash        string    `bson:"txHash"`
	Requester     string    `bson:"requester"`
	Subject       string    `bson:"subject"`
	PurposeHash   string    `bson:"purposeHash"`
	Approved      bool      `bson:"approved"`
	Signature     *string   `bson:"signature"`
	ApproveTxHash string    `bson:"approveTxHash,omitempty"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func (d consentDoc) toDomain() repository.Consent {
	return repository.Consent{
		ID:            d.ID,
		RequestID:     d.RequestID,
		TxHash:        d.TxHash,
		Requester:     d.Requester,
		Subject:       d.Subject,
		PurposeHash:   d.PurposeHash,
		Approved:      d.Approved,
		Signature:     d.Signature,
		ApproveTxHash: d.ApproveTxHash,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type consentRepo struct{ coll *mongo.Collection }

func (r *consentRepo) Create(ctx context.Context, in repository.ConsentInput) (*repository.Consent, error) {
	// mongo guarda milisegundos
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := consentDoc{
		ID:          store.NewID(),
		TxHash:      in.TxHash,
		Requester:   in.Requester,
		Subject:     in.Subject,
		PurposeHash: in.PurposeHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicateRequest
		}
		return nil, fmt.Errorf("mongo: insert consent: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *consentRepo) RecordIdentifier(ctx context.Context, txHash, requestID string) (*repository.Consent, error) {
	var doc consentDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "txHash", Value: txHash}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "requestId", Value: requestID},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicateRequest
		}
		return nil, fmt.Errorf("mongo: record identifier: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *consentRepo) MarkApproved(ctx context.Context, requestID, signature, approveTxHash string) (*repository.Consent, error) {
	if requestID == "" {
		return nil, repository.ErrNotFound
	}
	var doc consentDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "requestId", Value: requestID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "approved", Value: true},
			{Key: "signature", Value: signature},
			{Key: "approveTxHash", Value: approveTxHash},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("mongo: mark approved: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (r *consentRepo) FindByParticipant(ctx context.Context, address string) ([]repository.Consent, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "requester", Value: address}},
		bson.D{{Key: "subject", Value: address}},
	}}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, filter, opts)
}

func (r *consentRepo) ListUnresolved(ctx context.Context, afterID string, limit int) ([]repository.Consent, error) {
	filter := bson.D{{Key: "requestId", Value: ""}}
	if afterID != "" {
		filter = append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$gt", Value: afterID}}})
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *consentRepo) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]repository.Consent, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find consents: %w", err)
	}
	var docs []consentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode consents: %w", err)
	}
	out := make([]repository.Consent, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
