package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const DefaultCollection = "accounts"

type mongoDocument struct {
	ID                  string     `bson:"_id"`
	Email               string     `bson:"email"`
	Name                string     `bson:"name"`
	PasswordHash        string     `bson:"password_hash,omitempty"`
	GoogleID            string     `bson:"google_id,omitempty"`
	ResetToken          string     `bson:"reset_token,omitempty"`
	ResetTokenExpiresAt *time.Time `bson:"reset_token_expires_at,omitempty"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
}

func toDocument(acc *Account) mongoDocument {
	return mongoDocument{
		ID:                  acc.ID,
		Email:               acc.Email,
		Name:                acc.Name,
		PasswordHash:        acc.PasswordHash,
		GoogleID:            acc.GoogleID,
		ResetToken:          acc.ResetToken,
		ResetTokenExpiresAt: acc.ResetTokenExpiresAt,
		CreatedAt:           acc.CreatedAt,
		UpdatedAt:           acc.UpdatedAt,
	}
}

func (d mongoDocument) account() *Account {
	acc := &Account{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		GoogleID:     d.GoogleID,
		ResetToken:   d.ResetToken,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.ResetTokenExpiresAt != nil {
		t := d.ResetTokenExpiresAt.UTC()
		acc.ResetTokenExpiresAt = &t
	}
	return acc
}

// MongoStore persists accounts in one collection. Uniqueness of email and
// google_id is enforced by indexes created in EnsureIndexes.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(DefaultCollection), now: time.Now}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys: bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("google_id_unique").
				SetPartialFilterExpression(bson.D{{Key: "google_id", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
		{
			Keys: bson.D{{Key: "reset_token", Value: 1}},
			Options: options.Index().
				SetName("reset_token").
				SetPartialFilterExpression(bson.D{{Key: "reset_token", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, acc *Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}

	if _, err := s.coll.InsertOne(ctx, toDocument(acc)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "google_id") {
				return ErrGoogleIDTaken
			}
			return ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*Account, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *MongoStore) FindByGoogleID(ctx context.Context, googleID string) (*Account, error) {
	return s.findOne(ctx, bson.D{{Key: "google_id", Value: googleID}})
}

func (s *MongoStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return s.updateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "updated_at", Value: s.now()},
	}}})
}

func (s *MongoStore) LinkGoogleID(ctx context.Context, id, googleID string) error {
	err := s.updateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "google_id", Value: googleID},
		{Key: "updated_at", Value: s.now()},
	}}})
	if mongo.IsDuplicateKeyError(err) {
		return ErrGoogleIDTaken
	}
	return err
}

func (s *MongoStore) SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	return s.updateByID(ctx, id, bson.D{{Key: "$set", Value: bson.D{
		{Key: "reset_token", Value: token},
		{Key: "reset_token_expires_at", Value: expiresAt},
		{Key: "updated_at", Value: s.now()},
	}}})
}

func (s *MongoStore) ClearResetToken(ctx context.Context, id string) error {
	return s.updateByID(ctx, id, bson.D{
		{Key: "$unset", Value: resetFields()},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now()}}},
	})
}

func (s *MongoStore) ConsumeResetToken(ctx context.Context, token string, now time.Time, passwordHash string) (*Account, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	filter := bson.D{
		{Key: "reset_token", Value: token},
		{Key: "reset_token_expires_at", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: passwordHash},
			{Key: "updated_at", Value: s.now()},
		}},
		{Key: "$unset", Value: resetFields()},
	}

	var doc mongoDocument
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return doc.account(), nil
}

func (s *MongoStore) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.D{{Key: "reset_token_expires_at", Value: bson.D{{Key: "$lte", Value: now}}}},
		bson.D{{Key: "$unset", Value: resetFields()}},
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired reset tokens: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D) (*Account, error) {
	var doc mongoDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.account(), nil
}

func (s *MongoStore) updateByID(ctx context.Context, id string, update bson.D) error {
	res, err := s.coll.UpdateByID(ctx, id, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("update account %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func resetFields() bson.D {
	return bson.D{
		{Key: "reset_token", Value: ""},
		{Key: "reset_token_expires_at", Value: ""},
	}
}
