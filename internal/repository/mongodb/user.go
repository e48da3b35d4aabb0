package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/readme-generator/internal/apperror"
	"github.com/sakif/readme-generator/internal/model"
	"github.com/sakif/readme-generator/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// userDoc is the stored shape of a model.User.
type userDoc struct {
	ID          string    `bson:"_id"`
	ProviderID  string    `bson:"provider_id"`
	Username    string    `bson:"username"`
	AvatarURL   string    `bson:"avatar_url"`
	AccessToken string    `bson:"access_token"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d *userDoc) toModel() *model.User {
	return &model.User{
		ID:                  d.ID,
		ProviderID:          d.ProviderID,
		Username:            d.Username,
		AvatarURL:           d.AvatarURL,
		ProviderAccessToken: d.AccessToken,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

// Upsert is a single findAndModify with upsert=true. $setOnInsert assigns the
// id and created_at only when the document is new, so they stay fixed across
// logins.
//
// Two concurrent first logins can both miss the filter and race to insert; the
// loser gets a duplicate key error from the unique index and retries once, at
// which point the filter matches the winner's document.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	doc, err := db.upsertOnce(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		doc, err = db.upsertOnce(ctx, user)
	}
	if err != nil {
		return fmt.Errorf("mongodb: upserting user (providerID=%s): %w", user.ProviderID, err)
	}

	user.ID = doc.ID
	user.CreatedAt = doc.CreatedAt
	user.UpdatedAt = doc.UpdatedAt
	return nil
}

func (db *DB) upsertOnce(ctx context.Context, user *model.User) (*userDoc, error) {
	now := time.Now().UTC()

	filter := bson.D{{Key: "provider_id", Value: user.ProviderID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "username", Value: user.Username},
			{Key: "avatar_url", Value: user.AvatarURL},
			{Key: "access_token", Value: user.ProviderAccessToken},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: xid.New().String()},
			{Key: "created_at", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc userDoc
	if err := db.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var doc userDoc
	err := db.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongodb: getting user %s: %w", id, err)
	}
	return doc.toModel(), nil
}
