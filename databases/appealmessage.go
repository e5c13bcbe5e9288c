package databases

// go generate: mockery --name AppealMessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modsentry/moderation-api/models"
)

const appealMessageName = "appeal_messages"

// AppealMessageDatabase contains the methods to use with the appeal message
// collection. The thread is append-only; there are no update or delete methods.
type AppealMessageDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AppealMessage, error)
	InsertOne(ctx context.Context, message models.AppealMessage) (models.AppealMessage, error)
}

type appealMessageDatabase struct {
	db DatabaseHelper
}

// NewAppealMessageDatabase initializes a new instance of appeal message database
// with the provided db connection
func NewAppealMessageDatabase(db DatabaseHelper) AppealMessageDatabase {
	return &appealMessageDatabase{
		db: db,
	}
}

func (c *appealMessageDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AppealMessage, error) {
	cursor, err := c.db.Collection(appealMessageName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var messages []models.AppealMessage
	if err := cursor.Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *appealMessageDatabase) InsertOne(ctx context.Context, message models.AppealMessage) (models.AppealMessage, error) {
	_, err := c.db.Collection(appealMessageName).InsertOne(ctx, message)
	if err != nil {
		return models.AppealMessage{}, err
	}
	return message, nil
}
