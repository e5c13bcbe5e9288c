package databases

// go generate: mockery --name AppealHistoryDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modsentry/moderation-api/models"
)

const appealHistoryName = "appeal_history"

// AppealHistoryDatabase contains the methods to use with the appeal history
// collection. History rows are the sole audit trail and are never edited.
type AppealHistoryDatabase interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AppealHistory, error)
	InsertOne(ctx context.Context, entry models.AppealHistory) (models.AppealHistory, error)
}

type appealHistoryDatabase struct {
	db DatabaseHelper
}

// NewAppealHistoryDatabase initializes a new instance of appeal history database
// with the provided db connection
func NewAppealHistoryDatabase(db DatabaseHelper) AppealHistoryDatabase {
	return &appealHistoryDatabase{
		db: db,
	}
}

func (c *appealHistoryDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AppealHistory, error) {
	cursor, err := c.db.Collection(appealHistoryName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var entries []models.AppealHistory
	if err := cursor.Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *appealHistoryDatabase) InsertOne(ctx context.Context, entry models.AppealHistory) (models.AppealHistory, error) {
	_, err := c.db.Collection(appealHistoryName).InsertOne(ctx, entry)
	if err != nil {
		return models.AppealHistory{}, err
	}
	return entry, nil
}
