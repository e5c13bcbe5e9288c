package databases

// go generate: mockery --name AppealDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modsentry/moderation-api/models"
)

const appealName = "appeals"

// AppealDatabase contains the methods to use with the appeal collection.
// UpdateOne returns the matched count so callers can run conditional updates
// keyed on the current status and detect that another decision got there first.
type AppealDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Appeal, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Appeal, error)
	InsertOne(ctx context.Context, appeal models.Appeal) (models.Appeal, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type appealDatabase struct {
	db DatabaseHelper
}

// NewAppealDatabase initializes a new instance of appeal database with the provided db connection
func NewAppealDatabase(db DatabaseHelper) AppealDatabase {
	return &appealDatabase{
		db: db,
	}
}

func (c *appealDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Appeal, error) {
	appeal := &models.Appeal{}
	err := c.db.Collection(appealName).FindOne(ctx, filter).Decode(&appeal)
	if err != nil {
		return nil, err
	}
	return appeal, nil
}

func (c *appealDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Appeal, error) {
	cursor, err := c.db.Collection(appealName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var appeals []models.Appeal
	if err := cursor.Decode(&appeals); err != nil {
		return nil, err
	}
	return appeals, nil
}

func (c *appealDatabase) InsertOne(ctx context.Context, appeal models.Appeal) (models.Appeal, error) {
	_, err := c.db.Collection(appealName).InsertOne(ctx, appeal)
	if err != nil {
		return models.Appeal{}, err
	}
	return appeal, nil
}

func (c *appealDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	res, err := c.db.Collection(appealName).UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount(), nil
}

func (c *appealDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(appealName).CountDocuments(ctx, filter)
}
