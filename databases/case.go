package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modsentry/moderation-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case collection
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Case, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error)
	InsertOne(ctx context.Context, c models.Case) (models.Case, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Case, error) {
	moderationCase := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter).Decode(&moderationCase)
	if err != nil {
		return nil, err
	}
	return moderationCase, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	cursor, err := c.db.Collection(caseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var cases []models.Case
	if err := cursor.Decode(&cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) InsertOne(ctx context.Context, moderationCase models.Case) (models.Case, error) {
	_, err := c.db.Collection(caseName).InsertOne(ctx, moderationCase)
	if err != nil {
		return models.Case{}, err
	}
	return moderationCase, nil
}

func (c *caseDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(caseName).CountDocuments(ctx, filter)
}
