package databases

// go generate: mockery --name StaffDatabase

import (
	"context"

	"github.com/modsentry/moderation-api/models"
)

const staffName = "staff"

// StaffDatabase contains the methods to use with the staff collection
type StaffDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Staff, error)
}

type staffDatabase struct {
	db DatabaseHelper
}

// NewStaffDatabase initializes a new instance of staff database with the provided db connection
func NewStaffDatabase(db DatabaseHelper) StaffDatabase {
	return &staffDatabase{
		db: db,
	}
}

func (c *staffDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Staff, error) {
	staff := &models.Staff{}
	err := c.db.Collection(staffName).FindOne(ctx, filter).Decode(&staff)
	if err != nil {
		return nil, err
	}
	return staff, nil
}
