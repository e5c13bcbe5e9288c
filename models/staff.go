package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Staff holds an authenticated staff account used to gate appeal transitions
type Staff struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"displayName" json:"displayName"`
	Password    string             `bson:"password" json:"-"`
	Roles       []string           `bson:"roles" json:"roles"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   primitive.DateTime `bson:"createdAt" json:"createdAt"`
}
