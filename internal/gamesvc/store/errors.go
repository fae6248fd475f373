package store

import (
	"errors"

	"github.com/avvvet/pickup-services/internal/apperror"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// parseID converts a hex id to an ObjectID; malformed ids are treated as missing documents.
func parseID(resource, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.NotFound(resource, id)
	}
	return oid, nil
}

func notFoundOr(err error, resource, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperror.NotFound(resource, id)
	}
	return err
}
