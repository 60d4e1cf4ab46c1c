package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps uploads in a MongoDB GridFS bucket named "media".
type GridFSStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSStore(db *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("media"))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket}, nil
}

func (s *GridFSStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	name := Dir + "/" + cleanName(filename)
	exists, err := s.exists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		name = Dir + "/" + altName(cleanName(filename))
	}
	if _, err := s.bucket.UploadFromStream(name, content); err != nil {
		return "", fmt.Errorf("gridfs upload: %w", err)
	}
	return name, nil
}

func (s *GridFSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !validName(name) {
		return nil, ErrNotFound
	}
	stream, err := s.bucket.OpenDownloadStreamByName(name)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gridfs open: %w", err)
	}
	return stream, nil
}

func (s *GridFSStore) exists(ctx context.Context, name string) (bool, error) {
	cursor, err := s.bucket.FindContext(ctx, bson.M{"filename": name})
	if err != nil {
		return false, fmt.Errorf("gridfs find: %w", err)
	}
	defer cursor.Close(ctx)
	return cursor.Next(ctx), cursor.Err()
}
