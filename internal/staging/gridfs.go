package staging

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps snapshots as GridFS files in a MongoDB database.
// Re-uploading a name adds a revision; Get returns the newest one.
type GridFSStore struct {
	Bucket *gridfs.Bucket
}

func NewGridFSStore(client *mongo.Client, database, bucket string) (*GridFSStore, error) {
	b, err := gridfs.NewBucket(client.Database(database), options.GridFSBucket().SetName(bucket))
	if err != nil {
		return nil, fmt.Errorf("error opening GridFS bucket %q: %w", bucket, err)
	}
	return &GridFSStore{Bucket: b}, nil
}

func deadline(ctx context.Context) time.Time {
	d, _ := ctx.Deadline()
	return d
}

func (s *GridFSStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.Bucket.SetWriteDeadline(deadline(ctx)); err != nil {
		return err
	}
	if _, err := s.Bucket.UploadFromStream(name, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}

func (s *GridFSStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.Bucket.SetReadDeadline(deadline(ctx)); err != nil {
		return nil, err
	}
	filter := bson.M{"filename": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	cursor, err := s.Bucket.Find(filter)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", prefix, err)
	}
	defer cursor.Close(ctx)

	var files []struct {
		Filename string `bson:"filename"`
	}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(files))
	names := make([]string, 0, len(files))
	for _, f := range files {
		if !seen[f.Filename] {
			seen[f.Filename] = true
			names = append(names, f.Filename)
		}
	}
	return names, nil
}

func (s *GridFSStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := s.Bucket.SetReadDeadline(deadline(ctx)); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := s.Bucket.DownloadToStreamByName(name, &buf); err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
