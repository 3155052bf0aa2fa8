package publish

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"vidstego/logger"
)

// UploadToGCSWithJSON uploads content to a Google Cloud Storage bucket
// using a base64-encoded service account key.
// opts: credentialsJSON, bucket (required); prefix (optional).
func UploadToGCSWithJSON(ctx context.Context, opts map[string]string, name string, reader io.Reader) error {
	bucketName := opts["bucket"]
	if bucketName == "" || opts["credentialsJSON"] == "" {
		return fmt.Errorf("missing required options: bucket, credentialsJSON")
	}
	credentialsJSON, err := base64.StdEncoding.DecodeString(opts["credentialsJSON"])
	if err != nil {
		return fmt.Errorf("decode credentialsJSON: %w", err)
	}
	objectName := objectKey(opts, name)

	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return fmt.Errorf("storage.NewClient: %w", err)
	}
	defer client.Close()

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = "video/mp4"

	if _, err = io.Copy(wc, reader); err != nil {
		wc.Close()
		return fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %w", err)
	}

	logger.Infof("Successfully uploaded object '%s' to bucket '%s'", objectName, bucketName)
	return nil
}
