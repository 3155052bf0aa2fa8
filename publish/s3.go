package publish

import (
	"context"
	"fmt"
	"io"

	"vidstego/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadToS3WithCreds uploads content to an S3 bucket with static keys.
// opts: accessKey, secretKey, region, bucket (required); prefix, endpoint
// (optional, for S3-compatible stores).
func UploadToS3WithCreds(ctx context.Context, opts map[string]string, name string, reader io.Reader) error {
	bucket := opts["bucket"]
	if bucket == "" || opts["region"] == "" {
		return fmt.Errorf("missing required options: bucket, region")
	}
	key := objectKey(opts, name)

	creds := credentials.NewStaticCredentialsProvider(opts["accessKey"], opts["secretKey"], "")
	s3Client := s3.New(s3.Options{
		Region:      opts["region"],
		Credentials: creds,
	}, func(o *s3.Options) {
		if endpoint := opts["endpoint"]; endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(s3Client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String("video/mp4"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", key, bucket, err)
	}

	logger.Infof("Successfully uploaded object '%s' to bucket '%s'", key, bucket)
	return nil
}
