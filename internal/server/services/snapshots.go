package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/possync/internal/server/config"
	"github.com/dmitrijs2005/possync/internal/syncrpc"
)

// SnapshotURLValidity is how long an issued upload URL stays usable.
const SnapshotURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// SnapshotService issues presigned upload URLs for device database snapshots
// on an S3-compatible store.
type SnapshotService struct {
	config *sc.Config
	now    func() time.Time
}

func NewSnapshotService(cfg *sc.Config) *SnapshotService {
	return &SnapshotService{config: cfg, now: time.Now}
}

// SnapshotKey is the object key of ownerID's snapshot taken at t.
func SnapshotKey(ownerID string, t time.Time) string {
	return fmt.Sprintf("owners/%s/snapshots/%s.db", ownerID, t.UTC().Format("20060102T150405.000000000Z"))
}

func (s *SnapshotService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// SnapshotURL returns a presigned PUT target for a new snapshot of ownerID.
func (s *SnapshotService) SnapshotURL(ctx context.Context, ownerID string) (*syncrpc.SnapshotTarget, error) {
	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := SnapshotKey(ownerID, s.now())

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(SnapshotURLValidity))
	if err != nil {
		return nil, err
	}

	return &syncrpc.SnapshotTarget{Key: key, URL: req.URL}, nil
}
