package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/config"
	"github.com/employnext/jobcore/internal/models"
)

// presignValidity bounds how long an issued upload/download URL stays usable.
const presignValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ResumeService issues presigned S3 URLs for resume upload and download.
// Resume bytes never pass through this process; candidates upload straight
// to object storage and attach the returned key to an application.
type ResumeService struct {
	config *config.Config
}

// NewResumeService constructs a ResumeService.
func NewResumeService(cfg *config.Config) *ResumeService {
	return &ResumeService{config: cfg}
}

// resumeStorageKey scopes keys per user so one candidate can never guess or
// overwrite another's upload.
func resumeStorageKey(userID string) string {
	return fmt.Sprintf("resumes/%s/%v", userID, uuid.New())
}

func (s *ResumeService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetPresignedPutURL returns a fresh storage key and a presigned PUT URL the
// caller uploads the resume to. Only real candidates get upload URLs.
func (s *ResumeService) GetPresignedPutURL(ctx context.Context, identity models.ResolvedIdentity) (string, string, error) {
	if err := requireCandidate(identity); err != nil {
		return "", "", err
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := resumeStorageKey(identity.UserID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetPresignedGetURL returns a presigned download URL for key. The caller
// must either own the key or be requesting it through a posting they own;
// the HTTP layer establishes the latter, this method enforces the former.
func (s *ResumeService) GetPresignedGetURL(ctx context.Context, identity models.ResolvedIdentity, key string, ownerChecked bool) (string, error) {
	if !identity.IsAuthenticated {
		return "", common.ErrorUnauthenticated
	}
	if !ownerChecked && key != "" && !keyBelongsTo(key, identity.UserID) {
		return "", common.ErrorForbidden
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func keyBelongsTo(key, userID string) bool {
	return userID != "" && strings.HasPrefix(key, "resumes/"+userID+"/")
}
