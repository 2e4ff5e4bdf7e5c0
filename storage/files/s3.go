package files

import (
	"context"
	"io"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
)

const s3KeyPrefix = "uploads/"

// S3Store keeps assets in an S3-compatible bucket (AWS S3, DigitalOcean Spaces, MinIO).
type S3Store struct {
	client s3iface.S3API
	bucket string
}

var _ core.AssetStore = (*S3Store)(nil)

func NewS3Store(conf core.StorageConfig) (*S3Store, error) {
	awsConf := &aws.Config{
		Region: aws.String(conf.S3Region),
	}
	if conf.S3AccessKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentials(conf.S3AccessKey, conf.S3SecretKey, "")
	}
	if conf.S3Endpoint != "" {
		awsConf.Endpoint = aws.String(conf.S3Endpoint)
		awsConf.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsConf)
	if err != nil {
		return nil, errors.Wrap(err, "creating S3 session")
	}
	return NewS3StoreWithClient(s3.New(sess), conf.S3Bucket), nil
}

func NewS3StoreWithClient(client s3iface.S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) key(name string) string {
	return s3KeyPrefix + path.Base(path.Clean("/"+name))
}

func (s *S3Store) Save(ctx context.Context, name string, r io.Reader) error {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		return errors.New("S3 uploads need a seekable reader")
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   body,
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		return errors.Wrap(err, "uploading object")
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, core.ErrAssetNotFound
		}
		return nil, errors.Wrap(err, "downloading object")
	}
	return out.Body, nil
}

func isS3NotFound(err error) bool {
	if aErr, ok := err.(awserr.Error); ok {
		switch aErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
