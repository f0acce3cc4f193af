package exporters

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Sink archives every HAR log as a gzipped object under Prefix.
type S3Sink struct {
	Bucket    string
	Prefix    string
	s3Service s3iface.S3API
}

func NewS3Sink(region string, bucket string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 sink requires a bucket name")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("create aws session failed: %w", err)
	}
	return &S3Sink{
		Bucket:    bucket,
		Prefix:    "har",
		s3Service: s3.New(sess),
	}, nil
}

func (s *S3Sink) Process(harData *har.Har, data []byte) error {
	var compressed bytes.Buffer
	writer := gzip.NewWriter(&compressed)
	_, err := writer.Write(data)
	if err != nil {
		return fmt.Errorf("gzip har data failed: %w", err)
	}
	err = writer.Close()
	if err != nil {
		return fmt.Errorf("gzip har data failed: %w", err)
	}

	now := time.Now().UTC()
	key := path.Join(s.Prefix, now.Format("2006/01/02"), strconv.FormatInt(now.UnixNano(), 10)+".har.gz")
	_, err = s.s3Service.PutObject(&s3.PutObjectInput{
		Body:            bytes.NewReader(compressed.Bytes()),
		Bucket:          aws.String(s.Bucket),
		Key:             aws.String(key),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return fmt.Errorf("upload har data to bucket %v, object %v failed: %w", s.Bucket, key, err)
	}

	core.V2("%v entries uploaded to s3://%v/%v", len(harData.Log.Entries), s.Bucket, key)
	return nil
}
