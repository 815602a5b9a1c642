package templatess3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/goliatone/go-export-xlsx/export"
)

// Client is the subset of the S3 API used to read templates.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source reads templates from an S3 bucket. Template names are resolved under Prefix.
type Source struct {
	Client Client
	Bucket string
	Prefix string
}

// New creates a source for bucket using the default AWS credential chain.
func New(ctx context.Context, region, bucket, prefix string) (*Source, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, export.NewError(export.KindTemplateUnavailable, "load aws config", err)
	}
	return &Source{Client: s3.NewFromConfig(cfg), Bucket: bucket, Prefix: prefix}, nil
}

// Open downloads the named template.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s == nil || s.Client == nil {
		return nil, export.NewError(export.KindTemplateUnavailable, "s3 client not configured", nil)
	}
	if s.Bucket == "" {
		return nil, export.NewError(export.KindTemplateUnavailable, "s3 bucket is required", nil)
	}
	key, err := s.Key(name)
	if err != nil {
		return nil, err
	}

	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, export.NewError(export.KindTemplateUnavailable, fmt.Sprintf("template %q not found", name), err)
		}
		return nil, export.NewError(export.KindTemplateUnavailable, fmt.Sprintf("template %q unreadable", name), err)
	}
	if out.Body == nil {
		return nil, export.NewError(export.KindTemplateUnavailable, fmt.Sprintf("template %q is empty", name), nil)
	}
	return out.Body, nil
}

// Key returns the object key for a template name.
func (s *Source) Key(name string) (string, error) {
	rel, err := export.CleanTemplateName(name)
	if err != nil {
		return "", err
	}
	prefix := strings.Trim(s.Prefix, "/")
	if prefix == "" {
		return rel, nil
	}
	return path.Join(prefix, rel), nil
}

var _ export.TemplateSource = (*Source)(nil)
