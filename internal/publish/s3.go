// Package publish uploads an exported site tree to an S3-compatible bucket.
package publish

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/scholarsite/internal/config"
	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/logfields"
)

// Client is the subset of the S3 API the publisher uses.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// contentTypes covers extensions the system mime table may lack.
var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "text/javascript; charset=utf-8",
	".json":  "application/json",
	".ipynb": "application/x-ipynb+json",
	".svg":   "image/svg+xml",
	".pdf":   "application/pdf",
	".woff2": "font/woff2",
	".xml":   "application/xml",
}

// ContentType returns the Content-Type for name by extension.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// cacheControl lets browsers revalidate pages while caching assets briefly.
func cacheControl(key string) string {
	if strings.HasSuffix(key, ".html") {
		return "no-cache"
	}
	return "public, max-age=3600"
}

// Result tallies one publish run.
type Result struct {
	Uploaded int
	Deleted  int
}

// S3Publisher mirrors a directory into a bucket.
type S3Publisher struct {
	Client Client
	Bucket string
	Prefix string
	// Prune deletes objects under Prefix that are not in the tree.
	Prune       bool
	Concurrency int
	Logger      *slog.Logger
}

// NewS3Publisher builds a publisher from configuration with static credentials.
func NewS3Publisher(cfg config.S3Config, logger *slog.Logger) *S3Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	opts := s3.Options{
		Region: cfg.Region,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}
	return &S3Publisher{
		Client:      s3.New(opts),
		Bucket:      cfg.Bucket,
		Prefix:      strings.Trim(cfg.Prefix, "/"),
		Prune:       true,
		Concurrency: 4,
		Logger:      logger,
	}
}

func (p *S3Publisher) key(rel string) string {
	if p.Prefix == "" {
		return rel
	}
	return p.Prefix + "/" + rel
}

// Publish uploads every file under dir.
func (p *S3Publisher) Publish(ctx context.Context, dir string) (Result, error) {
	var files []string
	err := filepath.WalkDir(dir, func(fp string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, fp)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return Result{}, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk export directory").
			WithContext("path", dir).Build()
	}

	var uploaded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Concurrency, 1))
	for _, rel := range files {
		g.Go(func() error {
			if err := p.upload(gctx, dir, rel); err != nil {
				return err
			}
			uploaded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{Uploaded: int(uploaded.Load())}, err
	}

	res := Result{Uploaded: int(uploaded.Load())}
	if p.Prune {
		deleted, err := p.prune(ctx, files)
		res.Deleted = deleted
		if err != nil {
			return res, err
		}
	}
	p.Logger.Info("Published site", "bucket", p.Bucket, "prefix", p.Prefix,
		"uploaded", res.Uploaded, "deleted", res.Deleted)
	return res, nil
}

func (p *S3Publisher) upload(ctx context.Context, dir, rel string) error {
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open file for upload").
			WithContext("path", rel).Build()
	}
	defer f.Close()

	key := p.key(rel)
	_, err = p.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(p.Bucket),
		Key:          aws.String(key),
		Body:         f,
		ContentType:  aws.String(ContentType(rel)),
		CacheControl: aws.String(cacheControl(rel)),
	})
	if err != nil {
		return wrapAPIError(err, "failed to upload object", key)
	}
	p.Logger.Debug("Uploaded object", logfields.Path(key))
	return nil
}

func (p *S3Publisher) prune(ctx context.Context, files []string) (int, error) {
	keep := make(map[string]bool, len(files))
	for _, rel := range files {
		keep[p.key(rel)] = true
	}
	var listPrefix *string
	if p.Prefix != "" {
		listPrefix = aws.String(p.Prefix + "/")
	}

	deleted := 0
	paginator := s3.NewListObjectsV2Paginator(p.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.Bucket),
		Prefix: listPrefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, wrapAPIError(err, "failed to list objects", p.Prefix)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if keep[key] {
				continue
			}
			if _, err := p.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(p.Bucket),
				Key:    aws.String(key),
			}); err != nil {
				return deleted, wrapAPIError(err, "failed to delete stale object", key)
			}
			deleted++
			p.Logger.Debug("Deleted stale object", logfields.Path(key))
		}
	}
	return deleted, nil
}

func wrapAPIError(err error, msg, key string) error {
	b := ferrors.WrapError(err, ferrors.CategoryNetwork, msg).WithContext("key", key)
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		b = b.WithContext("code", apiErr.ErrorCode())
	}
	return b.Build()
}
