package statuscheck

import (
	"context"
	"fmt"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/local/pdfpress/internal/pdfengine"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Checker aggregates health checks for the service's external dependencies.
type Checker struct {
	redis    RedisPinger
	s3Bucket string
	opener   pdfengine.Opener
}

// Options configures the Checker.
type Options struct {
	Redis    RedisPinger
	S3Bucket string
	Opener   pdfengine.Opener
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis  Status `json:"redis"`
	S3     Status `json:"s3"`
	Engine Status `json:"engine"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	opener := opts.Opener
	if opener == nil {
		opener = pdfengine.NewFitzOpener()
	}
	return &Checker{redis: opts.Redis, s3Bucket: opts.S3Bucket, opener: opener}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis:  c.checkRedis(ctx),
		S3:     c.checkS3(ctx),
		Engine: c.checkEngine(),
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: true, Message: "not configured (in-memory store)"}
	}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.redis.Ping(cctx); err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	return Status{OK: true, Message: "reachable"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.s3Bucket == "" {
		return Status{OK: true, Message: "not configured"}
	}
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cfg, err := awscfg.LoadDefaultConfig(cctx)
	if err != nil {
		return Status{OK: false, Message: fmt.Sprintf("aws config: %v", err)}
	}
	cli := s3.NewFromConfig(cfg)
	if _, err := cli.HeadBucket(cctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
		return Status{OK: false, Message: fmt.Sprintf("bucket %s: %v", c.s3Bucket, err)}
	}
	return Status{OK: true, Message: "reachable"}
}

// probePDF is a minimal single-page document the render engine must open.
var probePDF = []byte("%PDF-1.4\n" +
	"1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n" +
	"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n" +
	"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>endobj\n" +
	"trailer<</Root 1 0 R>>\n%%EOF\n")

func (c *Checker) checkEngine() Status {
	doc, err := c.opener.Open(probePDF)
	if err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	defer doc.Close()
	if doc.NumPages() != 1 {
		return Status{OK: false, Message: fmt.Sprintf("probe document has %d pages", doc.NumPages())}
	}
	return Status{OK: true, Message: "available"}
}
