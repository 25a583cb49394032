package image

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mirror 將生成圖片（短效 URL）複製到長期儲存
type Mirror interface {
	Mirror(ctx context.Context, sourceURL string) (string, error)
}

// NoopMirror 不做任何複製，原樣回傳
type NoopMirror struct{}

// Mirror 原樣回傳
func (NoopMirror) Mirror(_ context.Context, sourceURL string) (string, error) {
	return sourceURL, nil
}

// ObjectPutter S3 PutObject 能力（便於測試替換）
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror 下載生成圖片並上傳至 S3
type S3Mirror struct {
	client     ObjectPutter
	httpClient *resty.Client
	bucket     string
	prefix     string
	publicBase string
	maxBytes   int64
}

// NewS3Mirror 依設定建立 S3 鏡像
func NewS3Mirror(ctx context.Context, cfg config.S3Config, maxBytes int64) (*S3Mirror, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicBase := fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	if cfg.Endpoint != "" {
		publicBase = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	common.LogInfo("S3 圖片鏡像已啟用",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
	)

	return NewS3MirrorWithClient(client, cfg.Bucket, cfg.Prefix, publicBase, maxBytes), nil
}

// NewS3MirrorWithClient 以既有 client 建立
func NewS3MirrorWithClient(client ObjectPutter, bucket, prefix, publicBase string, maxBytes int64) *S3Mirror {
	return &S3Mirror{
		client:     client,
		httpClient: resty.New().SetTimeout(30 * time.Second),
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		publicBase: strings.TrimRight(publicBase, "/"),
		maxBytes:   maxBytes,
	}
}

// Mirror 下載 sourceURL 並上傳，回傳 S3 公開 URL
func (m *S3Mirror) Mirror(ctx context.Context, sourceURL string) (string, error) {
	resp, err := m.httpClient.R().SetContext(ctx).Get(sourceURL)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("failed to download image, status: %d", resp.StatusCode())
	}

	body := resp.Body()
	if m.maxBytes > 0 && int64(len(body)) > m.maxBytes {
		return "", fmt.Errorf("generated image exceeds %d bytes", m.maxBytes)
	}

	contentType := resp.Header().Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}

	key := path.Join(m.prefix, uuid.New().String()+extensionFor(contentType))

	if _, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := m.publicBase + "/" + key
	common.LogInfo("已上傳生成圖片至 S3",
		zap.String("key", key),
		zap.Int("bytes", len(body)),
	)
	return publicURL, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
