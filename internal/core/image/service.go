package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"
	"time"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"nutrition-tracker/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp" // 支援 WebP
)

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	httpClient   *resty.Client
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
		httpClient:   resty.New().SetTimeout(30 * time.Second),
	}
}

// ProcessImage 將 URL、data URL 或純 base64 圖片轉為 JPEG data URL
func (s *Service) ProcessImage(imageData string) (string, error) {
	raw, err := s.load(strings.TrimSpace(imageData))
	if err != nil {
		return "", err
	}

	// 檢查文件大小
	if int64(len(raw)) > s.maxSizeBytes {
		return "", common.NewError(common.ErrInvalidImageSize.Code,
			fmt.Sprintf("image size exceeds maximum limit of %d bytes", s.maxSizeBytes), http.StatusBadRequest, nil)
	}

	// 解碼圖片
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", common.NewError(common.ErrInvalidImageFormat.Code, "failed to decode image", http.StatusBadRequest, err)
	}

	// 檢查圖片格式
	if !isSupportedFormat(format) {
		return "", common.NewError(common.ErrInvalidImageType.Code, "unsupported image format: "+format, http.StatusBadRequest, nil)
	}

	// 將圖片轉換為 JPEG 格式
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	encodedData := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/jpeg;base64," + encodedData, nil
}

// ValidateImage 驗證圖片
func (s *Service) ValidateImage(imageData string) error {
	_, err := s.ProcessImage(imageData)
	return err
}

// load 取得圖片原始位元組
func (s *Service) load(imageData string) ([]byte, error) {
	if imageData == "" {
		return nil, common.NewError(common.ErrInvalidImageFormat.Code, "image data is empty", http.StatusBadRequest, nil)
	}

	// 檢查是否為 URL
	if strings.HasPrefix(imageData, "http://") || strings.HasPrefix(imageData, "https://") {
		resp, err := s.httpClient.R().Get(imageData)
		if err != nil {
			return nil, common.NewError(common.ErrInvalidImageFormat.Code, "failed to download image", http.StatusBadRequest, err)
		}
		if resp.IsError() {
			return nil, common.NewError(common.ErrInvalidImageFormat.Code,
				fmt.Sprintf("failed to download image: status code %d", resp.StatusCode()), http.StatusBadRequest, nil)
		}
		return resp.Body(), nil
	}

	// data URL：取逗號後的內容
	payload := imageData
	if strings.HasPrefix(imageData, "data:") {
		parts := strings.SplitN(imageData, ",", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], "data:image/") || !strings.HasSuffix(parts[0], ";base64") {
			return nil, common.NewError(common.ErrInvalidImageFormat.Code, "invalid image data format", http.StatusBadRequest, nil)
		}
		payload = parts[1]
	}

	decoded, err := DecodeBase64(payload)
	if err != nil {
		return nil, common.NewError(common.ErrInvalidImageFormat.Code, "failed to decode base64 data", http.StatusBadRequest, err)
	}
	return decoded, nil
}

// DecodeBase64 解碼 base64（接受有無補齊、標準或 URL 字母表，忽略換行）
func DecodeBase64(payload string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, payload)

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		out, err := enc.DecodeString(cleaned)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"jpg":  true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}

// DescribeImage 圖片類型描述（用於日誌記錄，不輸出內容）
func DescribeImage(image string) string {
	switch {
	case image == "":
		return "empty"
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return "url"
	case strings.HasPrefix(image, "data:image/"):
		parts := strings.SplitN(image, ";base64,", 2)
		if len(parts) == 2 {
			return "base64_data_uri_" + strings.TrimPrefix(parts[0], "data:image/")
		}
		return "invalid_data_uri"
	case strings.HasPrefix(image, "/9j/"):
		return "base64_jpeg"
	case strings.HasPrefix(image, "iVBORw0KGgo"):
		return "base64_png"
	default:
		return "base64"
	}
}
