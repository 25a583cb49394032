package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	stdimage "image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutrition-tracker/internal/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImage_Base64Variants(t *testing.T) {
	svc := NewService(1 << 20)
	raw := samplePNG(t)

	inputs := map[string]string{
		"data_uri":   "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw),
		"raw_base64": base64.StdEncoding.EncodeToString(raw),
		"unpadded":   base64.RawStdEncoding.EncodeToString(raw),
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			out, err := svc.ProcessImage(input)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))
		})
	}
}

func TestProcessImage_Invalid(t *testing.T) {
	svc := NewService(1 << 20)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not_base64", "!!!not-base64!!!"},
		{"bad_data_uri", "data:text/plain;base64,aGVsbG8="},
		{"not_an_image", base64.StdEncoding.EncodeToString([]byte("hello world"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ProcessImage(tt.input)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, common.StatusOf(err))
		})
	}
}

func TestProcessImage_SizeLimit(t *testing.T) {
	svc := NewService(10)
	_, err := svc.ProcessImage(base64.StdEncoding.EncodeToString(samplePNG(t)))

	var ce *common.CustomError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, common.ErrInvalidImageSize.Code, ce.Code)
}

func TestProcessImage_URL(t *testing.T) {
	raw := samplePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	svc := NewService(1 << 20)

	out, err := svc.ProcessImage(srv.URL + "/meal.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "data:image/jpeg;base64,"))

	_, err = svc.ProcessImage(srv.URL + "/missing.png")
	assert.Error(t, err)
}

func TestDescribeImage(t *testing.T) {
	assert.Equal(t, "empty", DescribeImage(""))
	assert.Equal(t, "url", DescribeImage("https://example.com/a.png"))
	assert.Equal(t, "base64_data_uri_png", DescribeImage("data:image/png;base64,AAAA"))
	assert.Equal(t, "base64_jpeg", DescribeImage("/9j/4AAQ"))
	assert.Equal(t, "base64_png", DescribeImage("iVBORw0KGgoAAA"))
	assert.Equal(t, "base64", DescribeImage("QUJD"))
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Mirror(t *testing.T) {
	raw := samplePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	putter := &fakePutter{}
	m := NewS3MirrorWithClient(putter, "meal-images", "generated/", "https://meal-images.s3.amazonaws.com", 1<<20)

	url, err := m.Mirror(context.Background(), srv.URL+"/img")
	require.NoError(t, err)

	require.NotNil(t, putter.input)
	key := aws.ToString(putter.input.Key)
	assert.True(t, strings.HasPrefix(key, "generated/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "meal-images", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(putter.input.ContentType))
	assert.Equal(t, raw, putter.body)
	assert.Equal(t, "https://meal-images.s3.amazonaws.com/"+key, url)
}

func TestS3Mirror_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewS3MirrorWithClient(&fakePutter{}, "b", "", "https://b.s3.amazonaws.com", 0)
	_, err := m.Mirror(context.Background(), srv.URL)
	assert.Error(t, err)

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("img"))
	}))
	defer ok.Close()

	m = NewS3MirrorWithClient(&fakePutter{err: errors.New("denied")}, "b", "", "https://b.s3.amazonaws.com", 0)
	_, err = m.Mirror(context.Background(), ok.URL)
	assert.ErrorContains(t, err, "denied")
}

func TestNoopMirror(t *testing.T) {
	url, err := NoopMirror{}.Mirror(context.Background(), "https://x/y.png")
	require.NoError(t, err)
	assert.Equal(t, "https://x/y.png", url)
}
