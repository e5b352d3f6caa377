package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dentalhub/config"
)

func TestBaseURL(t *testing.T) {
	s := &S3Storage{cfg: config.S3Config{Bucket: "media", Region: "eu-central-1"}}
	assert.Equal(t, "https://media.s3.eu-central-1.amazonaws.com/", s.baseURL())

	s.cfg.PublicURL = "http://localhost:9000/"
	assert.Equal(t, "http://localhost:9000/media/", s.baseURL())
}

func TestObjectName(t *testing.T) {
	base := "http://localhost:9000/media/"

	name, err := ObjectName(base, base+"clinics/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "clinics/logo.png", name)

	_, err = ObjectName(base, "http://elsewhere/media/clinics/logo.png")
	assert.ErrorIs(t, err, ErrForeignFile)

	_, err = ObjectName(base, base)
	assert.ErrorIs(t, err, ErrForeignFile)
}

func TestImageExt(t *testing.T) {
	assert.Equal(t, ".png", imageExt("Logo.PNG", "image/png"))
	assert.Equal(t, ".jpg", imageExt("", "image/jpeg"))
	assert.Equal(t, ".webp", imageExt("", "image/webp"))
	assert.Equal(t, ".bin", imageExt("", "image/bmp"))
}
