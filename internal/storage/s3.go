package storage

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"
)

// gcmMagic tags the encrypted container format:
// magic(8) + salt(16) + nonce(12) + ciphertext+tag.
const gcmMagic = "GCM3NCR0"

const (
	pbkdf2Iterations = 100000
	keyLen           = 32
	saltLen          = 16
)

// S3Client uploads compressed outputs to S3, optionally password-encrypted.
type S3Client struct {
	client     *s3.Client
	bucketName string
}

// NewS3Client creates a new S3 client using the default AWS config chain.
func NewS3Client(ctx context.Context, bucketName string) (*S3Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Client{client: s3.NewFromConfig(cfg), bucketName: bucketName}, nil
}

// UploadFile stores data under key. A non-empty password encrypts the payload
// with AES-GCM using a PBKDF2-derived key.
func (s *S3Client) UploadFile(ctx context.Context, key string, data []byte, password, contentType string, metadata map[string]string) (string, error) {
	body := data
	md := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		md[k] = v
	}

	if password != "" {
		enc, err := encryptGCM(data, password)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt payload: %w", err)
		}
		body = enc
		md["encrypted"] = "true"
		md["encryption-format"] = gcmMagic
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    md,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := fmt.Sprintf("s3://%s/%s", s.bucketName, key)
	log.Info().
		Str("key", key).
		Int("size", len(body)).
		Bool("encrypted", password != "").
		Msg("uploaded result to S3")
	return url, nil
}

// encryptGCM seals data into the GCM3NCR0 container:
// magic(8) + salt(16) + nonce(12) + encrypted_data + auth_tag(16).
func encryptGCM(data []byte, password string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(gcmMagic)+len(salt)+len(nonce)+len(data)+gcm.Overhead())
	out = append(out, gcmMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, data, nil)
	return out, nil
}
