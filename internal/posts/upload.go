// internal/posts/upload.go
// Post image storage on S3 or the local disk

package posts

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
)

const maxImageSize = int64(10 << 20)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type UploadConfig struct {
	UseS3          bool
	S3Bucket       string
	AWSRegion      string
	LocalUploadDir string
	BaseURL        string
}

type UploadService struct {
	s3Client   s3iface.S3API
	bucketName string
	baseURL    string
	uploadDir  string
	useS3      bool
	now        func() time.Time
}

func NewUploadService(config UploadConfig) (*UploadService, error) {
	us := &UploadService{
		bucketName: config.S3Bucket,
		baseURL:    config.BaseURL,
		uploadDir:  config.LocalUploadDir,
		useS3:      config.UseS3,
		now:        time.Now,
	}

	if config.UseS3 {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(config.AWSRegion)})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		us.s3Client = s3.New(sess)
		return us, nil
	}

	if err := os.MkdirAll(config.LocalUploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return us, nil
}

// UploadImage stores one post image and returns its public URL
func (us *UploadService) UploadImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := validateImage(header); err != nil {
		return "", err
	}

	filename := us.generateFilename(header.Filename)
	if us.useS3 {
		return us.uploadToS3(file, filename, header.Header.Get("Content-Type"))
	}
	return us.uploadToLocal(file, filename)
}

func (us *UploadService) uploadToS3(file io.Reader, filename, contentType string) (string, error) {
	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("posts/%s/%s", us.now().Format("2006/01/02"), filename)
	_, err := us.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:             aws.String(us.bucketName),
		Key:                aws.String(key),
		Body:               bytes.NewReader(buffer.Bytes()),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String("inline"),
		ACL:                aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", us.bucketName, key), nil
}

func (us *UploadService) uploadToLocal(file io.Reader, filename string) (string, error) {
	dateDir := us.now().Format("2006/01/02")
	fullDir := filepath.Join(us.uploadDir, "posts", dateDir)
	if err := os.MkdirAll(fullDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dest, err := os.Create(filepath.Join(fullDir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return fmt.Sprintf("%s/uploads/posts/%s/%s", us.baseURL, dateDir, filename), nil
}

func validateImage(header *multipart.FileHeader) error {
	if header.Size > maxImageSize {
		return fmt.Errorf("file size exceeds maximum of 10MB")
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(header.Filename))] {
		return fmt.Errorf("file type not allowed")
	}
	return nil
}

func (us *UploadService) generateFilename(originalName string) string {
	return fmt.Sprintf("%s_%d%s", uuid.NewString(), us.now().Unix(), strings.ToLower(filepath.Ext(originalName)))
}

// DeleteFile removes a previously uploaded image. URLs from elsewhere are ignored.
func (us *UploadService) DeleteFile(fileURL string) error {
	if us.useS3 {
		prefix := fmt.Sprintf("https://%s.s3.amazonaws.com/", us.bucketName)
		if !strings.HasPrefix(fileURL, prefix) {
			return nil
		}
		_, err := us.s3Client.DeleteObject(&s3.DeleteObjectInput{
			Bucket: aws.String(us.bucketName),
			Key:    aws.String(strings.TrimPrefix(fileURL, prefix)),
		})
		return err
	}

	prefix := us.baseURL + "/uploads/"
	if !strings.HasPrefix(fileURL, prefix) {
		return nil
	}
	rel := filepath.Clean("/" + strings.TrimPrefix(fileURL, prefix))
	err := os.Remove(filepath.Join(us.uploadDir, rel))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
