package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/damacus/iron-explorer/internal/services"
)

// Factory creates a Store for a set of session credentials.
type Factory interface {
	NewStore(ctx context.Context, creds services.Credentials) (Store, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, creds services.Credentials) (Store, error)

func (f FactoryFunc) NewStore(ctx context.Context, creds services.Credentials) (Store, error) {
	return f(ctx, creds)
}

// RealFactory builds stores against live endpoints.
type RealFactory struct {
	// Decorate wraps every store built, e.g. with metrics or rate limiting.
	Decorate func(Store, string) Store
}

func (f *RealFactory) NewStore(ctx context.Context, creds services.Credentials) (Store, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var (
		s   Store
		err error
	)
	driver := creds.Driver
	switch driver {
	case "", DriverMinio:
		driver = DriverMinio
		s, err = newMinioFromCredentials(creds)
	case DriverS3:
		s, err = NewS3Store(ctx, S3Config{
			Region:          creds.Region,
			Endpoint:        s3Endpoint(creds.Endpoint),
			AccessKeyID:     creds.AccessKey,
			SecretAccessKey: creds.SecretKey,
			SessionToken:    creds.SessionToken,
			ForcePathStyle:  creds.Endpoint != "",
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, creds.Driver)
	}
	if err != nil {
		return nil, err
	}

	if f.Decorate != nil {
		s = f.Decorate(s, driver)
	}
	return s, nil
}

func newMinioFromCredentials(creds services.Credentials) (*MinioStore, error) {
	endpoint, secure := minioEndpoint(creds.Endpoint)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		Secure: secure,
		Region: creds.Region,
	})
	if err != nil {
		return nil, &Error{Op: "New", Driver: DriverMinio, Err: err}
	}

	admin, err := madmin.NewWithOptions(endpoint, &madmin.Options{
		Creds:  miniocreds.NewStaticV4(creds.AccessKey, creds.SecretKey, creds.SessionToken),
		Secure: secure,
	})
	if err != nil {
		// Sizes are optional; listing still works without the admin API.
		return NewMinioStore(client, nil), nil
	}
	return NewMinioStore(client, admin), nil
}

// minioEndpoint strips an optional scheme. An explicit scheme decides TLS;
// otherwise shouldUseSSL guesses from the host.
func minioEndpoint(endpoint string) (string, bool) {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https") {
		return u.Host, u.Scheme == "https"
	}
	return endpoint, shouldUseSSL(endpoint)
}

// s3Endpoint gives the AWS SDK a full URL, which BaseEndpoint requires.
func s3Endpoint(endpoint string) string {
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if shouldUseSSL(endpoint) {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// shouldUseSSL determines if SSL should be used based on the endpoint.
// Returns false for localhost, 127.0.0.1, and docker service names.
func shouldUseSSL(endpoint string) bool {
	if endpoint == "localhost:9000" || endpoint == "127.0.0.1:9000" {
		return false
	}
	// Docker service names (minio:9000, minio1:9000, ...) but not domains.
	host := strings.Split(endpoint, ":")[0]
	if strings.HasPrefix(endpoint, "minio") && !strings.Contains(host, ".") && strings.Contains(endpoint, ":9000") {
		return false
	}
	return true
}
