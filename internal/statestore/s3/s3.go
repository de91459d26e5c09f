// Package s3 implements statestore.Store against a single S3 object.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/zonecraft/macrotine/internal/macrotine"
	"github.com/zonecraft/macrotine/internal/statestore"
)

// Config carries the statefile config block's S3-backend fields.
type Config struct {
	Bucket      string
	Key         string
	Region      string
	RoleARN     string
	SessionName string
}

// Store persists state as a single S3 object. Optimistic concurrency uses
// the object's ETag as the version token and a conditional PutObject
// (IfMatch), the closest S3 analogue to compare-and-swap.
type Store struct {
	api    *s3.Client
	bucket string
	key    string
}

// New builds a Store, assuming conf.RoleARN via STS when set.
func New(ctx context.Context, conf Config) (*Store, error) {
	if conf.Bucket == "" || conf.Key == "" {
		return nil, &macrotine.ConfigError{Field: "statefile.bucket/key", Reason: "both are required for the s3 backend"}
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if conf.Region != "" {
		opts = append(opts, awsconfig.WithRegion(conf.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &macrotine.IOError{Op: "loading AWS config", Err: err}
	}

	if conf.RoleARN != "" {
		session := conf.SessionName
		if session == "" {
			session = "default"
		}
		stsClient := sts.NewFromConfig(cfg)
		provider := stscreds.NewAssumeRoleProvider(stsClient, conf.RoleARN, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = session
		})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	return &Store{api: s3.NewFromConfig(cfg), bucket: conf.Bucket, key: conf.Key}, nil
}

// Load fetches the state object. A NoSuchKey error is not a failure: it
// means this is the first run, so an empty State is returned with
// statestore.ErrNotFound.
func (st *Store) Load() (statestore.State, string, error) {
	ctx := context.Background()
	resp, err := st.api.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(st.bucket), Key: aws.String(st.key)})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return statestore.Empty(""), "", statestore.ErrNotFound
		}
		return statestore.State{}, "", &macrotine.IOError{Op: fmt.Sprintf("fetching s3://%s/%s", st.bucket, st.key), Err: err}
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return statestore.State{}, "", &macrotine.IOError{Op: "reading s3 object body", Err: err}
	}

	var decoded statestore.State
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		return statestore.State{}, "", &macrotine.IOError{Op: "decoding state JSON", Err: err}
	}

	return decoded, aws.ToString(resp.ETag), nil
}

// Save writes state, conditioned on the object's ETag still matching
// expectedVersion (empty string means "must not exist yet").
func (st *Store) Save(state statestore.State, expectedVersion string) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", &macrotine.IOError{Op: "encoding state", Err: err}
	}

	ctx := context.Background()
	input := &s3.PutObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(st.key),
		Body:   bytes.NewReader(data),
	}
	if expectedVersion != "" {
		input.IfMatch = aws.String(expectedVersion)
	} else {
		input.IfNoneMatch = aws.String("*")
	}

	resp, err := st.api.PutObject(ctx, input)
	if err != nil {
		if isPreconditionFailed(err) {
			return "", &macrotine.ConflictError{Reason: fmt.Sprintf("s3://%s/%s changed since last load", st.bucket, st.key)}
		}
		return "", &macrotine.IOError{Op: fmt.Sprintf("writing s3://%s/%s", st.bucket, st.key), Err: err}
	}

	return aws.ToString(resp.ETag), nil
}

func isPreconditionFailed(err error) bool {
	var apiErr interface{ ErrorCode() string }
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "PreconditionFailed" || code == "AtPreconditionFailed"
	}
	return false
}
