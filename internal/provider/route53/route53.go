// Package route53 implements provider.Client against AWS Route53, using
// aws-sdk-go-v2.
package route53

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/zonecraft/macrotine/internal/macrotine"
	"github.com/zonecraft/macrotine/internal/provider"
	"github.com/zonecraft/macrotine/internal/resource"
	"github.com/zonecraft/macrotine/internal/tinydns"
)

// Config carries the fields needed to build a Route53 client, including the
// optional role-assumption parameters.
type Config struct {
	Region      string
	AssumeRole  bool
	RoleARN     string
	SessionName string
}

// Client adapts Route53 to provider.Client.
type Client struct {
	api *route53.Client
}

// New builds a Client, assuming conf.RoleARN via STS when conf.AssumeRole is
// set.
func New(ctx context.Context, conf Config) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if conf.Region != "" {
		opts = append(opts, awsconfig.WithRegion(conf.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &macrotine.IOError{Op: "loading AWS config", Err: err}
	}

	if conf.AssumeRole {
		if conf.RoleARN == "" {
			return nil, &macrotine.ConfigError{Field: "provider.role_arn", Reason: "assume_role is true but role_arn is empty"}
		}
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

	return &Client{api: route53.NewFromConfig(cfg)}, nil
}

// PrecheckCredentials implements provider.CredentialPrecheck: a fail-fast
// check that AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are both set,
// before any zone work begins.
func (c *Client) PrecheckCredentials() error {
	if os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		return &macrotine.ConfigError{Field: "AWS_ACCESS_KEY_ID", Reason: "unset"}
	}
	if os.Getenv("AWS_SECRET_ACCESS_KEY") == "" {
		return &macrotine.ConfigError{Field: "AWS_SECRET_ACCESS_KEY", Reason: "unset"}
	}
	return nil
}

// List follows Route53's IsTruncated/NextRecordName cursor until exhausted.
func (c *Client) List(ctx context.Context, zoneID string) ([]resource.Resource, error) {
	var out []resource.Resource

	req := &route53.ListResourceRecordSetsInput{HostedZoneId: aws.String(zoneID)}
	for {
		resp, err := c.api.ListResourceRecordSets(ctx, req)
		if err != nil {
			return nil, &macrotine.ProviderError{ZoneID: zoneID, Retryable: isRetryable(err), Err: err}
		}
		out = append(out, convertRecordSets(resp.ResourceRecordSets, zoneID)...)

		if !aws.ToBool(resp.IsTruncated) {
			break
		}
		req.StartRecordName = resp.NextRecordName
		req.StartRecordType = resp.NextRecordType
		req.StartRecordIdentifier = resp.NextRecordIdentifier
	}

	return out, nil
}

func convertRecordSets(sets []r53types.ResourceRecordSet, zoneID string) []resource.Resource {
	out := make([]resource.Resource, 0, len(sets))
	for _, rs := range sets {
		var values []string
		for _, rr := range rs.ResourceRecords {
			values = append(values, aws.ToString(rr.Value))
		}
		ttl := int64(300)
		if rs.TTL != nil {
			ttl = *rs.TTL
		}
		out = append(out, resource.Resource{
			ZoneID: zoneID,
			Name:   strings.TrimSuffix(aws.ToString(rs.Name), "."),
			RType:  tinydns.RType(rs.Type),
			Values: values,
			TTL:    ttl,
		})
	}
	return out
}

// Apply submits a mixed-action batch as a single ChangeResourceRecordSets
// call. Batches larger than provider.MaxBatchSize are the caller's problem
// to chunk; this only validates the size.
func (c *Client) Apply(ctx context.Context, zoneID string, batch []provider.Change) (string, error) {
	if len(batch) == 0 {
		return "", nil
	}
	if len(batch) > provider.MaxBatchSize {
		return "", &macrotine.ProviderError{ZoneID: zoneID, Retryable: false, Err: fmt.Errorf("batch of %d exceeds max size %d", len(batch), provider.MaxBatchSize)}
	}

	changes := make([]r53types.Change, 0, len(batch))
	for _, ch := range batch {
		changes = append(changes, r53types.Change{
			Action:            changeAction(ch.Action),
			ResourceRecordSet: toRecordSet(ch.Resource),
		})
	}

	resp, err := c.api.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch:  &r53types.ChangeBatch{Changes: changes},
	})
	if err != nil {
		return "", &macrotine.ProviderError{ZoneID: zoneID, Retryable: isRetryable(err), Err: err}
	}

	return aws.ToString(resp.ChangeInfo.Id), nil
}

func changeAction(a provider.Action) r53types.ChangeAction {
	switch a {
	case provider.Create:
		return r53types.ChangeActionCreate
	case provider.Delete:
		return r53types.ChangeActionDelete
	default:
		return r53types.ChangeActionUpsert
	}
}

func toRecordSet(r resource.Resource) *r53types.ResourceRecordSet {
	rrs := make([]r53types.ResourceRecord, 0, len(r.Values))
	for _, v := range r.Values {
		rrs = append(rrs, r53types.ResourceRecord{Value: aws.String(v)})
	}
	return &r53types.ResourceRecordSet{
		Name:            aws.String(r.Name),
		Type:            r53types.RRType(r.RType),
		TTL:             aws.Int64(r.TTL),
		ResourceRecords: rrs,
	}
}

// isRetryable categorizes Route53 errors into retryable (throttling, 5xx)
// vs terminal (everything else). It is a classification hint only; this
// layer never retries automatically.
func isRetryable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Throttling") || strings.Contains(msg, "PriorRequestNotComplete") || strings.Contains(msg, "InternalError")
}
