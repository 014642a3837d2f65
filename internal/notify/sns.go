// SNS delivery for environments where alerts fan out through AWS rather
// than a chat webhook.
//
// The sink signs SNS Publish calls with AWS SigV4 using the standard
// credential chain, talking to the query API directly so the alert path has
// no dependency on a chat provider being reachable.
package notify

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/upstreamlab/poolwatch/internal/detect"
)

// SNSSink publishes alerts to an SNS topic.
type SNSSink struct {
	topicARN    string
	region      string
	endpoint    string
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	client      *http.Client
}

// NewSNSSink creates a sink publishing to the given topic. It loads
// credentials from the standard AWS credential chain and verifies they are
// retrievable so a misconfigured environment fails at startup, not at the
// first alert.
func NewSNSSink(ctx context.Context, topicARN, region string, timeout time.Duration) (*SNSSink, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("sns sink requires a topic arn")
	}
	if region == "" {
		region = regionFromARN(topicARN)
	}
	if region == "" {
		region = "us-east-1"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("failed to retrieve AWS credentials: %w", err)
	}

	return &SNSSink{
		topicARN:    topicARN,
		region:      region,
		endpoint:    fmt.Sprintf("https://sns.%s.amazonaws.com/", region),
		credentials: cfg.Credentials,
		signer:      v4.NewSigner(),
		client:      &http.Client{Timeout: timeout},
	}, nil
}

// regionFromARN pulls the region out of arn:aws:sns:REGION:account:topic.
func regionFromARN(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) >= 4 {
		return parts[3]
	}
	return ""
}

// Name implements Sink.
func (s *SNSSink) Name() string { return "sns" }

// Send implements Sink. It signs and posts one Publish call to the SNS
// query API.
func (s *SNSSink) Send(ctx context.Context, ev *detect.Event, msg Message) error {
	form := url.Values{}
	form.Set("Action", "Publish")
	form.Set("Version", "2010-03-31")
	form.Set("TopicArn", s.topicARN)
	form.Set("Subject", msg.Subject())
	form.Set("Message", msg.Text())
	body := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sns request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve AWS credentials: %w", err)
	}

	payloadHash := fmt.Sprintf("%x", sha256.Sum256([]byte(body)))
	if err := s.signer.SignHTTP(ctx, creds, req, payloadHash, "sns", s.region, time.Now()); err != nil {
		return fmt.Errorf("failed to sign sns request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("publishing to sns: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sns returned status %d", resp.StatusCode)
	}

	return nil
}
