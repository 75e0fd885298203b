// Package awsauth builds the signed STS GetCallerIdentity request that
// Vault's AWS auth method accepts as proof of IAM identity. The request is
// never sent to STS; Vault replays it server-side to verify the caller.
package awsauth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const (
	// DefaultSTSRegion is the region of the global STS endpoint.
	DefaultSTSRegion = "us-east-1"

	stsService = "sts"
	stsBody    = "Action=GetCallerIdentity&Version=2011-06-15"
)

// LoginData is a signed GetCallerIdentity request skeleton, ready to be
// encoded into a Vault login payload.
type LoginData struct {
	Method  string
	URL     string
	Headers http.Header
	Body    []byte
}

// BuildLoginData resolves credentials from the given provider and signs a
// GetCallerIdentity request with SigV4 at signingTime. The timestamp is part
// of the signed material, so two calls at different times produce different
// Authorization and X-Amz-Date headers.
func BuildLoginData(ctx context.Context, provider aws.CredentialsProvider, region string, signingTime time.Time) (*LoginData, error) {
	if region == "" {
		region = DefaultSTSRegion
	}

	creds, err := provider.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving AWS credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, stsEndpoint(region), strings.NewReader(stsBody))
	if err != nil {
		return nil, fmt.Errorf("building STS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	req.Header.Set("Content-Length", strconv.Itoa(len(stsBody)))

	sum := sha256.Sum256([]byte(stsBody))
	signer := v4.NewSigner()
	if err := signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), stsService, region, signingTime.UTC()); err != nil {
		return nil, fmt.Errorf("signing STS request: %w", err)
	}

	return &LoginData{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: req.Header,
		Body:    []byte(stsBody),
	}, nil
}

// LoginPayload encodes the signed request into the map Vault's AWS auth
// method expects at auth/<mount>/login.
func (d *LoginData) LoginPayload(role string) (map[string]interface{}, error) {
	headers, err := json.Marshal(d.Headers)
	if err != nil {
		return nil, fmt.Errorf("encoding signed headers: %w", err)
	}

	return map[string]interface{}{
		"iam_http_request_method": d.Method,
		"iam_request_url":         base64.StdEncoding.EncodeToString([]byte(d.URL)),
		"iam_request_headers":     base64.StdEncoding.EncodeToString(headers),
		"iam_request_body":        base64.StdEncoding.EncodeToString(d.Body),
		"role":                    role,
	}, nil
}

func stsEndpoint(region string) string {
	if region == DefaultSTSRegion {
		return "https://sts.amazonaws.com/"
	}
	return fmt.Sprintf("https://sts.%s.amazonaws.com/", region)
}
