package awsauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/require"
)

var staticCreds = credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "")

func TestBuildLoginDataSignsRequest(t *testing.T) {
	signingTime := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	login, err := BuildLoginData(context.Background(), staticCreds, "", signingTime)
	require.NoError(t, err)

	require.Equal(t, http.MethodPost, login.Method)
	require.Equal(t, "https://sts.amazonaws.com/", login.URL)
	require.Equal(t, "Action=GetCallerIdentity&Version=2011-06-15", string(login.Body))
	require.Equal(t, "20260825T120000Z", login.Headers.Get("X-Amz-Date"))

	auth := login.Headers.Get("Authorization")
	require.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20260825/us-east-1/sts/aws4_request"), auth)
	require.Contains(t, auth, "SignedHeaders=")
	require.Contains(t, auth, "Signature=")
}

func TestSignaturesDifferAcrossTime(t *testing.T) {
	t0 := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Second)

	first, err := BuildLoginData(context.Background(), staticCreds, "", t0)
	require.NoError(t, err)
	second, err := BuildLoginData(context.Background(), staticCreds, "", t1)
	require.NoError(t, err)

	require.NotEqual(t, first.Headers.Get("Authorization"), second.Headers.Get("Authorization"))
	require.NotEqual(t, first.Headers.Get("X-Amz-Date"), second.Headers.Get("X-Amz-Date"))
}

func TestSessionTokenIsSigned(t *testing.T) {
	withSession := credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "session-token")

	login, err := BuildLoginData(context.Background(), withSession, "", time.Now())
	require.NoError(t, err)
	require.Equal(t, "session-token", login.Headers.Get("X-Amz-Security-Token"))
}

func TestRegionalEndpoint(t *testing.T) {
	login, err := BuildLoginData(context.Background(), staticCreds, "eu-west-1", time.Now())
	require.NoError(t, err)
	require.Equal(t, "https://sts.eu-west-1.amazonaws.com/", login.URL)
	require.Contains(t, login.Headers.Get("Authorization"), "/eu-west-1/sts/aws4_request")
}

func TestLoginPayloadEncoding(t *testing.T) {
	login, err := BuildLoginData(context.Background(), staticCreds, "", time.Now())
	require.NoError(t, err)

	payload, err := login.LoginPayload("secret-dev-role")
	require.NoError(t, err)
	require.Equal(t, "secret-dev-role", payload["role"])
	require.Equal(t, http.MethodPost, payload["iam_http_request_method"])

	url, err := base64.StdEncoding.DecodeString(payload["iam_request_url"].(string))
	require.NoError(t, err)
	require.Equal(t, login.URL, string(url))

	rawHeaders, err := base64.StdEncoding.DecodeString(payload["iam_request_headers"].(string))
	require.NoError(t, err)
	var headers http.Header
	require.NoError(t, json.Unmarshal(rawHeaders, &headers))
	require.NotEmpty(t, headers.Get("Authorization"))

	body, err := base64.StdEncoding.DecodeString(payload["iam_request_body"].(string))
	require.NoError(t, err)
	require.Equal(t, string(login.Body), string(body))
}
