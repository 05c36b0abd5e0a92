package publishers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
  - id: alerts
    type: sns
    sns:
      topic_arn: arn:aws:sns:eu-west-1:123456789012:solcast
      region: eu-west-1
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "http2" || enabled[1].ID != "alerts" {
		t.Fatalf("expected http2 and alerts enabled, got %#v", enabled)
	}
	http2, _ := reg.ByID("http2")
	if http2.HTTP.Method != "POST" || http2.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("expected http defaults to be applied, got %#v", http2.HTTP)
	}
}

func TestValidatePublisherConfigRejectsMissingBlocks(t *testing.T) {
	for _, typ := range []string{TypeHTTP, TypeSQS, TypeSNS, TypeGCPPubSub} {
		if err := validatePublisherConfig(PublisherConfig{ID: "p", Type: typ}); err == nil {
			t.Fatalf("expected validation error for missing %s block", typ)
		}
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 {
		t.Fatalf("expected 1 publisher, got %d", len(pubs))
	}
}

func TestBuildAllRejectsUnknownType(t *testing.T) {
	_, err := BuildAll(context.Background(), DefaultRegistry(), []PublisherConfig{
		{ID: "x", Type: "kafka"},
	}, nil)
	if err == nil {
		t.Fatalf("expected error for unknown publisher type")
	}
}

func TestSanitizeExpandsEnvironmentReferences(t *testing.T) {
	t.Setenv("SOLCAST_TEST_AWS_KEY", "AKID")
	t.Setenv("SOLCAST_TEST_AWS_SECRET", "secret")
	t.Setenv("SOLCAST_TEST_HOOK_TOKEN", "tok")

	cfg := sanitizePublisherConfig(PublisherConfig{
		ID:   " q ",
		Type: " SQS ",
		SQS: &SQSPublisherConfig{
			QueueURL: "https://sqs.example.com/q",
			Region:   "eu-west-1",
			Credentials: &AWSCredentials{
				AccessKeyID:     "${SOLCAST_TEST_AWS_KEY}",
				SecretAccessKey: "${SOLCAST_TEST_AWS_SECRET}",
			},
		},
		HTTP: &HTTPPublisherConfig{
			URL:     "https://example.com",
			Headers: map[string]string{"Authorization": "Bearer ${SOLCAST_TEST_HOOK_TOKEN}", " ": "x", "X-Empty": " "},
		},
	})
	if cfg.ID != "q" || cfg.Type != TypeSQS {
		t.Fatalf("id/type not normalised: %q %q", cfg.ID, cfg.Type)
	}
	if cfg.SQS.Credentials == nil || cfg.SQS.Credentials.AccessKeyID != "AKID" || cfg.SQS.Credentials.SecretAccessKey != "secret" {
		t.Fatalf("credentials not expanded: %#v", cfg.SQS.Credentials)
	}
	if len(cfg.HTTP.Headers) != 1 || cfg.HTTP.Headers["Authorization"] != "Bearer tok" {
		t.Fatalf("unexpected headers %#v", cfg.HTTP.Headers)
	}
	if err := validatePublisherConfig(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRequiresSecretWithStaticKey(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "alerts",
		Type: TypeSNS,
		SNS: &SNSPublisherConfig{
			TopicARN:    "arn:aws:sns:eu-west-1:123456789012:solcast",
			Region:      "eu-west-1",
			Credentials: &AWSCredentials{AccessKeyID: "AKID"},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "sns.credentials.secret_access_key") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestCredentialsWithoutKeyAreDropped(t *testing.T) {
	t.Setenv("SOLCAST_TEST_UNSET", "")
	creds := (&AWSCredentials{AccessKeyID: "${SOLCAST_TEST_UNSET}", SecretAccessKey: "x"}).expand()
	if creds != nil {
		t.Fatalf("expected credentials block to fall back to the default chain, got %#v", creds)
	}
}
