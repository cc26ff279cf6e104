package security

import (
	"strings"
	"testing"
	"time"
)

func TestSanitizeHTML_KeepsMarkdownTags(t *testing.T) {
	s := NewContentSanitizer()
	in := "<h2>Plan</h2><p><strong>Squat</strong> and <em>rest</em></p><ul><li>3 sets</li></ul><pre><code>5x5</code></pre>"

	if got := s.SanitizeHTML(in); got != in {
		t.Errorf("SanitizeHTML() = %q, want unchanged %q", got, in)
	}
}

func TestSanitizeHTML_RemovesDangerousContent(t *testing.T) {
	s := NewContentSanitizer()
	tests := []struct {
		name, in, forbidden string
	}{
		{"script", `<p>hi</p><script>alert(1)</script>`, "<script"},
		{"iframe", `<iframe src="https://evil.example"></iframe>`, "<iframe"},
		{"style", `<style>body{}</style>`, "<style"},
		{"onclick", `<p onclick="alert(1)">x</p>`, "onclick"},
		{"javascript href", `<a href="javascript:alert(1)">x</a>`, "javascript:"},
		{"img", `<img src="https://example.com/a.png" onerror="alert(1)">`, "<img"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeHTML(tt.in)
			if strings.Contains(got, tt.forbidden) {
				t.Errorf("SanitizeHTML(%q) = %q, still contains %q", tt.in, got, tt.forbidden)
			}
		})
	}
}

func TestSanitizeHTML_LinksOpenInNewTab(t *testing.T) {
	s := NewContentSanitizer()
	got := s.SanitizeHTML(`<a href="https://example.com/guide">guide</a>`)

	for _, want := range []string{`href="https://example.com/guide"`, `target="_blank"`, "noopener", "noreferrer"} {
		if !strings.Contains(got, want) {
			t.Errorf("SanitizeHTML() = %q, missing %q", got, want)
		}
	}
}

func TestSanitizeText_StripsAllTags(t *testing.T) {
	s := NewContentSanitizer()
	got := s.SanitizeText(`<b>Felt great</b><script>alert(1)</script>`)
	if strings.Contains(got, "<") {
		t.Errorf("SanitizeText() = %q, want no tags", got)
	}
	if !strings.Contains(got, "Felt great") {
		t.Errorf("SanitizeText() = %q, want text preserved", got)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()
	in := `<p>Drink <a href="https://example.com">water</a></p><script>x</script>`
	once := s.SanitizeHTML(in)
	if twice := s.SanitizeHTML(once); twice != once {
		t.Errorf("not idempotent: %q -> %q", once, twice)
	}
}

func TestNewSafeClient_SetsTimeout(t *testing.T) {
	client := NewOutboundGuard().NewSafeClient(7 * time.Second)
	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", client.Timeout)
	}
}

func TestNewSafeClient_BlocksLoopback(t *testing.T) {
	client := NewOutboundGuard().NewSafeClient(2 * time.Second)
	resp, err := client.Get("https://127.0.0.1/")
	if err == nil {
		resp.Body.Close()
		t.Fatal("expected loopback request to be blocked")
	}
}

func TestValidateEndpoint(t *testing.T) {
	g := NewOutboundGuard()
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://generativelanguage.googleapis.com/v1beta", false},
		{"https://generativelanguage.googleapis.com:443/v1beta", false},
		{"http://generativelanguage.googleapis.com/v1beta", true},
		{"https://generativelanguage.googleapis.com:8443/v1beta", true},
		{"https://localhost/v1", true},
		{"https://127.0.0.1/v1", true},
		{"https://10.0.0.5/v1", true},
		{"https://169.254.169.254/latest", true},
		{"https://[::1]/v1", true},
		{"", true},
		{"://bad", true},
	}
	for _, tt := range tests {
		err := g.ValidateEndpoint(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateEndpoint(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
