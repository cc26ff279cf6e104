package gymdesk_test

import (
	"os"
	"strings"
	"testing"
)

func readFile(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

// serviceBlock はdocker-compose.ymlから指定サービスの定義部分を切り出す。
func serviceBlock(t *testing.T, compose, name string) string {
	t.Helper()
	start := strings.Index(compose, "\n  "+name+":\n")
	if start < 0 {
		t.Fatalf("docker-compose.yml should define service %q", name)
	}
	rest := compose[start+1:]
	lines := strings.Split(rest, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 && strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "   ") {
			break
		}
		if i > 0 && line != "" && !strings.HasPrefix(line, " ") {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func TestDockerfile(t *testing.T) {
	content := readFile(t, "Dockerfile")

	var froms []string
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "FROM ") {
			froms = append(froms, trimmed)
		}
	}
	if len(froms) < 2 {
		t.Fatalf("Dockerfile should be a multi-stage build, got %d stages", len(froms))
	}
	if !strings.HasPrefix(froms[0], "FROM golang:") {
		t.Errorf("first stage should build with golang image, got %q", froms[0])
	}
	if last := froms[len(froms)-1]; !strings.Contains(last, "gcr.io/distroless") {
		t.Errorf("final stage should be distroless, got %q", last)
	}

	for _, want := range []string{"./cmd/gymdesk", "ENTRYPOINT", `"healthcheck"`} {
		if !strings.Contains(content, want) {
			t.Errorf("Dockerfile should contain %q", want)
		}
	}
}

func TestDockerCompose_Services(t *testing.T) {
	compose := readFile(t, "docker-compose.yml")

	tests := []struct {
		service string
		command string
	}{
		{"migrate", `["migrate"]`},
		{"api", `["serve"]`},
		{"worker", `["worker"]`},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			block := serviceBlock(t, compose, tt.service)
			if !strings.Contains(block, tt.command) {
				t.Errorf("service %s should run %s, got:\n%s", tt.service, tt.command, block)
			}
		})
	}

	if db := serviceBlock(t, compose, "db"); !strings.Contains(db, "image: postgres:") {
		t.Errorf("db service should use PostgreSQL image, got:\n%s", db)
	}
}

func TestDockerCompose_Egress(t *testing.T) {
	compose := readFile(t, "docker-compose.yml")

	if !strings.Contains(compose, "internal: true") {
		t.Fatal("docker-compose.yml should define an internal network")
	}

	// 外部ネットワークへ出るのはチャット生成APIを呼ぶapiのみ
	if !strings.Contains(serviceBlock(t, compose, "api"), "- external") {
		t.Error("api service should join the external network")
	}
	for _, svc := range []string{"db", "migrate", "worker"} {
		if strings.Contains(serviceBlock(t, compose, svc), "- external") {
			t.Errorf("service %s should not join the external network", svc)
		}
	}
}
