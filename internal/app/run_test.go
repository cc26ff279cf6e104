package app

import (
	"bytes"
	"strings"
	"testing"
)

// 到達できないDATABASE_URLを使うため、serve/workerは接続確認で失敗して即座に戻る。
func TestRun_CommandsFailOnUnreachableDatabase(t *testing.T) {
	for _, args := range [][]string{{"serve"}, {"worker"}, {}} {
		t.Run(strings.Join(append([]string{"args"}, args...), "_"), func(t *testing.T) {
			setTestEnv(t)

			var buf bytes.Buffer
			err := Run(&buf, args)
			if err == nil {
				t.Fatal("Run should fail when the database is unreachable")
			}
			if !strings.Contains(err.Error(), "database") {
				t.Errorf("error should mention the database, got %v", err)
			}
			if !strings.Contains(buf.String(), "starting application") {
				t.Errorf("startup should be logged, got %s", buf.String())
			}
		})
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BASE_URL", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
	if !strings.Contains(err.Error(), "initialization failed") {
		t.Errorf("error = %v, want initialization failure", err)
	}
}

func TestRun_HealthcheckSkipsConfig(t *testing.T) {
	// 必須の環境変数がなくてもhealthcheckは設定を読まない。
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("SERVER_PORT", "1")

	var buf bytes.Buffer
	err := Run(&buf, []string{"healthcheck"})
	if err == nil {
		t.Fatal("healthcheck against a closed port should fail")
	}
	if !strings.Contains(err.Error(), "health check failed") {
		t.Errorf("error = %v, want health check failure", err)
	}
	if buf.Len() != 0 {
		t.Errorf("healthcheck should not initialize logging, got %s", buf.String())
	}
}
