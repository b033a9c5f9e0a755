package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Solr.ReadinessTimeout != 30 {
		t.Errorf("expected ReadinessTimeout=30, got %d", cfg.Solr.ReadinessTimeout)
	}
	if cfg.Search.ExportPageSize != 1000 {
		t.Errorf("expected ExportPageSize=1000, got %d", cfg.Search.ExportPageSize)
	}
	if cfg.Solr.Fields.Time != "created_at" {
		t.Errorf("expected default time field, got %q", cfg.Solr.Fields.Time)
	}
	if cfg.Solr.Fields.GeoRPT != "coord_rpt" {
		t.Errorf("expected default geo field, got %q", cfg.Solr.Fields.GeoRPT)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		Solr: SolrConfig{BaseURL: "http://localhost:8983/solr", Collection: "bop"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing port")
	}
}

func TestValidate_MissingSolr(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing solr.base_url")
	}

	cfg.Solr.BaseURL = "http://localhost:8983/solr"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing solr.collection")
	}
}

func TestValidate_ExportPageSizeCap(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Solr:   SolrConfig{BaseURL: "http://localhost:8983/solr", Collection: "bop"},
		Search: SearchConfig{ExportPageSize: 20000},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for oversized export page")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("BOP_TEST_URL", "http://solr:8983/solr")

	in := []byte("base_url: ${BOP_TEST_URL}\ncollection: ${BOP_TEST_MISSING:-bop}\n")
	out := string(expandEnvVars(in))

	want := "base_url: http://solr:8983/solr\ncollection: bop\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	yaml := `
http:
  port: 9090
solr:
  base_url: http://localhost:8983/solr
  collection: bop
  fields:
    text: body
`
	if err := os.WriteFile(filepath.Join(cfgDir, "test.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port: %d", cfg.HTTP.Port)
	}
	if cfg.Solr.Fields.Text != "body" {
		t.Errorf("overridden text field: %q", cfg.Solr.Fields.Text)
	}
	if cfg.Solr.Fields.User != "user_name" {
		t.Errorf("defaulted user field: %q", cfg.Solr.Fields.User)
	}
	if cfg.Search.ExportPageSize != 1000 {
		t.Errorf("defaulted export page size: %d", cfg.Search.ExportPageSize)
	}
}
