package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/devactivity/digestfile/internal/digestfile"
	"github.com/devactivity/digestfile/internal/httpapi"
)

func main() {
	addr := strings.TrimSpace(os.Getenv("DIGESTFILE_ADDR"))
	if addr == "" {
		addr = ":8787"
	}
	outputDir := strings.TrimSpace(os.Getenv("DIGESTFILE_OUT_DIR"))
	if outputDir == "" {
		outputDir = "notebooklm_output"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory %s: %v", outputDir, err)
	}

	watermarks, err := buildWatermarkStoreFromEnv(outputDir)
	if err != nil {
		log.Fatalf("failed to initialize watermark store: %v", err)
	}

	store := digestfile.NewStoreWithOptions(digestfile.StoreOptions{
		OutputDir:        outputDir,
		DefaultProjectID: strings.TrimSpace(os.Getenv("DIGESTFILE_DEFAULT_PROJECT")),
		Watermarks:       watermarks,
	})
	server := httpapi.NewServerWithConfig(store, httpapi.ServerConfig{
		StaticDir:    strings.TrimSpace(os.Getenv("DIGESTFILE_STATIC_DIR")),
		MaxBodyBytes: int64Env("DIGESTFILE_MAX_BODY_BYTES", 0),
	})

	log.Printf("digestfile listening on %s, writing digests under %s", addr, outputDir)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func buildWatermarkStoreFromEnv(outputDir string) (digestfile.WatermarkStore, error) {
	dsn := strings.TrimSpace(os.Getenv("DIGESTFILE_WATERMARK_DSN"))
	if dsn == "" {
		return digestfile.NewDirWatermarkStore(outputDir), nil
	}
	return digestfile.BuildWatermarkStoreFromDSN(dsn)
}

func int64Env(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}
