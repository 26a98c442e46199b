// Command loupe runs a search against a configured engine from the command
// line and prints the reconstructed result as JSON. Useful for smoke-testing
// an engine deployment and for inspecting wire payloads.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loupe-cloud/loupe"
	logpkg "github.com/loupe-cloud/loupe/internal/logger"
	"github.com/loupe-cloud/loupe/internal/version"
)

func main() {
	var (
		configPath = flag.String("config", "loupe.yaml", "path to the YAML configuration file")
		page       = flag.Int("page", loupe.DefaultPage, "1-based result page")
		size       = flag.Int("size", loupe.DefaultSize, "page size")
		brands     = flag.String("brands", "", "comma-separated brand ids to filter by")
		families   = flag.String("families", "", "comma-separated families to filter by")
		timeout    = flag.Duration("timeout", 15*time.Second, "overall request timeout")
	)
	flag.Parse()

	logger, err := logpkg.New(os.Getenv("LOUPE_ENV"), os.Getenv("LOUPE_LOG_LEVEL"))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("loupe search",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("config", *configPath),
	)

	client, err := loupe.NewFromConfig(*configPath, loupe.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}
	defer client.Close()

	text := strings.Join(flag.Args(), " ")
	q := loupe.NewQuery(text, *page, *size)
	if *brands != "" {
		q.FilterByBrands(splitList(*brands), loupe.ApplicationTypeAtLeastOne, true)
	}
	if *families != "" {
		q.FilterByFamilies(splitList(*families), loupe.ApplicationTypeAtLeastOne, true)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := client.Search(ctx, q)
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}

	logger.Info("search completed",
		zap.Int("total_hits", result.TotalHits()),
		zap.Int("total_elements", result.TotalElements()),
		zap.Int("items", len(result.Items())),
	)

	out, err := json.MarshalIndent(result.ToMap(), "", "  ")
	if err != nil {
		logger.Fatal("failed to encode result", zap.Error(err))
	}
	fmt.Println(string(out))
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
