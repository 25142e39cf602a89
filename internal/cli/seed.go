package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/craftbooks/recordstore/internal/store"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load fixture records from a YAML file",
		Long: `Load fixture records from a YAML file.

The fixture maps collection names to lists of records:

  customers:
    - id: c1
      name: Acme
  settings:
    - key: theme
      value: dark

Records are upserted per collection, each collection in its own
transaction, so reseeding is repeatable.

Example:
  recordstore seed fixtures/demo.yaml --db shop.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts, cmd)

	fixture, err := loadFixture(path)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("load fixture %q", path), err)
	}

	s, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	// Deterministic load order so reruns fail (or succeed) the same way.
	collections := make([]string, 0, len(fixture))
	for name := range fixture {
		collections = append(collections, name)
	}
	sort.Strings(collections)

	total := 0
	for _, collection := range collections {
		recs := fixture[collection]
		if _, err := s.BulkPut(cmd.Context(), collection, recs); err != nil {
			return out.Fail(ExitFailure, fmt.Sprintf("seed collection %q", collection), err)
		}
		out.VerboseLog("seeded %s: %d record(s)", collection, len(recs))
		total += len(recs)
	}

	return out.Success(seedResult{
		Path:        path,
		Collections: len(collections),
		Records:     total,
	})
}

// loadFixture parses a YAML fixture into per-collection record lists.
func loadFixture(path string) (map[string][]store.Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fixture map[string][]store.Record
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return fixture, nil
}

type seedResult struct {
	Path        string `json:"path"`
	Collections int    `json:"collections"`
	Records     int    `json:"records"`
}

func (r seedResult) String() string {
	return fmt.Sprintf("seeded %d record(s) across %d collection(s) from %s", r.Records, r.Collections, r.Path)
}
