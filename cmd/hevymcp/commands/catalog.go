package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/config"
	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
	"github.com/gymkit/hevymcp/version"
)

// CatalogCmd groups the local catalog commands
var CatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the local exercise catalog",
	Long: `Manage the local exercise template catalog used by search.

Examples:
  hevymcp catalog update                  # Download all templates from Hevy
  hevymcp catalog update -o exercises.json
  hevymcp catalog import https://example.com/exercises.json
  hevymcp catalog import --translations ./templates_hevy_exercises.csv
  hevymcp catalog stats                   # Counts, coverage and groupings`,
}

var catalogUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the exercise templates from the Hevy API",
	Long: `Page through GET /v1/exercise_templates and write a fresh catalog file.

Requires a Hevy API key (HEVY_API_KEY or hevy.api_key). The previous catalog
is kept next to the new one with a .bak suffix. If a page after the first
fails, the templates fetched so far are still written and a warning is shown.`,
	RunE: runCatalogUpdate,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Install a catalog or translations file from a path or URL",
	Long: `Fetch a prebuilt catalog (or, with --translations, a Spanish titles CSV)
and install it at catalog.path (or catalog.translations_path).

The source may be a local path, an http(s) URL, or any go-getter source such
as s3::https://... or git::https://...//file.json. The file must parse and
contain at least one entry; the previous file is kept with a .bak suffix.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE:  runCatalogStats,
}

var (
	catalogOutput       string
	catalogJSON         bool
	catalogTranslations bool
)

func init() {
	catalogUpdateCmd.Flags().StringVarP(&catalogOutput, "output", "o", "", "Write the catalog here instead of catalog.path")
	catalogImportCmd.Flags().StringVarP(&catalogOutput, "output", "o", "", "Install here instead of the configured path")
	catalogImportCmd.Flags().BoolVar(&catalogTranslations, "translations", false, "Import a translations CSV instead of a catalog")
	catalogStatsCmd.Flags().BoolVarP(&catalogJSON, "json", "j", false, "Output statistics as JSON")

	CatalogCmd.AddCommand(catalogUpdateCmd)
	CatalogCmd.AddCommand(catalogImportCmd)
	CatalogCmd.AddCommand(catalogStatsCmd)
}

func runCatalogUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Catalog.Path
	if catalogOutput != "" {
		path = catalogOutput
	}

	pterm.DefaultHeader.WithFullWidth().Printf("Hevy catalog update")
	pterm.Println()
	pterm.Info.Printf("Target: %s\n", path)

	spinner, _ := pterm.DefaultSpinner.Start("Fetching exercise templates...")
	file, result, err := updateCatalog(cmd.Context(), cfg, path, func(page, pageCount, fetched int) {
		if spinner == nil {
			return
		}
		if pageCount > 0 {
			spinner.UpdateText(fmt.Sprintf("Fetched page %d/%d (%d templates)", page, pageCount, fetched))
		} else {
			spinner.UpdateText(fmt.Sprintf("Fetched page %d (%d templates)", page, fetched))
		}
	})
	if err != nil {
		if spinner != nil {
			spinner.Fail("Catalog update failed")
		}
		return err
	}
	if spinner != nil {
		spinner.Success(fmt.Sprintf("Fetched %d templates in %d pages", len(result.Records), result.Pages))
	}

	if result.Partial != nil {
		pterm.Warning.Printf("Catalog is incomplete: %v\n", result.Partial)
		pterm.Warning.Println("Run the update again to fetch the remaining templates")
	}

	pterm.Println()
	pterm.Success.Printf("Wrote %d templates to %s\n", file.Metadata.TotalExercises, path)
	pterm.Printf("  Pages fetched:   %d\n", file.Metadata.TotalPagesFetched)
	pterm.Printf("  Generation time: %s\n", (time.Duration(file.Metadata.GenerationTimeSeconds * float64(time.Second))).Round(time.Millisecond))
	pterm.Printf("  Last updated:    %s\n", file.Metadata.LastUpdated)
	return nil
}

// updateCatalog downloads every template and writes them to path
func updateCatalog(ctx context.Context, cfg *config.Config, path string, progress catalog.ProgressFunc) (*catalog.File, *catalog.FetchResult, error) {
	if !cfg.HasAPIKey() {
		return nil, nil, errors.WithHint(
			errors.Wrap(errors.ErrUnauthorized, "hevy api key not configured"),
			"set HEVY_API_KEY or hevy.api_key to download the catalog",
		)
	}
	client, err := newHevyClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	fetcher := catalog.NewFetcher(client, cfg.Hevy.PageSize, logger.ComponentLogger("catalog-fetcher"))
	if progress != nil {
		fetcher.OnProgress(progress)
	}

	result, err := fetcher.Fetch(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to fetch exercise templates")
	}

	file, err := catalog.Save(path, result, version.Name+" catalog update")
	if err != nil {
		return nil, nil, err
	}
	return file, result, nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	kind := catalog.ImportCatalog
	path := cfg.Catalog.Path
	if catalogTranslations {
		kind = catalog.ImportTranslations
		path = cfg.Catalog.TranslationsPath
	}
	if catalogOutput != "" {
		path = catalogOutput
	}
	if path == "" {
		return errors.WithHint(
			errors.Newf("no destination for %s import", kind),
			"set catalog.translations_path or pass --output",
		)
	}

	result, err := catalog.Import(cmd.Context(), args[0], path, kind, logger.ComponentLogger("catalog-import"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d %s entries (%d bytes) to %s\n",
		result.Entries, result.Kind, result.Bytes, result.Path)
	return nil
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := newStore(cfg)
	stats := catalog.ComputeStats(store.Snapshot())
	if err := store.Err(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if catalogJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	return renderStats(out, stats)
}

// renderStats prints catalog statistics with the largest groups first
func renderStats(out io.Writer, stats catalog.Stats) error {
	fmt.Fprintf(out, "Catalog:      %s\n", stats.Path)
	fmt.Fprintf(out, "Exercises:    %d (%d custom)\n", stats.Total, stats.Custom)
	fmt.Fprintf(out, "Spanish:      %d (%.1f%%)\n", stats.Translated, stats.TranslationCoverage)
	if stats.LastUpdated != "" {
		fmt.Fprintf(out, "Last updated: %s\n", stats.LastUpdated)
	}
	fmt.Fprintln(out)

	for _, group := range []struct {
		title  string
		counts map[string]int
	}{
		{"Muscle group", stats.ByMuscleGroup},
		{"Equipment", stats.ByEquipment},
	} {
		data := pterm.TableData{{group.title, "Exercises"}}
		for _, c := range catalog.SortedCounts(group.counts) {
			data = append(data, []string{c.Name, fmt.Sprint(c.Count)})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return fmt.Errorf("failed to render stats: %w", err)
		}
		fmt.Fprintln(out, table)
		fmt.Fprintln(out)
	}
	return nil
}
