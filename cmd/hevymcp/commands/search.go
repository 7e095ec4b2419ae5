package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/search"
)

// SearchCmd runs an exercise search against the local catalog
var SearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the local exercise catalog",
	Long: `Search the local exercise catalog in English or Spanish, exactly as the
search-exercise-templates tool does.

Examples:
  hevymcp search "bench press"
  hevymcp search "press de banca" --limit 3
  hevymcp search sentadila --json          # typos are tolerated
  hevymcp search -i                        # one query per line, "-n 3" sets the limit`,
	Args: func(cmd *cobra.Command, args []string) error {
		if searchInteractive {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: runSearch,
}

var (
	searchLimit       int
	searchJSON        bool
	searchInteractive bool
)

func init() {
	SearchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, fmt.Sprintf("Maximum results (1-%d, default search.default_limit)", search.MaxLimit))
	SearchCmd.Flags().BoolVarP(&searchJSON, "json", "j", false, "Print the tool response as JSON")
	SearchCmd.Flags().BoolVarP(&searchInteractive, "interactive", "i", false, "Read queries from stdin until EOF or \"quit\"")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ranker, err := newRanker(cfg)
	if err != nil {
		return err
	}

	limit := searchLimit
	if limit == 0 {
		limit = cfg.Search.DefaultLimit
	}

	snap := newStore(cfg).Snapshot()
	if searchInteractive {
		return searchLoop(cmd.InOrStdin(), cmd.OutOrStdout(), ranker, snap, limit)
	}

	resp, err := ranker.SearchSnapshot(strings.Join(args, " "), limit, snap)
	if err != nil {
		return err
	}
	return printSearch(cmd.OutOrStdout(), resp)
}

func printSearch(out io.Writer, resp *search.Response) error {
	if searchJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal search response: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	return renderSearch(out, resp)
}

// searchLoop answers one query per input line. Lines are split like a shell
// would, so quoted phrases and "-n 3" work. Bad lines are reported and skipped.
func searchLoop(in io.Reader, out io.Writer, ranker *search.Ranker, snap *catalog.Snapshot, limit int) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "search> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		words, err := shellquote.Split(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		if len(words) == 1 && (words[0] == "quit" || words[0] == "exit") {
			return nil
		}

		query, lineLimit, err := parseSearchLine(words, limit)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		resp, err := ranker.SearchSnapshot(query, lineLimit, snap)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if err := printSearch(out, resp); err != nil {
			return err
		}
	}
}

// parseSearchLine pulls "-n N" or "--limit N" out of words; the rest is the query
func parseSearchLine(words []string, limit int) (string, int, error) {
	var query []string
	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "-n", "--limit":
			if i+1 >= len(words) {
				return "", 0, fmt.Errorf("%s needs a number", words[i])
			}
			n, err := strconv.Atoi(words[i+1])
			if err != nil {
				return "", 0, fmt.Errorf("invalid limit %q", words[i+1])
			}
			limit = n
			i++
		default:
			query = append(query, words[i])
		}
	}
	return strings.Join(query, " "), limit, nil
}

// renderSearch prints a search response as a table
func renderSearch(out io.Writer, resp *search.Response) error {
	if resp.TranslatedQuery != "" && resp.TranslatedQuery != strings.ToLower(resp.Query) {
		fmt.Fprintf(out, "Query: %s (as %q)\n", resp.Query, resp.TranslatedQuery)
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(out, resp.Message)
		if len(resp.DidYouMean) > 0 {
			fmt.Fprintf(out, "Did you mean: %s\n", strings.Join(resp.DidYouMean, ", "))
		}
		if len(resp.Suggestions) > 0 {
			fmt.Fprintf(out, "Try: %s\n", strings.Join(resp.Suggestions, ", "))
		}
		return nil
	}

	data := pterm.TableData{{"Score", "ID", "Title", "Spanish", "Muscle", "Equipment"}}
	for _, r := range resp.Results {
		data = append(data, []string{
			strconv.Itoa(r.RelevanceScore),
			r.ID,
			r.Title,
			r.SpanishTitle,
			r.PrimaryMuscleGroup,
			r.Equipment,
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}
	fmt.Fprintln(out, table)
	fmt.Fprintf(out, "Showing %d of %d matches\n", len(resp.Results), resp.Total)
	return nil
}
