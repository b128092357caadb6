// Command simdial synthesizes task-oriented dialog corpora: a matrix of
// domains x complexity profiles x corpus sizes, written as JSON or plain text,
// optionally mirrored into a SQLite database.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"simdial/internal/complexity"
	"simdial/internal/corpus"
	"simdial/internal/domain"
	"simdial/internal/generator"
)

var (
	verbose bool
	debug   bool

	outDir       string
	domainNames  []string
	profileNames []string
	domainFiles  []string
	profileFiles []string
	testSize     int
	trainSize    int
	seed         int64
	workers      int
	format       string
	sqlitePath   string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "simdial",
	Short: "Synthetic slot-filling dialog corpus generator",
	Long: `simdial generates synthetic human-computer conversations for
slot-filling domains. A simulated user with a hidden goal talks to a
belief-tracking dialog system over a noisy channel; every session is recorded
with symbolic acts, rendered utterances and the system's belief state.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if debug {
			config.OutputPaths = []string{"simdial-debug.log"}
			config.ErrorOutputPaths = []string{"simdial-debug.log"}
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate corpora for every (domain, profile, size) combination",
	Long: `Runs the generation matrix. For each selected domain and complexity
profile a test corpus and a train corpus are written to
<out>/<domain>-<Profile>-<size>.<ext>.`,
	RunE: runGenerate,
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the builtin domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, s := range domain.Builtins() {
			fmt.Printf("%-18s %d usr slots, %d sys slots, db %d\n",
				s.Name, len(s.UserSlots), len(s.SystemSlots), s.DBSize)
		}
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the builtin complexity profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range complexity.Builtins() {
			fmt.Printf("%-10s asr %.2f/%.2f  yn %.2f  dont_care %.2f  hesitation %.2f\n",
				p.Name, p.Environment.ASRAcc, p.Environment.ASRStd,
				p.Proposition.YNQuestion, p.Proposition.DontCare,
				p.Interaction.Hesitation)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write logs to simdial-debug.log instead of stderr")

	generateCmd.Flags().StringVarP(&outDir, "out", "o", "simdial-corpus", "output directory")
	generateCmd.Flags().StringSliceVar(&domainNames, "domains", domain.BuiltinNames(), "builtin domains to generate")
	generateCmd.Flags().StringSliceVar(&profileNames, "profiles", complexity.Names(), "builtin complexity profiles to use")
	generateCmd.Flags().StringSliceVar(&domainFiles, "domain-file", nil, "extra domain spec YAML files")
	generateCmd.Flags().StringSliceVar(&profileFiles, "profile-file", nil, "extra complexity profile YAML files")
	generateCmd.Flags().IntVar(&testSize, "test-size", 500, "dialogs per test corpus (0 to skip)")
	generateCmd.Flags().IntVar(&trainSize, "train-size", 2000, "dialogs per train corpus (0 to skip)")
	generateCmd.Flags().Int64Var(&seed, "seed", 1, "base random seed")
	generateCmd.Flags().IntVar(&workers, "workers", 0, "parallel sessions (0 = GOMAXPROCS)")
	generateCmd.Flags().StringVar(&format, "format", "json", "corpus format: json or txt")
	generateCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also write dialogs to this SQLite database")

	rootCmd.AddCommand(generateCmd, domainsCmd, profilesCmd)
}

func resolveDomains() ([]*domain.Spec, error) {
	var specs []*domain.Spec
	for _, name := range domainNames {
		s, err := domain.Builtin(name)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	for _, path := range domainFiles {
		s, err := domain.LoadSpec(path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

func resolveProfiles() ([]*complexity.Profile, error) {
	var profiles []*complexity.Profile
	for _, name := range profileNames {
		p, err := complexity.Builtin(name)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	for _, path := range profileFiles {
		p, err := complexity.Load(path)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func runGenerate(cmd *cobra.Command, args []string) error {
	if format != "json" && format != "txt" {
		return fmt.Errorf("unknown format %q (want json or txt)", format)
	}
	specs, err := resolveDomains()
	if err != nil {
		return err
	}
	profiles, err := resolveProfiles()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var sink *corpus.SQLiteSink
	if sqlitePath != "" {
		sink, err = corpus.OpenSQLite(sqlitePath)
		if err != nil {
			return err
		}
		defer sink.Close()
	}

	runID := uuid.NewString()
	log := logger.With(zap.String("run_id", runID))
	log.Info("starting generation matrix",
		zap.Int("domains", len(specs)),
		zap.Int("profiles", len(profiles)),
		zap.Int64("seed", seed))

	var sizes []int
	if testSize > 0 {
		sizes = append(sizes, testSize)
	}
	if trainSize > 0 {
		sizes = append(sizes, trainSize)
	}

	var rows []string
	rows = append(rows, headerStyle.Render(fmt.Sprintf("%-18s %-10s %6s %8s %8s %8s",
		"DOMAIN", "PROFILE", "SIZE", "AVG LEN", "MAX LEN", "KB%")))

	for _, spec := range specs {
		for _, profile := range profiles {
			for _, size := range sizes {
				c, err := generator.Generate(cmd.Context(), generator.Config{
					Spec:    spec,
					Profile: profile,
					Size:    size,
					Seed:    seed,
					Workers: workers,
					Logger:  log,
				})
				if err != nil {
					return fmt.Errorf("generate %s/%s/%d: %w", spec.Name, profile.Name, size, err)
				}

				path := filepath.Join(outDir,
					fmt.Sprintf("%s-%s-%d.%s", spec.Name, profile.Name, size, format))
				if format == "txt" {
					err = corpus.WriteTextFile(path, c)
				} else {
					err = corpus.WriteJSONFile(path, c)
				}
				if err != nil {
					return err
				}
				if sink != nil {
					if err := sink.WriteCorpus(runID, c); err != nil {
						return err
					}
				}

				st := c.Stats()
				rows = append(rows, cellStyle.Render(fmt.Sprintf("%-18s %-10s %6d %8.1f %8d %7.1f%%",
					spec.Name, profile.Name, size, st.AvgLen, st.MaxLen, st.QueryTurnRatio*100)))
				log.Info("corpus written",
					zap.String("path", path),
					zap.Float64("avg_len", st.AvgLen),
					zap.Int("max_len", st.MaxLen))
			}
		}
	}

	fmt.Println(strings.Join(rows, "\n"))
	fmt.Println(faintStyle.Render(fmt.Sprintf("run %s -> %s", runID, outDir)))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
