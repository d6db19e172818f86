package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"optrace/pkg/config"
	"optrace/pkg/stats"
	"optrace/pkg/transform"
)

// rewriteCmd represents the rewrite command
var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "rewrite given files",
	Long: `Rewrite the selected operator categories in the given files. Each
output is written alongside its input with the configured postfix; existing
outputs are only replaced with --force.`,
	RunE: runRewrite,
}

var (
	inputs  []string
	postfix string
	force   bool

	indexAccess bool
	arithmetic  bool
	assignment  bool
	comparison  bool

	skipSystemOrigin bool
	dryRun           bool
	runtimeImport    string
	runtimeAlias     string
	concurrency      int
	statsOut         string
)

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().StringArrayVarP(&inputs, "input", "i",
		[]string{}, "path of input files")
	rewriteCmd.Flags().StringVarP(&postfix, "postfix", "p", "_optrace",
		"postfix of generated files (alongside input files)")
	rewriteCmd.Flags().BoolVarP(&force, "force", "f", false,
		"force override files")

	rewriteCmd.Flags().BoolVar(&indexAccess, "index-access", true,
		"rewrite index accesses")
	rewriteCmd.Flags().BoolVar(&arithmetic, "arithmetic", false,
		"rewrite arithmetic operators")
	rewriteCmd.Flags().BoolVar(&assignment, "assignment", false,
		"rewrite compound assignments and ++/--")
	rewriteCmd.Flags().BoolVar(&comparison, "comparison", false,
		"rewrite comparison operators")

	rewriteCmd.Flags().BoolVar(&skipSystemOrigin, "skip-system-origin", true,
		"leave toolchain, module-cache and generated files untouched")
	rewriteCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"run the full pipeline but write nothing")
	rewriteCmd.Flags().StringVar(&runtimeImport, "runtime-import", "",
		"import path of the instrumentation runtime")
	rewriteCmd.Flags().StringVar(&runtimeAlias, "runtime-alias", "",
		"import alias for the runtime (default: mangled from the import path)")
	rewriteCmd.Flags().IntVarP(&concurrency, "concurrency", "j", 1,
		"number of files processed in parallel")
	rewriteCmd.Flags().StringVar(&statsOut, "stats-out", "",
		"write the aggregate counters to this file as YAML")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	if len(inputs) == 0 {
		return nil
	}
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	if !opts.AnyEnabled() {
		return errors.New("no operator category enabled")
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	tr := transform.New(opts, log)
	results, err := tr.Files(cmd.Context(), inputs)

	var jerr error
	if !opts.DryRun {
		for _, res := range results {
			if res == nil || !res.Changed {
				continue
			}
			jerr = errors.Join(jerr, writeOutput(res.Path, res.Output))
		}
	}

	snap := tr.Stats()
	if rerr := transform.WriteReport(cmd.OutOrStdout(), results, snap); rerr != nil {
		jerr = errors.Join(jerr, rerr)
	}
	if statsOut != "" {
		jerr = errors.Join(jerr, writeStats(statsOut, snap))
	}
	return errors.Join(err, jerr)
}

// buildOptions layers the command line over the config file over the
// defaults. Only flags the user actually set override the file.
func buildOptions(cmd *cobra.Command) (*config.Options, error) {
	opts := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}
	set := map[string]*bool{
		"index-access":       &indexAccess,
		"arithmetic":         &arithmetic,
		"assignment":         &assignment,
		"comparison":         &comparison,
		"skip-system-origin": &skipSystemOrigin,
		"dry-run":            &dryRun,
	}
	dst := map[string]*bool{
		"index-access":       &opts.IndexAccess,
		"arithmetic":         &opts.Arithmetic,
		"assignment":         &opts.Assignment,
		"comparison":         &opts.Comparison,
		"skip-system-origin": &opts.SkipSystemOrigin,
		"dry-run":            &opts.DryRun,
	}
	for name, src := range set {
		if cmd.Flags().Changed(name) {
			*dst[name] = *src
		}
	}
	if cmd.Flags().Changed("runtime-import") {
		opts.RuntimeImportPath = runtimeImport
	}
	if cmd.Flags().Changed("runtime-alias") {
		opts.RuntimeAlias = runtimeAlias
	}
	if cmd.Flags().Changed("concurrency") {
		opts.Concurrency = concurrency
	}
	return opts, nil
}

func writeOutput(input string, data []byte) error {
	dir, filename := filepath.Split(input)
	ext := filepath.Ext(filename)
	filename = filename[:len(filename)-len(ext)] + postfix + ext
	output := filepath.Join(dir, filename)
	if _, err := os.Stat(output); err == nil && !force {
		return fmt.Errorf("%s exists, use --force to override", output)
	}
	return os.WriteFile(output, data, 0o644)
}

func writeStats(path string, snap stats.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return snap.EncodeYAML(f)
}
