package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/abp2dnr/internal/compiler"
	"github.com/bnema/abp2dnr/internal/fetcher"
	"github.com/bnema/abp2dnr/internal/listfile"
	"github.com/bnema/abp2dnr/internal/models"
	"github.com/bnema/abp2dnr/internal/parser"
	"github.com/bnema/abp2dnr/internal/validator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     models.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "abp2dnr",
	Short: "Compile ABP filter lists to declarativeNetRequest rulesets",
	Long: `A tool that compiles Adblock-Plus-style filter lists into Chrome
declarativeNetRequest static ruleset JSON.`,
}

var compileCmd = &cobra.Command{
	Use:   "compile [list...]",
	Short: "Compile filter lists into a ruleset JSON file",
	RunE:  runCompile,
}

var dedupCmd = &cobra.Command{
	Use:   "dedup <list>",
	Short: "Remove duplicate domain-only rules from a filter list",
	Args:  cobra.ExactArgs(1),
	RunE:  runDedup,
}

var trimCmd = &cobra.Command{
	Use:   "trim <list>",
	Short: "Trim a filter list to a maximum number of rules, in place",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrim,
}

var statsCmd = &cobra.Command{
	Use:   "stats <list>",
	Short: "Report list-quality statistics without writing output",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

var validateCmd = &cobra.Command{
	Use:   "validate <rules.json>",
	Short: "Validate a compiled ruleset against the static ruleset schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured filter lists",
	RunE:  runList,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE:  runInit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./configs/abp2dnr.toml)")

	compileCmd.Flags().StringP("output", "o", "./rules.json", "output ruleset path")
	compileCmd.Flags().Int("max-rules", 0, "rule ceiling (default from config, then platform default)")
	compileCmd.Flags().Bool("stats", false, "print list-quality statistics")
	compileCmd.Flags().Bool("dry-run", false, "compile and validate without writing the artifact")

	dedupCmd.Flags().StringP("output", "o", "", "write result here instead of rewriting in place")

	trimCmd.Flags().Int("max-rules", 800, "maximum rule lines to keep")

	rootCmd.AddCommand(compileCmd, dedupCmd, trimCmd, statsCmd, validateCmd, listCmd, initCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("abp2dnr")
		viper.SetConfigType("toml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	// Set defaults
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.retries", 3)
	viper.SetDefault("output.max_rules", models.DefaultMaxRules)
	viper.SetDefault("output.stats", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("output")
	maxRules, _ := cmd.Flags().GetInt("max-rules")
	showStats, _ := cmd.Flags().GetBool("stats")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if maxRules <= 0 {
		maxRules = cfg.Output.MaxRules
	}

	sources := sourcesFromArgs(args)
	if len(sources) == 0 {
		sources = cfg.EnabledLists()
	}
	if len(sources) == 0 {
		return fmt.Errorf("no input lists: pass file paths or configure [[lists]]")
	}

	start := time.Now()
	ctx := context.Background()
	f := fetcher.New(cfg.HTTP)

	p := parser.New()
	var cands []models.Candidate
	for _, src := range sources {
		data, err := f.Fetch(ctx, src.Source)
		if err != nil {
			return fmt.Errorf("read %s: %w", src.Name, err)
		}
		cands = append(cands, p.Parse(listfile.Parse(data))...)
	}

	c := compiler.New(maxRules)
	rules := c.Compile(cands)

	payload, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return err
	}

	// Last line of defense: never trust the assembler's own output.
	if rep := validator.ValidateJSON(payload); !rep.Valid() {
		for _, e := range rep.Errors {
			fmt.Fprintln(os.Stderr, "  "+e)
		}
		return fmt.Errorf("compiled ruleset failed schema validation with %d error(s)", len(rep.Errors))
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	if dryRun {
		fmt.Printf("Validated %d rules in %s (dry run, nothing written)\n", len(rules), elapsed)
	} else {
		if err := writeFile(outPath, payload); err != nil {
			return err
		}
		fmt.Printf("Wrote %d rules to %s in %s\n", len(rules), outPath, elapsed)
	}

	if showStats || cfg.Output.Stats {
		printStats(p.Stats(), c)
	}
	return nil
}

func runDedup(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = args[0]
	}

	doc, err := listfile.Read(args[0])
	if err != nil {
		return err
	}

	deduped, removed := compiler.DeduplicateLines(doc)
	if err := deduped.Write(outPath); err != nil {
		return err
	}

	fmt.Printf("Removed %d duplicate line(s), wrote %s\n", removed, outPath)
	return nil
}

func runTrim(cmd *cobra.Command, args []string) error {
	maxRules, _ := cmd.Flags().GetInt("max-rules")
	if maxRules <= 0 {
		return fmt.Errorf("max-rules must be > 0, got %d", maxRules)
	}

	doc, err := listfile.Read(args[0])
	if err != nil {
		return err
	}

	trimmed, dropped := compiler.Trim(doc, maxRules, time.Now())
	if err := trimmed.Write(args[0]); err != nil {
		return err
	}

	fmt.Printf("Kept at most %d rules (%d dropped), rewrote %s\n", maxRules, dropped, args[0])
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	doc, err := listfile.Read(args[0])
	if err != nil {
		return err
	}

	p := parser.New()
	cands := p.Parse(doc)
	c := compiler.New(cfg.Output.MaxRules)
	c.Compile(cands)

	printStats(p.Stats(), c)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	rep := validator.ValidateJSON(data)
	if rep.Valid() {
		fmt.Printf("%s: %d rules, no violations\n", args[0], rep.Rules)
		return nil
	}

	for _, e := range rep.Errors {
		fmt.Println("  " + e)
	}
	return fmt.Errorf("%s: %d violation(s)", args[0], len(rep.Errors))
}

func runList(cmd *cobra.Command, args []string) error {
	fmt.Println("Configured filter lists:")
	for _, list := range cfg.Lists {
		status := "enabled"
		if !list.Enabled {
			status = "disabled"
		}
		fmt.Printf("  [%s] %s\n", status, list.Name)
		fmt.Printf("         %s\n\n", list.Source)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "./configs/abp2dnr.toml"
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	defaultConfig := `# abp2dnr configuration

# HTTP client settings, used for URL sources only
[http]
timeout = "30s"
retries = 3

# Compiler output settings
[output]
max_rules = 30000
stats = false

# Filter lists to compile when no paths are passed to "compile".
# Sources may be local paths or http(s) URLs.
# Set enabled = false to skip a list.

[[lists]]
name = "filters"
source = "./filters/filters.txt"
enabled = true

[[lists]]
name = "easylist"
source = "https://easylist.to/easylist/easylist.txt"
enabled = false
`

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return err
	}

	fmt.Printf("Created config file: %s\n", configPath)
	return nil
}

func sourcesFromArgs(args []string) []models.FilterList {
	out := make([]models.FilterList, 0, len(args))
	for _, a := range args {
		name := strings.TrimSuffix(filepath.Base(a), filepath.Ext(a))
		out = append(out, models.FilterList{Name: name, Source: a, Enabled: true})
	}
	return out
}

func printStats(ps parser.Stats, c *compiler.Compiler) {
	cs := c.Stats()
	fmt.Printf("\nLines: total=%d blank=%d comments=%d metadata=%d exceptions=%d cosmetic=%d network=%d\n",
		ps.Total, ps.Blank, ps.Comments, ps.Metadata, ps.Exceptions, ps.Cosmetic, ps.Network)
	fmt.Printf("Dropped: unsupported-options=%d untranslatable=%d over-length=%d\n",
		ps.OptionDrops, cs.TranslateDrops, cs.LengthDrops)
	fmt.Printf("Domains: total=%d unique=%d duplicates=%d\n",
		cs.DomainTotal, cs.DomainUnique, cs.DomainDuplicates)
	fmt.Printf("Regex rules: %d\n", cs.RegexRules)
	if cs.Truncated > 0 {
		fmt.Printf("Truncated: %d rule(s) over the ceiling\n", cs.Truncated)
	}
	if dups := c.Duplicates(); len(dups) > 0 {
		fmt.Println("Duplicate domains:")
		for _, d := range dups {
			fmt.Printf("  %s: %d\n", d.Domain, d.Count)
		}
	}
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
