package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"PriceDesk/internal/client"
	"PriceDesk/internal/prices"
)

var (
	flagServer  string
	flagTimeout time.Duration
	flagJSON    bool

	flagName string

	flagFile  string
	flagForce bool

	pcBuild     prices.PCBuild
	laptopBuild prices.LaptopBuild
)

var rootCmd = &cobra.Command{
	Use:   "pricectl",
	Short: "Manage the PC/laptop price catalog",
	Long: `pricectl reads and edits the price catalog served by the prices server.

Examples:
  pricectl list cpu
  pricectl set gpu rtx4070 70000
  pricectl add cpu i9-14900k 55000 --name "Intel i9-14900K"
  pricectl rm case budget
  pricectl estimate pc --cpu i5-13600k --gpu rtx4070 --ram 32 --storage 1000 --psu 750`,
	SilenceUsage: true,
}

var listCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "Print the catalog, or a single category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var priceCmd = &cobra.Command{
	Use:   "price <category> <productId>",
	Short: "Print the resolved price of one entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		p, err := newClient().Price(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(p, 'f', -1, 64))
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <category> <productId> <price>",
	Short: "Set the price of an entry, creating it if needed",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := parsePrice(args[2])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := newClient().Update(ctx, args[0], args[1], price)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <category> <productId> <price>",
	Short: "Add a new component",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := parsePrice(args[2])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := newClient().Add(ctx, args[0], args[1], price, flagName)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <category> <productId>",
	Aliases: []string{"delete"},
	Short:   "Delete a component",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := newClient().Delete(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), res)
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price a PC or laptop configuration",
}

var estimatePCCmd = &cobra.Command{
	Use:   "pc",
	Short: "Estimate a desktop build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		est, err := newClient().EstimatePC(ctx, pcBuild)
		if err != nil {
			return err
		}
		return printEstimate(cmd.OutOrStdout(), est)
	},
}

var estimateLaptopCmd = &cobra.Command{
	Use:   "laptop",
	Short: "Estimate a laptop configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		est, err := newClient().EstimateLaptop(ctx, laptopBuild)
		if err != nil {
			return err
		}
		return printEstimate(cmd.OutOrStdout(), est)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the demo catalog to a local prices file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", envOr("PRICES_URL", "http://localhost:3000"), "Prices server base URL")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 5*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print raw JSON")

	addCmd.Flags().StringVarP(&flagName, "name", "n", "", "Display name (defaults to the product id)")

	initCmd.Flags().StringVarP(&flagFile, "file", "f", "prices.json", "Path of the prices file")
	initCmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing prices file")

	f := estimatePCCmd.Flags()
	f.StringVar(&pcBuild.CPU, "cpu", "", "CPU product id")
	f.StringVar(&pcBuild.GPU, "gpu", "", "GPU product id")
	f.StringVar(&pcBuild.Motherboard, "mb", "", "Motherboard product id")
	f.StringVar(&pcBuild.Case, "case", "", "Case product id")
	f.Float64Var(&pcBuild.RAMGB, "ram", 16, "RAM in GB")
	f.Float64Var(&pcBuild.StorageGB, "storage", 512, "Storage in GB")
	f.Float64Var(&pcBuild.PSUWatts, "psu", 650, "PSU power in W")

	f = estimateLaptopCmd.Flags()
	f.StringVar(&laptopBuild.CPU, "cpu", "", "Laptop CPU product id")
	f.StringVar(&laptopBuild.GPU, "gpu", "integrated", "Laptop GPU product id")
	f.StringVar(&laptopBuild.Brand, "brand", "", "Brand")
	f.StringVar(&laptopBuild.Display, "display", "15.6", "Display size in inches")
	f.Float64Var(&laptopBuild.RAMGB, "ram", 16, "RAM in GB")
	f.Float64Var(&laptopBuild.StorageGB, "storage", 512, "Storage in GB")

	estimateCmd.AddCommand(estimatePCCmd, estimateLaptopCmd)
	rootCmd.AddCommand(listCmd, priceCmd, setCmd, addCmd, rmCmd, estimateCmd, initCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	all, err := newClient().AllPrices(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		t, ok := all.Prices.Tables[args[0]]
		if !ok {
			return fmt.Errorf("unknown category %q", args[0])
		}
		if flagJSON {
			return writeJSON(out, t)
		}
		return printTable(out, args[0], t)
	}

	if flagJSON {
		return writeJSON(out, all)
	}
	fmt.Fprintf(out, "source: %s\n", all.Source)
	for _, cat := range sortedKeys(all.Prices.Tables) {
		if err := printTable(out, cat, all.Prices.Tables[cat]); err != nil {
			return err
		}
	}
	return nil
}

func runInit(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(flagFile); err == nil && !flagForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", flagFile)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := prices.NewFileStore(flagFile).Save(ctx, prices.DemoCatalog(time.Now())); err != nil {
		return fmt.Errorf("write %s: %w", flagFile, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "demo catalog written to %s\n", flagFile)
	return nil
}

func newClient() *client.Client {
	c := client.New(flagServer)
	c.HTTP.Timeout = flagTimeout
	return c
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, flagTimeout)
}

func parsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if p < 0 {
		return 0, errors.New("price must be non-negative")
	}
	return p, nil
}

func printResult(w io.Writer, res client.Result) error {
	if flagJSON {
		return writeJSON(w, res)
	}
	_, err := fmt.Fprintln(w, res.Message)
	return err
}

func printTable(w io.Writer, category string, t prices.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "[%s]\n", category)
	for _, id := range sortedKeys(t) {
		e := t[id]
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", id, strconv.FormatFloat(e.Price, 'f', -1, 64), e.DisplayName)
	}
	return tw.Flush()
}

func printEstimate(w io.Writer, est prices.Estimate) error {
	if flagJSON {
		return writeJSON(w, est)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range est.Lines {
		fmt.Fprintf(tw, "%s\t₽ %s\n", l.Item, strconv.FormatFloat(l.Price, 'f', -1, 64))
	}
	fmt.Fprintf(tw, "total\t₽ %s\n", strconv.FormatFloat(est.Total, 'f', -1, 64))
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
