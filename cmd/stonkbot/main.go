package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/colinwz/stonkbot"
	"github.com/colinwz/stonkbot/pkg/catalog"
	"github.com/colinwz/stonkbot/pkg/core"
)

// Command line flags
var (
	// download command flags
	downloadURL    string
	downloadOutput string

	// symbols command flags
	equityFile string
	cryptoFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "stonkbot",
		Short:   "Telegram bot for stock and crypto price alarms",
		Version: "1.0.0",
	}

	rootCmd.AddCommand(buildRunCmd())
	rootCmd.AddCommand(buildSymbolsCmd())
	rootCmd.AddCommand(buildDownloadCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		RunE:  runBot,
	}
}

func runBot(cmd *cobra.Command, args []string) error {
	// Local development convenience, missing .env files are fine
	_ = godotenv.Load()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := stonkbot.NewBot(ctx, settings)
	if err != nil {
		return err
	}

	return bot.Run(ctx)
}

// loadSettings reads the configuration from environment variables
func loadSettings() (*core.Settings, error) {
	viper.AutomaticEnv()

	viper.SetDefault("EQUITY_FEED_INTERVAL", "1m")
	viper.SetDefault("CRYPTO_FEED_INTERVAL", "1m")
	viper.SetDefault("CRYPTO_FEED_SOURCE", "coingecko")
	viper.SetDefault("CRYPTO_FEED_URL", "https://api.coingecko.com/api/v3/simple/price")
	viper.SetDefault("FETCH_TIMEOUT", "10s")
	viper.SetDefault("TELEGRAM_ENABLED", true)

	equityInterval, err := str2duration.ParseDuration(viper.GetString("EQUITY_FEED_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid EQUITY_FEED_INTERVAL: %w", err)
	}

	cryptoInterval, err := str2duration.ParseDuration(viper.GetString("CRYPTO_FEED_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRYPTO_FEED_INTERVAL: %w", err)
	}

	fetchTimeout, err := str2duration.ParseDuration(viper.GetString("FETCH_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}

	settings := &core.Settings{
		Equity: core.FeedSettings{
			URL:      viper.GetString("EQUITY_FEED_URL"),
			Interval: equityInterval,
		},
		Crypto: core.FeedSettings{
			URL:      viper.GetString("CRYPTO_FEED_URL"),
			Interval: cryptoInterval,
			Source:   viper.GetString("CRYPTO_FEED_SOURCE"),
		},
		SessionURL:   viper.GetString("SESSION_STREAM_URL"),
		FetchTimeout: fetchTimeout,
		Telegram: core.TelegramSettings{
			Enabled: viper.GetBool("TELEGRAM_ENABLED"),
			Token:   viper.GetString("TELEGRAM_TOKEN"),
		},
	}

	if settings.Equity.URL == "" {
		return nil, fmt.Errorf("EQUITY_FEED_URL is required")
	}
	if settings.Telegram.Enabled && settings.Telegram.Token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required when telegram is enabled")
	}

	return settings, nil
}

func buildSymbolsCmd() *cobra.Command {
	symbolsCmd := &cobra.Command{
		Use:   "symbols",
		Short: "Print the tracked symbol catalog",
		RunE:  runSymbols,
	}

	symbolsCmd.Flags().StringVar(&equityFile, "equity", "", "Equity symbol list file (default embedded)")
	symbolsCmd.Flags().StringVar(&cryptoFile, "crypto", "", "Crypto symbol list file (default embedded)")

	return symbolsCmd
}

func runSymbols(cmd *cobra.Command, args []string) error {
	if (equityFile == "") != (cryptoFile == "") {
		return fmt.Errorf("--equity and --crypto must be provided together")
	}

	var (
		cat *catalog.Catalog
		err error
	)
	if equityFile != "" {
		cat, err = catalog.LoadFiles(equityFile, cryptoFile)
	} else {
		cat, err = catalog.LoadDefault()
	}
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Symbol", "Name", "Market", "External ID"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	for _, market := range []core.Market{core.MarketEquity, core.MarketCrypto} {
		for _, info := range cat.Entries(market) {
			table.Append([]string{info.Symbol, info.Name, string(info.Market), info.ExternalID})
		}
	}

	table.Render()
	return nil
}

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download a symbol list file",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&downloadURL, "url", "u", "", "Symbol list URL")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Output file path (e.g. ./symbols.json)")

	downloadCmd.MarkFlagRequired("url")
	downloadCmd.MarkFlagRequired("output")

	return downloadCmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	return catalog.Download(cmd.Context(), downloadURL, downloadOutput)
}
