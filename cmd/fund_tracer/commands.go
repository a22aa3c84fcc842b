package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fund_tracer/internal/app/service"
	"fund_tracer/internal/domain/entity"
	"fund_tracer/internal/infrastructure/restapi"
	"fund_tracer/internal/infrastructure/rootloader"
	"fund_tracer/internal/pkg/logger"
	"fund_tracer/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:   "fund_tracer",
		Short: "Traces ERC-20 fund flows from seed addresses",
		Long: `fund_tracer follows Transfer events of one token outward from a set of root addresses,
hop by hop, and labels every destination as a wallet, a contract/router or an AMM swap pair.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional.
			_ = godotenv.Load()
		},
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Runs one scan and prints the JSON report",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}

	configPath string

	scanToken         string
	scanRoots         []string
	scanRootsFile     string
	scanNetwork       string
	scanRPCURL        string
	scanLookbackDays  float64
	scanFromBlock     uint64
	scanToBlock       uint64
	scanMinAmount     string
	scanMaxDepth      uint
	scanTokenDecimals uint8
	scanOutput        string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config (default $CONFIG_PATH or config/config.yml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)

	f := scanCmd.Flags()
	f.StringVar(&scanToken, "token", "", "Token contract address")
	f.StringSliceVar(&scanRoots, "root", nil, "Root address (repeatable or comma-separated)")
	f.StringVar(&scanRootsFile, "roots-file", "", "File with root addresses, one per line")
	f.StringVar(&scanNetwork, "network", "", "Network identifier (default from config)")
	f.StringVar(&scanRPCURL, "rpc-url", "", "RPC endpoint to dial before the network's own endpoints")
	f.Float64Var(&scanLookbackDays, "lookback-days", 0, "Days of history ending at the chain head")
	f.Uint64Var(&scanFromBlock, "from-block", 0, "First block (requires --to-block)")
	f.Uint64Var(&scanToBlock, "to-block", 0, "Last block (requires --from-block)")
	f.StringVar(&scanMinAmount, "min-amount", "", "Minimum normalized amount per transfer")
	f.UintVar(&scanMaxDepth, "max-depth", 0, "Deepest hop to expand")
	f.Uint8Var(&scanTokenDecimals, "token-decimals", 0, "Token decimals")
	f.StringVarP(&scanOutput, "output", "o", "", "Write the report to this file instead of stdout")
	_ = scanCmd.MarkFlagRequired("token")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newApplication(configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	cfg := app.cfg
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := restapi.NewTraceHandler(app.tracer, app.builder, app.networks, app.prices, app.log)
	router := restapi.SetupRouter(handler, app.zap, restapi.RouterOptions{
		CORSAllowOrigins: cfg.Server.CORSAllowOrigins,
		RequestTimeout:   time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second,
		EnablePprof:      cfg.Server.EnablePprof,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.zap.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}
	app.zap.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		app.zap.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	app.zap.Info("Server exiting")
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	app, err := newApplication(configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params, err := scanParams(cmd)
	if err != nil {
		return err
	}

	req, err := app.builder.Build(ctx, params)
	if err != nil {
		return err
	}
	result, err := app.tracer.Scan(ctx, req)
	if err != nil {
		return err
	}

	report := entity.NewScanReport(result)
	if app.prices != nil && req.Network.DEXScreenerChainID != "" {
		if price, ok := app.prices.GetPriceUSD(ctx, req.Network.DEXScreenerChainID, req.TokenAddress.Hex()); ok {
			report = report.WithPrice(price)
		}
	}

	if scanOutput != "" {
		if err := utils.WriteJSONFile(scanOutput, report); err != nil {
			return err
		}
		app.log.Info("Report written", "path", scanOutput, "edges", len(report.Data))
		return nil
	}
	return utils.WriteJSON(cmd.OutOrStdout(), report)
}

// scanParams maps flags onto TrackParams; only flags the user set override config defaults.
func scanParams(cmd *cobra.Command) (service.TrackParams, error) {
	roots := append([]string(nil), scanRoots...)
	if scanRootsFile != "" {
		loaded, err := rootloader.NewRootFileLoader(scanRootsFile, logger.Info).GetRootAddresses()
		if err != nil {
			return service.TrackParams{}, err
		}
		for _, addr := range loaded {
			roots = append(roots, addr.Hex())
		}
	}

	p := service.TrackParams{
		Network:       scanNetwork,
		RPCURL:        scanRPCURL,
		TokenAddress:  scanToken,
		RootAddresses: roots,
	}

	flags := cmd.Flags()
	if flags.Changed("lookback-days") {
		p.LookbackDays = &scanLookbackDays
	}
	if flags.Changed("from-block") {
		p.FromBlock = &scanFromBlock
	}
	if flags.Changed("to-block") {
		p.ToBlock = &scanToBlock
	}
	if flags.Changed("min-amount") {
		d, err := decimal.NewFromString(scanMinAmount)
		if err != nil {
			return service.TrackParams{}, fmt.Errorf("%w: --min-amount %q: %v", entity.ErrInvalidRequest, scanMinAmount, err)
		}
		p.MinAmount = &d
	}
	if flags.Changed("max-depth") {
		p.MaxDepth = &scanMaxDepth
	}
	if flags.Changed("token-decimals") {
		p.TokenDecimals = &scanTokenDecimals
	}
	return p, nil
}
