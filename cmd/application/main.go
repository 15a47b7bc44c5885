package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"gomarketplace_vendor/config"
	"gomarketplace_vendor/internal/vendorpanel/app"
	"gomarketplace_vendor/internal/vendorpanel/business/importer"
	"gomarketplace_vendor/internal/vendorpanel/business/payout"
	"gomarketplace_vendor/internal/vendorpanel/models"
)

const usageText = `usage: vendor [-config file] <command> [args]

commands:
  import <file.csv>                       upload, confirm and watch a product import
  watch                                   resume watching a pending import
  template [out.csv]                      write the product import template
  payout status                           show payout provider connections
  payout connect <provider>               create a payout account
  payout onboard <provider> <return-url>  start hosted onboarding
`

func main() {
	configPath := flag.String("config", os.Getenv("VENDOR_CONFIG"), "path to the YAML config")
	quiet := flag.Bool("q", false, "log only to the notification stream")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usageText) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logWriter io.Writer = os.Stderr
	if *quiet {
		logWriter = io.Discard
	}

	if err := run(ctx, *configPath, logWriter, flag.Args()); err != nil {
		log.Printf("Error: %s", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logWriter io.Writer, args []string) error {
	// The template needs neither the backend nor the state store.
	if args[0] == "template" {
		return writeTemplate(args[1:])
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	server, err := app.NewVendorServer(cfg, logWriter)
	if err != nil {
		return err
	}
	defer server.Close()
	server.ServeMetrics()

	notes, unsubscribe := server.Hub.Subscribe(16)
	var printed sync.WaitGroup
	printed.Add(1)
	go func() {
		defer printed.Done()
		for n := range notes {
			printNotification(n)
		}
	}()
	defer func() {
		unsubscribe()
		printed.Wait()
	}()

	switch args[0] {
	case "import":
		if len(args) != 2 {
			return errors.New("import needs exactly one file")
		}
		return runImport(ctx, server, args[1])
	case "watch":
		return runWatch(ctx, server)
	case "payout":
		return runPayout(ctx, server.Payouts, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runImport(ctx context.Context, server *app.VendorServer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	preview, _, err := server.Submitter.Submit(ctx, filepath.Base(path), file)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d to create, %d to update, %d skipped\n",
		preview.TransactionID, preview.Summary.ToCreate, preview.Summary.ToUpdate, preview.Summary.ToSkip)
	if preview.HasExistingProducts() {
		fmt.Println(preview.Message)
	}
	for _, rowErr := range preview.ErrorDetails {
		fmt.Printf("  row %d %s: %s\n", rowErr.Row, rowErr.SKU, rowErr.Error)
	}
	return wait(ctx, server.Watcher)
}

func runWatch(ctx context.Context, server *app.VendorServer) error {
	resumed, err := server.Watcher.Recover(ctx)
	if err != nil {
		return err
	}
	if !resumed {
		fmt.Println("no pending import")
		return nil
	}
	return wait(ctx, server.Watcher)
}

func wait(ctx context.Context, watcher *importer.Watcher) error {
	snap, err := watcher.Wait(ctx)
	if errors.Is(err, context.Canceled) {
		// Interrupted: the marker stays, `watch` picks the job up again.
		fmt.Printf("still running: %s (%d checks so far)\n", snap.TransactionID, snap.Attempts)
		return nil
	}
	return err
}

func runPayout(ctx context.Context, service *payout.Service, args []string) error {
	if len(args) == 0 {
		return errors.New("payout needs a subcommand: status, connect or onboard")
	}
	switch args[0] {
	case "status":
		overview, err := service.Overview(ctx)
		if err != nil {
			return err
		}
		for _, ps := range overview {
			printProviderStatus(ps)
		}
		return nil
	case "connect":
		if len(args) != 2 {
			return errors.New("usage: payout connect <provider>")
		}
		provider, err := payout.ParseProvider(args[1])
		if err != nil {
			return err
		}
		account, err := service.Connect(ctx, provider)
		if err != nil {
			return err
		}
		fmt.Printf("%s account %s created\n", provider, account.ID)
		return nil
	case "onboard":
		if len(args) != 3 {
			return errors.New("usage: payout onboard <provider> <return-url>")
		}
		provider, err := payout.ParseProvider(args[1])
		if err != nil {
			return err
		}
		url, err := service.Onboard(ctx, provider, args[2])
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	default:
		return fmt.Errorf("unknown payout subcommand %q", args[0])
	}
}

func printProviderStatus(ps payout.ProviderStatus) {
	fmt.Printf("%-15s %s\n", ps.Provider, ps.Status)
	entity := ps.LegalEntity
	if entity == nil {
		return
	}
	if caps := entity.ActiveCapabilities(); len(caps) > 0 {
		fmt.Printf("  capabilities: %s\n", strings.Join(caps, ", "))
	}
	if bank := entity.BankAccount(); bank != "" {
		fmt.Printf("  bank account: %s\n", bank)
	}
	for _, vErr := range entity.VerificationErrors() {
		fmt.Printf("  ! %s: %s\n", vErr.Code, vErr.Message)
		for _, action := range vErr.RemediatingActions {
			fmt.Printf("    - %s\n", action.Message)
		}
	}
}

func printNotification(n models.Notification) {
	line := fmt.Sprintf("[%s] %s", n.Level, n.Title)
	if n.Description != "" {
		line += ": " + n.Description
	}
	fmt.Println(line)
}

func writeTemplate(args []string) error {
	data, err := importer.Template()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
