package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"metaregistryCheck/internal/config"
	"metaregistryCheck/internal/curve"
	"metaregistryCheck/internal/fixtures"
)

func runAccounts(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAccounts(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	providerAddr, err := config.ParseAddress(cfg.AddressProvider)
	if err != nil {
		return fmt.Errorf("address-provider: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, cfg.Chain, nil, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	provider, err := curve.NewAddressProvider(sess.caller, providerAddr, sess.opts)
	if err != nil {
		return err
	}

	accounts, err := fixtures.ResolveAccounts(ctx, sess.client, provider)
	if err != nil {
		return err
	}

	logger.Info("accounts resolved",
		zap.Uint64("chain_id", sess.chainID),
		zap.Uint64("block", sess.blockNumber),
		zap.String("address_provider", providerAddr.Hex()),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "alice        %s\n", accounts.Alice.Hex())
	fmt.Fprintf(out, "unauthorised %s\n", accounts.Unauthorised.Hex())
	fmt.Fprintf(out, "random       %s\n", accounts.Random.Hex())
	fmt.Fprintf(out, "owner        %s\n", accounts.Owner.Hex())
	return nil
}
