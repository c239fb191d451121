package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d21d3q/gowinkey/internal/config"
	"github.com/d21d3q/gowinkey/internal/logger"
	"github.com/d21d3q/gowinkey/internal/source"
	"github.com/d21d3q/gowinkey/internal/source/file"
	"github.com/d21d3q/gowinkey/pkg/gowinkey"
)

type flags struct {
	partialKey string
	filePath   string
	system     bool
	sources    []string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var (
		f   flags
		cfg config.Config
		log *logrus.Logger
	)
	cmd := &cobra.Command{
		Use:   "gowinkey [hex]",
		Short: "Decode Windows product keys",
		Long: "gowinkey decodes the DigitalProductId registry value into a product key.\n" +
			"The record can be given as hex, read from a hex or .reg file, or collected from the local system.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") {
				f.logLevel = cfg.LogLevel
			}
			if !cmd.Flags().Changed("partial-key") {
				f.partialKey = cfg.PartialKey
			}
			if !cmd.Flags().Changed("sources") {
				f.sources = cfg.Sources
			}
			log = logger.Setup(f.logLevel, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			opts := gowinkey.DecodeOptions{PartialKey: f.partialKey}
			switch {
			case len(args) == 1:
				return runDecode(ctx, out, opts, args[0])
			case f.filePath != "":
				return runFile(ctx, out, opts, f.filePath)
			case f.system:
				ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
				return runSystem(ctx, out, log, opts, f.sources)
			default:
				return runInteractive(ctx, cmd.InOrStdin(), out, log, opts)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&f.partialKey, "partial-key", "", "five symbol partial key shown masked when no record is available")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.filePath, "file", "", "read the record from a hex dump or .reg export")
	cmd.Flags().BoolVar(&f.system, "system", false, "collect the record from the local system")
	cmd.Flags().StringSliceVar(&f.sources, "sources", nil, fmt.Sprintf("sources used by --system (registered: %s)", strings.Join(source.Names(), ", ")))
	cmd.MarkFlagsMutuallyExclusive("file", "system")
	return cmd
}

func main() {
	ctx := context.Background()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func runDecode(ctx context.Context, out io.Writer, opts gowinkey.DecodeOptions, hex string) error {
	result, err := gowinkey.DecodeHexWithOptions(ctx, hex, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, result.String())
	return err
}

func runFile(ctx context.Context, out io.Writer, opts gowinkey.DecodeOptions, path string) error {
	snap, err := file.New(path).Fetch(ctx)
	if err != nil {
		return err
	}
	result, err := gowinkey.FromSnapshot(ctx, snap, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, result.String())
	return err
}

func runSystem(ctx context.Context, out io.Writer, log logrus.FieldLogger, opts gowinkey.DecodeOptions, names []string) error {
	log.WithField("sources", strings.Join(names, ",")).Debug("collecting licensing data")
	result, err := gowinkey.FromSystem(ctx, log.WithField("component", "collector"), names, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, result.String())
	return err
}

func runInteractive(ctx context.Context, in io.Reader, out io.Writer, log logrus.FieldLogger, opts gowinkey.DecodeOptions) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if in == os.Stdin {
		log.Info("gowinkey interactive mode. Paste a hex DigitalProductId and press Enter (Ctrl+D to exit).")
	}
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runDecode(ctx, out, opts, line); err != nil {
			log.WithError(err).Error("failed to decode record")
		}
	}
	fmt.Fprintln(out)
	return scanner.Err()
}
