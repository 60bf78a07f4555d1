// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd implements the depthchargectl CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chrultrabook/depthcharge-tools/internal/pkg/board"
	"github.com/chrultrabook/depthcharge-tools/internal/pkg/conf"
	"github.com/chrultrabook/depthcharge-tools/internal/pkg/platform"
)

var (
	verbosity int
	configDir string
	rootDir   string
	boardName string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:               "depthchargectl",
	Short:             "Inspect ChromeOS boot images, kernel partitions and board support",
	Long:              ``,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

// Commands is a list of commands published by the package.
var Commands []*cobra.Command

func addCommand(cmd *cobra.Command) {
	Commands = append(Commands, cmd)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "print more information (repeatable)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", conf.DefaultDir, "configuration directory")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "root directory kernels are installed under")
	rootCmd.PersistentFlags().StringVar(&boardName, "board", "", "assume this board codename instead of detecting it")

	for _, cmd := range Commands {
		rootCmd.AddCommand(cmd)
	}

	_, err := rootCmd.ExecuteC()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}

	return err
}

func newLogger() *zap.Logger {
	level := zapcore.WarnLevel

	switch {
	case verbosity >= 2:
		level = zapcore.DebugLevel
	case verbosity == 1:
		level = zapcore.InfoLevel
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}

	return logger
}

// app carries the state shared by all subcommands: merged config, the
// boards database with overlays applied, and the hardware probes.
type app struct {
	logger  *zap.Logger
	config  *conf.Config
	catalog *board.Catalog
	probes  *platform.Probes
}

func newApp() (*app, error) {
	logger := newLogger()

	config, err := conf.Load(configDir, logger)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	if boardName != "" {
		config.Board = boardName
	}

	if rootDir != "" {
		config.Root = rootDir
	}

	catalog, err := config.Catalog()
	if err != nil {
		return nil, fmt.Errorf("error loading boards database: %w", err)
	}

	return &app{
		logger:  logger,
		config:  config,
		catalog: catalog,
		probes:  platform.New(platform.WithLogger(logger)),
	}, nil
}

func (a *app) root() string {
	if a.config.Root != "" {
		return a.config.Root
	}

	return "/"
}

func (a *app) resolveBoard() (*board.Board, error) {
	return board.NewResolver(a.catalog, a.probes, a.logger).Resolve(a.config.Board)
}
