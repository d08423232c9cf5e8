package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/MyNameIsWhaaat/commentforest/internal/config"
)

var (
	configPath string
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "commentforest",
		Short: "Rebuild threaded comment trees from flat comment records",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			zerolog.SetGlobalLevel(cfg.Level())
			return nil
		},
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the forest HTTP API",
		RunE:  runServe, // serve.go
	}

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build one forest from a file of comment records and print it as JSON",
		RunE:  runBuild, // build.go
	}

	topicCmd = &cobra.Command{
		Use:   "topic [name]",
		Short: "Print a help topic, or list the topics when no name is given",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTopic, // topic.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	serveCmd.Flags().String("port", "", "port to listen on (overrides config and PORT)")

	buildCmd.Flags().StringP("root", "r", "", "submission id the comments belong to (required)")
	buildCmd.Flags().StringP("input", "i", "-", "file with comment records, JSON array or JSON lines; - reads stdin")
	buildCmd.Flags().Bool("pretty", false, "indent the output")
	buildCmd.Flags().Bool("raw", false, "print every comment flat in arrival order instead of the tree")
	buildCmd.Flags().IntP("limit", "n", 0, "print only the first N entries; 0 prints all")
	_ = buildCmd.MarkFlagRequired("root")

	rootCmd.AddCommand(serveCmd, buildCmd, topicCmd)
}
