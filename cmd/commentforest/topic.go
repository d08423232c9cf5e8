package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyNameIsWhaaat/commentforest/internal/resource"
)

func runTopic(cmd *cobra.Command, args []string) error {
	loader := resource.Loader{Dir: cfg.HelpDir}

	if len(args) == 0 {
		topics, err := loader.Topics()
		if err != nil {
			return err
		}
		for _, t := range topics {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	}

	text, err := loader.ReadHelpText(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
