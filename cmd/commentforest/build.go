package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/forest"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/service"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/source"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage/inmemory"
	"github.com/MyNameIsWhaaat/commentforest/internal/resource"
)

func runBuild(cmd *cobra.Command, args []string) error {
	rootID, _ := cmd.Flags().GetString("root")
	input, _ := cmd.Flags().GetString("input")
	pretty, _ := cmd.Flags().GetBool("pretty")
	raw, _ := cmd.Flags().GetBool("raw")
	limit, _ := cmd.Flags().GetInt("limit")

	style := forest.Structured
	if raw {
		style = forest.Raw
	}

	var r io.Reader = cmd.InOrStdin()
	if input != "-" {
		if !resource.FileExists(input) {
			return fmt.Errorf("input %s is not a readable file", input)
		}
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	src, err := source.Detect(r)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	svc := service.New(inmemory.New())
	res, ingestErr := svc.Ingest(cmd.Context(), rootID, src)
	if ingestErr != nil && !errors.Is(ingestErr, forest.ErrOrphanComment) {
		return ingestErr
	}

	exp, err := svc.Export(cmd.Context(), rootID, style, limit)
	if err != nil {
		return err
	}
	out := exp.Comments
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, out, "", "  "); err != nil {
			return err
		}
		out = buf.Bytes()
	}

	w := cmd.OutOrStdout()
	if _, err := w.Write(append(out, '\n')); err != nil {
		return err
	}

	if ingestErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d comment(s) left without a parent: %v\n", len(res.Unresolved), res.Unresolved)
		return ingestErr
	}
	return nil
}
