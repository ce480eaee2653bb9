package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/repositories/element"
	structurerepo "github.com/Ramsey-B/fern/internal/repositories/structure"
)

func newQueryCommand(a *app) *cobra.Command {
	var (
		file   string
		method string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a criteria document against the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := readDocument(file)
			if err != nil {
				return err
			}

			ctx := a.context(cmd)
			db, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			compiler, err := a.compiler(structurerepo.NewRepository(db, a.logger))
			if err != nil {
				return err
			}
			repo := element.NewRepository(db, compiler, a.logger,
				element.WithBatchSize(a.cfg.BatchSize),
				element.WithResultCache(a.cfg.ResultCache),
			)

			var result any
			switch method {
			case "all":
				result, err = repo.All(ctx, c)
			case "one":
				result, err = repo.One(ctx, c)
			case "count":
				result, err = repo.Count(ctx, c)
			case "exists":
				result, err = repo.Exists(ctx, c)
			case "ids":
				result, err = repo.IDs(ctx, c)
			case "rows":
				result, err = repo.Rows(ctx, c)
			default:
				return fmt.Errorf("invalid method %q: must be all, one, count, exists, ids or rows", method)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if a.format == "text" {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "criteria document (YAML)")
	cmd.Flags().StringVar(&method, "method", "all", "entry point (all|one|count|exists|ids|rows)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
