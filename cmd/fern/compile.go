package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/query"
)

type compiled struct {
	SQL       string   `json:"sql"`
	Args      []any    `json:"args"`
	CacheTags []string `json:"cache_tags"`
	Aborted   string   `json:"aborted,omitempty"`
}

func newCompileCommand(a *app) *cobra.Command {
	var (
		file string
		mode string
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the SQL a criteria document compiles to",
		Long:  "Compile a YAML criteria document against the project catalog without touching the database.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := readDocument(file)
			if err != nil {
				return err
			}
			compiler, err := a.compiler(nil)
			if err != nil {
				return err
			}

			out := compiled{}
			stmt, err := compiler.Compile(a.context(cmd), c)
			switch {
			case errors.IsAborted(err):
				out.Aborted = err.Error()
			case err != nil:
				return err
			default:
				out.SQL, out.Args, err = render(stmt, mode)
				if err != nil {
					return err
				}
				out.CacheTags = stmt.CacheTags
			}
			return printCompiled(cmd.OutOrStdout(), a.format, out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "criteria document (YAML)")
	cmd.Flags().StringVar(&mode, "mode", "all", "statement to render (all|selection|count|exists)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func render(stmt *query.Statement, mode string) (string, []any, error) {
	switch mode {
	case "all":
		sql, args := stmt.Build()
		return sql, args, nil
	case "selection":
		sql, args := stmt.BuildSelection()
		return sql, args, nil
	case "count":
		sql, args := stmt.BuildCount()
		return sql, args, nil
	case "exists":
		sql, args := stmt.BuildExists()
		return sql, args, nil
	}
	return "", nil, fmt.Errorf("invalid mode %q: must be all, selection, count or exists", mode)
}

func printCompiled(w io.Writer, format string, out compiled) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Aborted != "" {
		_, err := fmt.Fprintf(w, "-- aborted: %s\n", out.Aborted)
		return err
	}
	fmt.Fprintln(w, out.SQL)
	for i, arg := range out.Args {
		fmt.Fprintf(w, "-- $%d = %v\n", i+1, arg)
	}
	for _, tag := range out.CacheTags {
		fmt.Fprintf(w, "-- tag %s\n", tag)
	}
	return nil
}
