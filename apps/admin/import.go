package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/schoolhub/core/importing"
)

func (cli *commandLine) importCommand() *cobra.Command {
	var actor, actorName string

	cmd := &cobra.Command{
		Use:   "import KIND FILE",
		Short: "Import a CSV file (" + strings.Join(cli.importSvc.Kinds(), ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, path := args[0], args[1]

			// the file belongs to the caller: Import, not ImportFile
			f, err := os.Open(path)
			if err != nil {
				return errors.Wrap(err, "opening file")
			}
			defer f.Close()

			meta := importing.Meta{Actor: actor, ActorName: actorName, Now: time.Now().UTC()}
			out, err := cli.importSvc.Import(cmd.Context(), kind, f, meta)
			if err != nil {
				return errors.Wrapf(err, "importing %s", kind)
			}
			renderOutcome(cmd.OutOrStdout(), kind, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "admin-cli", "Recorded as the creator of the imported records")
	cmd.Flags().StringVar(&actorName, "actor-name", "Admin CLI", "Shown in the import report")

	return cmd
}

func renderOutcome(w io.Writer, kind string, out *importing.Outcome) {
	title := color.New(color.FgCyan, color.Bold)
	_, _ = title.Fprintf(w, "Import of %s: %d/%d rows uploaded\n", kind, out.SuccessfulUploads, out.TotalRows)

	for _, warning := range out.Warnings {
		_, _ = color.New(color.FgYellow).Fprintf(w, "warning: %s\n", warning)
	}

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Outcome", "Rows"})
	summary.AppendBulk([][]string{
		{"uploaded", strconv.Itoa(out.SuccessfulUploads)},
		{"duplicates", strconv.Itoa(out.Duplicates)},
		{"invalid references", strconv.Itoa(out.InvalidReferences)},
		{"validation errors", strconv.Itoa(out.Errors)},
		{"total", strconv.Itoa(out.TotalRows)},
	})
	summary.Render()

	if !out.HasIssues() {
		_, _ = color.New(color.FgGreen).Fprintln(w, "Every row was uploaded.")
		return
	}

	_, _ = color.New(color.FgRed).Fprintln(w, "Rejected rows:")
	issues := tablewriter.NewWriter(w)
	issues.SetHeader([]string{"Row", "Category", "Message"})
	issues.SetAutoWrapText(false)
	for _, is := range out.Issues() {
		issues.Append([]string{strconv.Itoa(is.Row), is.Category, is.Message})
	}
	issues.Render()
}

func (cli *commandLine) templateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template KIND",
		Short: "Write the CSV template of an import kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, content, err := cli.importSvc.Template(args[0])
			if err != nil {
				return err
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}
			if output == "" {
				output = filename
			}
			if err = os.WriteFile(output, content, 0o644); err != nil {
				return errors.Wrap(err, "writing template")
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "template written to %s\n", output)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default <kind>_upload_template.csv, - for stdout)")

	return cmd
}
