package main

import (
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/templates"
)

// newTemplatesCmd creates the templates subcommand.
func (a *app) newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List analysis templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			all := reg.All()

			if a.outputJSON {
				return a.ui.PrintJSON(all)
			}

			rows := make([][]string, 0, len(all))
			for _, t := range all {
				kind := "text"
				switch {
				case t.Structured():
					kind = "structured"
				case t.Workflow:
					kind = "workflow"
				}
				def := ""
				if t.ID == a.cfg.Templates.Default {
					def = "*"
				}
				rows = append(rows, []string{t.ID, t.Name, kind, def})
			}
			a.ui.Section("Analysis templates")
			a.ui.Table([]string{"ID", "Name", "Output", "Default"}, rows)
			return nil
		},
	}

	cmd.AddCommand(a.newTemplatesExportCmd())
	return cmd
}

// newTemplatesExportCmd writes templates as YAML for editing.
func (a *app) newTemplatesExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export [id]...",
		Short: "Export templates as a YAML file usable as templates.custom_path",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			selected := reg.All()
			if len(args) > 0 {
				selected = make([]templates.Template, 0, len(args))
				for _, id := range args {
					t, ok := reg.Lookup(id)
					if !ok {
						return domain.ValidationError("unknown template "+id, nil)
					}
					selected = append(selected, t)
				}
			}

			if file == "" {
				return templates.Export(a.ui.Out(), selected)
			}
			f, err := os.Create(file)
			if err != nil {
				return domain.IOError("create "+file, err)
			}
			defer f.Close()
			if err := templates.Export(f, selected); err != nil {
				return err
			}
			a.ui.Success("Exported %d templates to %s", len(selected), file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default: stdout)")
	return cmd
}

// newVersionCmd creates the version subcommand.
func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.outputJSON {
				return a.ui.PrintJSON(map[string]string{
					"version": version,
					"go":      runtime.Version(),
					"model":   a.cfg.API.Model,
				})
			}
			a.ui.Print("gemini-zotero " + version)
			return nil
		},
	}
}
