package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pysema/internal/diag"
	"pysema/internal/observ"
	"pysema/internal/project"
	"pysema/internal/semdb"
	"pysema/internal/source"
)

var (
	checkJobs int
)

func init() {
	checkCmd.Flags().IntVar(&checkJobs, "jobs", 0, "parallel file workers (0 = all CPUs)")
}

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Index Python sources and report semantic diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if len(args) == 0 {
			args = []string{"."}
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		timings, _ := cmd.Flags().GetBool("timings")
		maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")

		cfg, _, err := project.LoadProjectConfig(args[0])
		if err != nil {
			return err
		}
		if checkJobs > 0 {
			cfg.Index.Jobs = checkJobs
		}

		fileSet := source.NewFileSet()
		db, err := semdb.Open(fileSet, semdb.Options{
			IndexCacheSize: cfg.Index.IndexCacheSize,
			ScopeCacheSize: cfg.Index.ScopeCacheSize,
			MaxDiagnostics: cfg.Index.MaxDiagnostics,
			Members:        semdb.StaticMembers(cfg.Members),
		})
		if err != nil {
			return err
		}

		timer := observ.NewTimer()
		phase := timer.Begin("check")
		results, err := collectResults(cmd, db, args, &cfg)
		timer.End(phase, fmt.Sprintf("%d files", len(results)))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		errs, warns, shown := renderResults(out, fileSet, results, &cfg, maxDiag)
		if !quiet {
			summarize(out, len(results), errs, warns, shown)
		}
		if timings {
			fmt.Fprint(out, timer.Summary())
		}
		if errs > 0 {
			return fmt.Errorf("%d error(s) found", errs)
		}
		return nil
	},
}

func collectResults(cmd *cobra.Command, db *semdb.DB, args []string, cfg *project.Config) ([]semdb.FileResult, error) {
	var results []semdb.FileResult
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			dirResults, err := db.IndexDir(cmd.Context(), arg, cfg.Index.Jobs, cfg.Index.Extensions)
			if err != nil {
				return nil, err
			}
			results = append(results, dirResults...)
			continue
		}
		id, err := db.Files().Load(arg)
		if err != nil {
			return nil, err
		}
		entry, err := db.Index(cmd.Context(), id)
		if err != nil {
			return nil, err
		}
		results = append(results, semdb.FileResult{Path: arg, FileID: id, Entry: entry, Bag: entry.Bag})
	}
	return results, nil
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	pathColor    = color.New(color.Bold)
)

// renderResults prints diagnostics grouped per file and reports the error
// and warning counts plus the number actually shown under the cap.
func renderResults(out io.Writer, fileSet *source.FileSet, results []semdb.FileResult, cfg *project.Config, maxDiag int) (errs, warns, shown int) {
	for _, res := range results {
		if res.Bag == nil {
			continue
		}
		res.Bag.Sort()
		for _, d := range res.Bag.Items() {
			if cfg.IsDisabled(d.Code.String()) {
				continue
			}
			switch {
			case d.Severity >= diag.SevError:
				errs++
			case d.Severity == diag.SevWarning:
				warns++
			}
			if maxDiag > 0 && shown >= maxDiag {
				continue
			}
			shown++
			printDiagnostic(out, fileSet, res.Path, d)
		}
	}
	return errs, warns, shown
}

func printDiagnostic(out io.Writer, fileSet *source.FileSet, path string, d diag.Diagnostic) {
	start, _ := fileSet.Resolve(d.Primary)
	sev := severityLabel(d.Severity)
	if start.Line == 0 {
		fmt.Fprintf(out, "%s: %s[%s]: %s\n", pathColor.Sprint(path), sev, d.Code, d.Message)
	} else {
		fmt.Fprintf(out, "%s:%d:%d: %s[%s]: %s\n",
			pathColor.Sprint(path), start.Line, start.Col, sev, d.Code, d.Message)
	}
	for _, note := range d.Notes {
		noteStart, _ := fileSet.Resolve(note.Span)
		if noteStart.Line == 0 {
			fmt.Fprintf(out, "    note: %s\n", note.Msg)
		} else {
			fmt.Fprintf(out, "    note: %d:%d: %s\n", noteStart.Line, noteStart.Col, note.Msg)
		}
	}
}

func severityLabel(sev diag.Severity) string {
	switch {
	case sev >= diag.SevError:
		return errorColor.Sprint("error")
	case sev == diag.SevWarning:
		return warningColor.Sprint("warning")
	default:
		return infoColor.Sprint("info")
	}
}

func summarize(out io.Writer, files, errs, warns, shown int) {
	total := errs + warns
	if total == 0 {
		fmt.Fprintf(out, "checked %d file(s), no problems\n", files)
		return
	}
	line := fmt.Sprintf("checked %d file(s): %d error(s), %d warning(s)", files, errs, warns)
	if shown < total {
		line += fmt.Sprintf(" (%d shown)", shown)
	}
	fmt.Fprintln(out, line)
}
