package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"pysema/internal/semdb"
	"pysema/internal/semindex"
	"pysema/internal/source"
)

var (
	indexFormat string
	indexOutput string
)

func init() {
	indexCmd.Flags().StringVar(&indexFormat, "format", "text", "output format (text|json|msgpack)")
	indexCmd.Flags().StringVar(&indexOutput, "output", "", "write to file instead of stdout")
}

var indexCmd = &cobra.Command{
	Use:   "index <file>",
	Short: "Build the semantic index of one file and dump it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		fileSet := source.NewFileSet()
		db, err := semdb.Open(fileSet, semdb.Options{})
		if err != nil {
			return err
		}
		id, err := fileSet.Load(args[0])
		if err != nil {
			return err
		}
		entry, err := db.Index(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if indexOutput != "" {
			f, err := os.Create(indexOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		dump := buildDump(args[0], entry)
		switch strings.ToLower(indexFormat) {
		case "text":
			renderDumpText(out, dump)
			return nil
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(dump)
		case "msgpack":
			return msgpack.NewEncoder(out).Encode(dump)
		default:
			return fmt.Errorf("unsupported format %q (must be text, json or msgpack)", indexFormat)
		}
	},
}

type indexDump struct {
	Path     string      `json:"path" msgpack:"path"`
	Revision uint32      `json:"revision" msgpack:"revision"`
	Imports  []string    `json:"imports,omitempty" msgpack:"imports"`
	Scopes   []scopeDump `json:"scopes" msgpack:"scopes"`
	Errors   []errorDump `json:"errors,omitempty" msgpack:"errors"`
}

type scopeDump struct {
	ID       uint32      `json:"id" msgpack:"id"`
	Kind     string      `json:"kind" msgpack:"kind"`
	Parent   uint32      `json:"parent" msgpack:"parent"`
	Laziness string      `json:"laziness" msgpack:"laziness"`
	Start    uint32      `json:"start" msgpack:"start"`
	End      uint32      `json:"end" msgpack:"end"`
	Places   []placeDump `json:"places,omitempty" msgpack:"places"`
	Defs     []defDump   `json:"definitions,omitempty" msgpack:"definitions"`
}

type placeDump struct {
	ID       uint32 `json:"id" msgpack:"id"`
	Expr     string `json:"expr" msgpack:"expr"`
	Bound    bool   `json:"bound,omitempty" msgpack:"bound"`
	Used     bool   `json:"used,omitempty" msgpack:"used"`
	Declared bool   `json:"declared,omitempty" msgpack:"declared"`
	Global   bool   `json:"global,omitempty" msgpack:"global"`
	Nonlocal bool   `json:"nonlocal,omitempty" msgpack:"nonlocal"`
}

type defDump struct {
	ID          uint32 `json:"id" msgpack:"id"`
	Kind        string `json:"kind" msgpack:"kind"`
	Place       uint32 `json:"place" msgpack:"place"`
	Start       uint32 `json:"start" msgpack:"start"`
	End         uint32 `json:"end" msgpack:"end"`
	Index       uint32 `json:"index,omitempty" msgpack:"index"`
	Declaration bool   `json:"declaration,omitempty" msgpack:"declaration"`
}

type errorDump struct {
	Code    string `json:"code" msgpack:"code"`
	Start   uint32 `json:"start" msgpack:"start"`
	End     uint32 `json:"end" msgpack:"end"`
	Message string `json:"message" msgpack:"message"`
}

func buildDump(path string, entry *semdb.Entry) indexDump {
	index := entry.Index
	dump := indexDump{
		Path:     path,
		Revision: uint32(index.File().Revision),
		Imports:  index.ImportedModules(),
	}
	for i := 1; i <= index.ScopeCount(); i++ {
		id := semindex.FileScopeID(uint32(i))
		sc := index.Scope(id)
		sd := scopeDump{
			ID:       uint32(id),
			Kind:     sc.Kind.String(),
			Parent:   uint32(sc.Parent),
			Laziness: sc.Laziness.String(),
			Start:    sc.Span.Start,
			End:      sc.Span.End,
		}
		for pid, place := range index.Table(id).All() {
			sd.Places = append(sd.Places, placeDump{
				ID:       uint32(pid),
				Expr:     place.Expr.String(),
				Bound:    place.IsBound(),
				Used:     place.IsUsed(),
				Declared: place.IsDeclared(),
				Global:   place.IsGlobal(),
				Nonlocal: place.IsNonlocal(),
			})
		}
		defs := index.Defs(id)
		for j := 1; j <= defs.Len(); j++ {
			def := defs.Get(semindex.DefinitionID(uint32(j)))
			sd.Defs = append(sd.Defs, defDump{
				ID:          uint32(j),
				Kind:        def.Kind.String(),
				Place:       uint32(def.Place),
				Start:       def.Span.Start,
				End:         def.Span.End,
				Index:       def.Index,
				Declaration: def.IsDeclaration,
			})
		}
		dump.Scopes = append(dump.Scopes, sd)
	}
	for _, e := range index.SemanticSyntaxErrors() {
		dump.Errors = append(dump.Errors, errorDump{
			Code:    e.Code.String(),
			Start:   e.Span.Start,
			End:     e.Span.End,
			Message: e.Message,
		})
	}
	return dump
}

func renderDumpText(out io.Writer, dump indexDump) {
	fmt.Fprintf(out, "index of %s (revision %d)\n", dump.Path, dump.Revision)
	if len(dump.Imports) > 0 {
		fmt.Fprintf(out, "imports: %s\n", strings.Join(dump.Imports, ", "))
	}
	for _, sc := range dump.Scopes {
		fmt.Fprintf(out, "scope %d %s [%d..%d) parent=%d %s\n",
			sc.ID, sc.Kind, sc.Start, sc.End, sc.Parent, sc.Laziness)
		for _, p := range sc.Places {
			var flags []string
			if p.Bound {
				flags = append(flags, "bound")
			}
			if p.Used {
				flags = append(flags, "used")
			}
			if p.Declared {
				flags = append(flags, "declared")
			}
			if p.Global {
				flags = append(flags, "global")
			}
			if p.Nonlocal {
				flags = append(flags, "nonlocal")
			}
			fmt.Fprintf(out, "  place %d %s {%s}\n", p.ID, p.Expr, strings.Join(flags, ","))
		}
		for _, d := range sc.Defs {
			fmt.Fprintf(out, "  def %d %s place=%d [%d..%d)", d.ID, d.Kind, d.Place, d.Start, d.End)
			if d.Declaration {
				fmt.Fprint(out, " declaration")
			}
			fmt.Fprintln(out)
		}
	}
	for _, e := range dump.Errors {
		fmt.Fprintf(out, "error %s [%d..%d): %s\n", e.Code, e.Start, e.End, e.Message)
	}
}
