package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Print the property tree of a packet",
	Long: `Prints the normalized property tree of a packet.

With --paths every node is printed as one "path = value" line instead,
optionally limited to one schema and to leaf nodes. --filter keeps only
the nodes for which an expression is true. The expression sees Namespace,
Prefix, Path, Value, Language, IsArray, IsStruct, IsQualifier and IsURI.

Examples:
  xmptool dump photo.xmp
  xmptool dump --paths --schema dc photo.xmp
  xmptool dump --paths --filter 'Prefix == "dc" && Value != ""' photo.xmp`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

var dumpFlags struct {
	paths      bool
	schema     string
	leaves     bool
	qualifiers bool
	filter     string
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpFlags.paths, "paths", false, "Print one line per node")
	dumpCmd.Flags().StringVar(&dumpFlags.schema, "schema", "", "Limit --paths output to one schema")
	dumpCmd.Flags().BoolVar(&dumpFlags.leaves, "leaves", false, "Limit --paths output to leaf nodes")
	dumpCmd.Flags().BoolVar(&dumpFlags.qualifiers, "qualifiers", true, "Include qualifiers in --paths output")
	dumpCmd.Flags().StringVar(&dumpFlags.filter, "filter", "", "Expression selecting the --paths lines to print")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	meta, err := readPacket(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !dumpFlags.paths {
		_, err := fmt.Fprint(out, meta.Dump())
		return err
	}

	var filter *nodeFilter
	if dumpFlags.filter != "" {
		if filter, err = compileFilter(dumpFlags.filter); err != nil {
			return err
		}
	}
	schema := ""
	if dumpFlags.schema != "" {
		if schema, err = resolveNamespace(meta.Registry(), dumpFlags.schema); err != nil {
			return err
		}
	}
	it, err := meta.Iterator(schema, "", xmp.IterOptions{
		JustLeafNodes:  dumpFlags.leaves,
		OmitQualifiers: !dumpFlags.qualifiers,
	})
	if err != nil {
		return err
	}

	p := newPalette(out)
	for info, ok := it.Next(); ok; info, ok = it.Next() {
		if filter != nil {
			keep, err := filter.match(meta.Registry(), info)
			if err != nil {
				return err
			}
			if !keep {
				continue
			}
		}
		if info.Path == "" {
			p.header.Fprintf(out, "# %s\n", info.Namespace)
			continue
		}
		fmt.Fprintf(out, "%s = %q\n", info.Path, info.Value)
	}
	return nil
}
