package cli

import (
	"errors"
	"fmt"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

var errPacketsDiffer = errors.New("packets differ")

var diffCmd = &cobra.Command{
	Use:   "diff <file> <file>",
	Short: "Compare the properties of two packets",
	Long: `Compares two packets property by property after normalization.

Each leaf node and qualifier is listed as a "path = value" line; lines
only in the first packet are printed with "-", lines only in the second
with "+". Formatting and property order do not matter.

Examples:
  xmptool diff before.xmp after.xmp
  xmptool diff --exit-code a.xmp - < b.xmp`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var diffFlags struct {
	exitCode bool
}

func init() {
	diffCmd.Flags().BoolVar(&diffFlags.exitCode, "exit-code", false, "Fail when the packets differ")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	var listings [2]string
	for i, path := range args {
		meta, err := readPacket(cmd, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if listings[i], err = leafListing(meta); err != nil {
			return err
		}
	}

	dmp := diffpatch.New()
	from, to, lines := dmp.DiffLinesToChars(listings[0], listings[1])
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(from, to, false), lines)

	out := cmd.OutOrStdout()
	p := newPalette(out)
	changed := false
	for _, d := range diffs {
		var marker string
		c := p.removed
		switch d.Type {
		case diffpatch.DiffDelete:
			marker = "-"
		case diffpatch.DiffInsert:
			marker, c = "+", p.added
		default:
			continue
		}
		changed = true
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				c.Fprint(out, marker+line)
			}
		}
	}
	if changed && diffFlags.exitCode {
		return errPacketsDiffer
	}
	return nil
}

// leafListing renders the sorted leaves of meta, one "path = value" line
// each.
func leafListing(meta *xmp.Meta) (string, error) {
	meta.Sort()
	it, err := meta.Iterator("", "", xmp.IterOptions{JustLeafNodes: true})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for info, ok := it.Next(); ok; info, ok = it.Next() {
		if info.Path == "" {
			continue
		}
		fmt.Fprintf(&b, "%s = %q\n", info.Path, info.Value)
	}
	return b.String(), nil
}
