package cli

import (
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

var formatCmd = &cobra.Command{
	Use:   "format <file>",
	Short: "Reserialize a packet",
	Long: `Parses a packet, normalizes it and serializes it again.

Flags override the serialize section of xmptool.yaml.

Examples:
  xmptool format photo.xmp
  xmptool format --compact --encoding UTF-16LE -o out.xmp photo.xmp
  xmptool format --exact-length 4096 photo.xmp`,
	Args: cobra.ExactArgs(1),
	RunE: runFormat,
}

var formatFlags struct {
	output      string
	compact     bool
	canonical   bool
	omitWrapper bool
	readOnly    bool
	sort        bool
	encoding    string
	padding     int
	exactLength int
	indent      string
	newline     string
}

func init() {
	f := formatCmd.Flags()
	f.StringVarP(&formatFlags.output, "output", "o", "", "Write the result to this file instead of stdout")
	f.BoolVar(&formatFlags.compact, "compact", false, "Use the compact RDF form")
	f.BoolVar(&formatFlags.canonical, "canonical", false, "Use the canonical RDF form")
	f.BoolVar(&formatFlags.omitWrapper, "omit-wrapper", false, "Omit the xpacket wrapper")
	f.BoolVar(&formatFlags.readOnly, "read-only", false, "Mark the packet read-only")
	f.BoolVar(&formatFlags.sort, "sort", false, "Sort schemas and properties")
	f.StringVar(&formatFlags.encoding, "encoding", "", "Output encoding: UTF-8, UTF-16BE/LE, UTF-32BE/LE")
	f.IntVar(&formatFlags.padding, "padding", 0, "Padding in bytes, negative for none")
	f.IntVar(&formatFlags.exactLength, "exact-length", 0, "Pad the packet to exactly this many bytes")
	f.StringVar(&formatFlags.indent, "indent", "", "Indent string")
	f.StringVar(&formatFlags.newline, "newline", "", "Newline string")
	formatCmd.MarkFlagsMutuallyExclusive("compact", "canonical")
	formatCmd.MarkFlagsMutuallyExclusive("padding", "exact-length")
	rootCmd.AddCommand(formatCmd)
}

func runFormat(cmd *cobra.Command, args []string) error {
	meta, err := readPacket(cmd, args[0])
	if err != nil {
		return err
	}
	opts, err := formatOptions(cmd)
	if err != nil {
		return err
	}
	data, err := xmp.Serialize(meta, opts)
	if err != nil {
		return err
	}
	app.log.Debug("packet serialized", "bytes", len(data), "encoding", opts.Encoding)
	return writeOutput(cmd, formatFlags.output, data)
}

// formatOptions layers the changed flags over the configured options.
func formatOptions(cmd *cobra.Command) (*xmp.SerializeOptions, error) {
	opts, err := app.cfg.SerializeOptions()
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("compact") {
		opts.UseCompactFormat = formatFlags.compact
	}
	if f.Changed("canonical") {
		opts.UseCompactFormat = !formatFlags.canonical
	}
	if f.Changed("omit-wrapper") {
		opts.OmitPacketWrapper = formatFlags.omitWrapper
	}
	if f.Changed("read-only") {
		opts.ReadOnlyPacket = formatFlags.readOnly
	}
	if f.Changed("sort") {
		opts.Sort = formatFlags.sort
	}
	if f.Changed("encoding") {
		if opts.Encoding, err = xmp.ParseEncoding(formatFlags.encoding); err != nil {
			return nil, err
		}
	}
	if f.Changed("padding") {
		opts.Padding = formatFlags.padding
	}
	if f.Changed("exact-length") {
		opts.ExactPacketLength = true
		opts.Padding = formatFlags.exactLength
	}
	if f.Changed("indent") {
		opts.Indent = formatFlags.indent
	}
	if f.Changed("newline") {
		opts.Newline = formatFlags.newline
	}
	return opts, nil
}
