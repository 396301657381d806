package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

var setCmd = &cobra.Command{
	Use:   "set <file> <namespace> <path> [value]",
	Short: "Set, append or delete one property",
	Long: `Sets one property and writes the packet back.

The file is rewritten in place unless --output is given. Formatting follows
the serialize section of xmptool.yaml.

Examples:
  xmptool set photo.xmp xmp CreatorTool "My Tool"
  xmptool set --lang en-US photo.xmp dc title "A title"
  xmptool set --append photo.xmp dc subject "keyword"
  xmptool set --delete photo.xmp photoshop Instructions
  xmptool set --new-instance-id photo.xmp`,
	Args: setArgs,
	RunE: runSet,
}

var setFlags struct {
	output        string
	lang          string
	append        bool
	seq           bool
	uri           bool
	remove        bool
	newInstanceID bool
}

func init() {
	setCmd.Flags().StringVarP(&setFlags.output, "output", "o", "", "Write the result to this file (- for stdout)")
	setCmd.Flags().StringVar(&setFlags.lang, "lang", "", "Set a localized text item for this language")
	setCmd.Flags().BoolVar(&setFlags.append, "append", false, "Append the value as a new array item")
	setCmd.Flags().BoolVar(&setFlags.seq, "seq", false, "Create the array as an ordered sequence when appending")
	setCmd.Flags().BoolVar(&setFlags.uri, "uri", false, "Mark the value as a URI")
	setCmd.Flags().BoolVar(&setFlags.remove, "delete", false, "Delete the property instead of setting it")
	setCmd.Flags().BoolVar(&setFlags.newInstanceID, "new-instance-id", false, "Store a fresh xmpMM:InstanceID")
	setCmd.MarkFlagsMutuallyExclusive("append", "delete", "lang")
	rootCmd.AddCommand(setCmd)
}

func setArgs(cmd *cobra.Command, args []string) error {
	switch {
	case setFlags.newInstanceID && len(args) == 1:
		return nil
	case setFlags.remove:
		return cobra.ExactArgs(3)(cmd, args)
	default:
		return cobra.ExactArgs(4)(cmd, args)
	}
}

func runSet(cmd *cobra.Command, args []string) error {
	meta, err := readPacket(cmd, args[0])
	if err != nil {
		return err
	}

	if len(args) > 1 {
		if err := applySet(meta, args[1:]); err != nil {
			return err
		}
	}
	if setFlags.newInstanceID {
		id := "xmp.iid:" + uuid.NewString()
		if err := meta.SetProperty(xmp.NsXMPMM, "InstanceID", id, xmp.NoOptions); err != nil {
			return err
		}
		app.log.Info("new instance id", "id", id)
	}

	opts, err := app.cfg.SerializeOptions()
	if err != nil {
		return err
	}
	data, err := xmp.Serialize(meta, opts)
	if err != nil {
		return err
	}

	output := setFlags.output
	if output == "" {
		output = args[0]
	}
	if output == "-" {
		output = ""
	}
	return writeOutput(cmd, output, data)
}

func applySet(meta *xmp.Meta, args []string) error {
	ns, err := resolveNamespace(meta.Registry(), args[0])
	if err != nil {
		return err
	}
	path := args[1]

	if setFlags.remove {
		if !meta.DeleteProperty(ns, path) {
			return fmt.Errorf("property %s not found", path)
		}
		return nil
	}

	value := args[2]
	itemOptions := xmp.NoOptions
	if setFlags.uri {
		itemOptions |= xmp.ValueIsURI
	}

	switch {
	case setFlags.lang != "":
		return meta.SetLocalizedText(ns, path, "", setFlags.lang, value)
	case setFlags.append:
		arrayOptions := xmp.ValueIsArray
		if setFlags.seq {
			arrayOptions |= xmp.ArrayIsOrdered
		}
		return meta.AppendArrayItem(ns, path, arrayOptions, value, itemOptions)
	default:
		return meta.SetProperty(ns, path, value, itemOptions)
	}
}
