package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <file> <namespace> <path>",
	Short: "Print one property value",
	Long: `Prints the value of one property.

The path is an XMP path expression relative to the namespace, such as
"CreatorTool", "subject[2]" or "title[?xml:lang='x-default']".

With --lang the path names a language alternative and the best matching
item is printed.

Examples:
  xmptool get photo.xmp xmp CreatorTool
  xmptool get --lang en-US photo.xmp dc title`,
	Args: cobra.ExactArgs(3),
	RunE: runGet,
}

var getFlags struct {
	lang string
}

func init() {
	getCmd.Flags().StringVar(&getFlags.lang, "lang", "", "Look up a localized text item")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	meta, err := readPacket(cmd, args[0])
	if err != nil {
		return err
	}
	ns, err := resolveNamespace(meta.Registry(), args[1])
	if err != nil {
		return err
	}

	var value string
	var found bool
	if getFlags.lang != "" {
		prop, ok, err := meta.GetLocalizedText(ns, args[2], "", getFlags.lang)
		if err != nil {
			return err
		}
		value, found = prop.Value, ok
		if ok {
			app.log.Debug("localized item chosen", "language", prop.Language)
		}
	} else {
		prop, ok, err := meta.GetProperty(ns, args[2])
		if err != nil {
			return err
		}
		if ok && prop.Options.IsCompositeProperty() {
			return fmt.Errorf("%s is composite (%s), use dump --paths to see its items", args[2], prop.Options)
		}
		value, found = prop.Value, ok
	}

	if !found {
		return fmt.Errorf("property %s not found", args[2])
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
	return err
}
