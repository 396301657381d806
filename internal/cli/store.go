package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aleksaelezovic/xmpkit/internal/encoding"
	"github.com/aleksaelezovic/xmpkit/internal/packetstore"
	"github.com/aleksaelezovic/xmpkit/internal/storage"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local packet store",
	Long: `Keeps serialized packets in a local store, keyed by resource name.

The store directory comes from --store or the store.path setting.`,
}

var storeFlags struct {
	path   string
	output string
	prefix string
	jobs   int
}

var storePutCmd = &cobra.Command{
	Use:   "put <resource> <file>",
	Short: "Store a packet under a resource name",
	Args:  cobra.ExactArgs(2),
	RunE:  runStorePut,
}

var storeGetCmd = &cobra.Command{
	Use:   "get <resource>",
	Short: "Print a stored packet",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreGet,
}

var storeListCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List stored packets",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStoreList,
}

var storeDeleteCmd = &cobra.Command{
	Use:   "delete <resource>",
	Short: "Remove a stored packet",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreDelete,
}

var storeFindCmd = &cobra.Command{
	Use:   "find <file>",
	Short: "List resources whose stored packet is identical to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreFind,
}

var storeImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Store every .xmp file below a directory",
	Long: `Walks dir and stores each .xmp file under its slash-separated path
relative to dir, prefixed with --prefix. Files are parsed in parallel.

Examples:
  xmptool store import --prefix photos/ ./sidecars`,
	Args: cobra.ExactArgs(1),
	RunE: runStoreImport,
}

func init() {
	storeImportCmd.Flags().StringVar(&storeFlags.prefix, "prefix", "", "Prefix for the resource names")
	storeImportCmd.Flags().IntVarP(&storeFlags.jobs, "jobs", "j", runtime.NumCPU(), "Number of packets processed at once")
	storeCmd.PersistentFlags().StringVar(&storeFlags.path, "store", "", "Packet store directory")
	storeGetCmd.Flags().StringVarP(&storeFlags.output, "output", "o", "", "Write the packet to this file")
	storeCmd.AddCommand(storePutCmd, storeGetCmd, storeListCmd, storeDeleteCmd, storeFindCmd, storeImportCmd)
	rootCmd.AddCommand(storeCmd)
}

func openStore() (*packetstore.PacketStore, error) {
	path := storeFlags.path
	if path == "" {
		path = app.cfg.Store.Path
	}
	st, err := storage.OpenBadgerStorage(path, storage.Options{Logger: app.log})
	if err != nil {
		return nil, err
	}
	return packetstore.New(st, app.log), nil
}

func runStorePut(cmd *cobra.Command, args []string) error {
	meta, err := readPacket(cmd, args[1])
	if err != nil {
		return err
	}
	opts, err := app.cfg.SerializeOptions()
	if err != nil {
		return err
	}

	ps, err := openStore()
	if err != nil {
		return err
	}
	defer ps.Close()

	rec, changed, err := ps.PutMeta(args[0], meta, opts)
	if err != nil {
		return err
	}
	if err := ps.Sync(); err != nil {
		return err
	}
	status := "stored"
	if !changed {
		status = "unchanged"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", status, args[0], encoding.Fingerprint(rec.Fingerprint))
	return err
}

func runStoreGet(cmd *cobra.Command, args []string) error {
	ps, err := openStore()
	if err != nil {
		return err
	}
	defer ps.Close()

	packet, _, err := ps.Get(args[0])
	if err != nil {
		return fmt.Errorf("resource %s: %w", args[0], err)
	}
	return writeOutput(cmd, storeFlags.output, packet)
}

func runStoreList(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	ps, err := openStore()
	if err != nil {
		return err
	}
	defer ps.Close()

	entries, err := ps.List(prefix)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tSIZE\tMODIFIED\tFINGERPRINT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", e.Resource, e.Size, e.Modified.Format(time.RFC3339), encoding.Fingerprint(e.Fingerprint))
	}
	return w.Flush()
}

func runStoreDelete(cmd *cobra.Command, args []string) error {
	ps, err := openStore()
	if err != nil {
		return err
	}
	defer ps.Close()

	if err := ps.Delete(args[0]); err != nil {
		return fmt.Errorf("resource %s: %w", args[0], err)
	}
	if err := ps.Sync(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return err
}

func runStoreFind(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	ps, err := openStore()
	if err != nil {
		return err
	}
	defer ps.Close()

	resources, err := ps.FindByFingerprint(encoding.Hash128(data))
	if err != nil {
		return err
	}
	for _, r := range resources {
		fmt.Fprintln(cmd.OutOrStdout(), r)
	}
	return nil
}

func runStoreImport(cmd *cobra.Command, args []string) error {
	root := args[0]
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".xmp") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return err
	}

	opts, err := app.cfg.SerializeOptions()
	if err != nil {
		return err
	}
	ps, err := openStore()
	if err != nil {
		return err
	}
	defer ps.Close()

	type result struct {
		resource string
		changed  bool
	}
	results := make([]result, len(files))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(storeFlags.jobs, 1))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(root, file)
			if err != nil {
				return err
			}
			resource := storeFlags.prefix + filepath.ToSlash(rel)

			meta, err := readPacket(cmd, file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			_, changed, err := ps.PutMeta(resource, meta, opts)
			if err != nil {
				return err
			}
			results[i] = result{resource: resource, changed: changed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ps.Sync(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stored := 0
	for _, r := range results {
		status := "unchanged"
		if r.changed {
			status = "stored"
			stored++
		}
		fmt.Fprintf(out, "%s %s\n", status, r.resource)
	}
	_, err = fmt.Fprintf(out, "%d of %d packets stored\n", stored, len(results))
	return err
}
