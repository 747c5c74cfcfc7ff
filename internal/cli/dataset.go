package cli

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/EvalVis/chesscorner/internal/blob"
	"github.com/EvalVis/chesscorner/internal/puzzle"
)

func init() {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage stored resources",
	}

	put := &cobra.Command{
		Use:   "put <file>",
		Short: "Upload a file to the resource store",
		Long:  "Upload a file to the resource store under the dataset key, or --key for rule files and other resources.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDatasetPut,
	}
	put.Flags().StringP("key", "k", "", "Destination key (default: the dataset key)")
	put.Flags().Bool("replace", false, "Replace an existing resource")

	ls := &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List stored resources",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDatasetList,
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count rows, malformed rows and puzzles per band",
		Args:  cobra.NoArgs,
		RunE:  runDatasetStats,
	}

	cmd.AddCommand(put, ls, stats)
	RootCmd.AddCommand(cmd)
}

func runDatasetPut(cmd *cobra.Command, args []string) error {
	key, _ := cmd.Flags().GetString("key")
	replace, _ := cmd.Flags().GetBool("replace")
	if key == "" {
		key = current.cfg.DatasetKey
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := cmd.Context()
	s, err := current.openStore(ctx)
	if err != nil {
		return err
	}
	if replace {
		if _, err := s.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	info, err := s.Put(ctx, key, f, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"source": filepath.Base(args[0])},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	current.log.Info("stored resource", "key", info.Key, "size", info.Size, "driver", s.Driver())
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), info)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", info.Key, info.Size)
	return nil
}

func runDatasetList(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = args[0]
	}
	s, err := current.openStore(cmd.Context())
	if err != nil {
		return err
	}
	infos, err := s.List(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput() {
		return writeJSON(out, infos)
	}
	for _, info := range infos {
		fmt.Fprintf(out, "%s\t%d\t%s\n", info.Key, info.Size, info.ContentType)
	}
	return nil
}

type statsJSON struct {
	Key       string         `json:"key"`
	Rows      int            `json:"rows"`
	Malformed int            `json:"malformed"`
	Themes    int            `json:"themes"`
	Bands     map[string]int `json:"bands"`
}

func runDatasetStats(cmd *cobra.Command, _ []string) error {
	svc, err := current.puzzles(cmd.Context(), nil)
	if err != nil {
		return err
	}
	st, err := svc.Engine().Stats(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput() {
		bands := make(map[string]int, len(st.PerBand))
		for b, n := range st.PerBand {
			bands[string(b)] = n
		}
		return writeJSON(out, statsJSON{Key: current.cfg.DatasetKey, Rows: st.Rows, Malformed: st.Malformed, Themes: st.Themes, Bands: bands})
	}
	fmt.Fprintf(out, "dataset\t%s\nrows\t%d\nmalformed\t%d\nthemes\t%d\n", current.cfg.DatasetKey, st.Rows, st.Malformed, st.Themes)
	for _, b := range puzzle.AllBands {
		r, _ := current.cfg.Bands.Range(b)
		fmt.Fprintf(out, "%s %s\t%d\n", b, r, st.PerBand[b])
	}
	return nil
}
