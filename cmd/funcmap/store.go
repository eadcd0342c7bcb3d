package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yousuf/funcmap/internal/funcmap"
	"github.com/yousuf/funcmap/internal/store"
)

var storePath string

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored source maps",
	Long:  "Commands for adding, listing and removing the source maps served by \"funcmap serve\"",
}

var storePutCmd = &cobra.Command{
	Use:   "put NAME FILE",
	Short: "Store a source map under a name",
	Args:  cobra.ExactArgs(2),
	RunE:  runStorePut,
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored source maps",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

var storeRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Remove a stored source map",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreRm,
}

func init() {
	storeCmd.PersistentFlags().StringVar(&storePath, "store", "", "Database file (default: store.path from config)")
	storeCmd.AddCommand(storePutCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeRmCmd)
}

func openStore() (store.Store, error) {
	path := storePath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Store.Path
	}
	if path == store.MemoryPath {
		return nil, fmt.Errorf("store commands need a database file (set --store or store.path)")
	}
	return store.New(store.Config{Path: path})
}

func runStorePut(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	m, err := funcmap.ParseAny(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if m.Enriched() {
		if _, err := funcmap.NewDecoder(m); err != nil {
			return fmt.Errorf("invalid function mappings in %s: %w", path, err)
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Put(name, m); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%d sources, enriched: %t)\n", name, len(m.Sources), m.Enriched())
	return nil
}

func runStoreList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	names, err := st.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Name\tFile\tSources\tEnriched\n")
	fmt.Fprintf(w, "----\t----\t-------\t--------\n")
	for _, name := range names {
		m, err := st.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%t\n", name, m.File, len(m.Sources), m.Enriched())
	}
	return nil
}

func runStoreRm(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}
