package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/easeaico/adaptive-tutor/internal/config"
	"github.com/easeaico/adaptive-tutor/internal/emotion"
	"github.com/easeaico/adaptive-tutor/internal/policystore"
	"github.com/easeaico/adaptive-tutor/internal/rl"
)

func newPolicyCmd() *cobra.Command {
	var (
		kind string
		path string
	)
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect and manage saved policy snapshots",
	}
	cmd.PersistentFlags().StringVar(&kind, "store", "", "Policy store kind (file or sqlite); defaults to POLICY_STORE")
	cmd.PersistentFlags().StringVar(&path, "path", "", "Policy store path; defaults to POLICY_PATH")

	open := func() (policystore.Store, error) {
		cfg := config.LoadLax()
		if kind == "" {
			kind = cfg.PolicyStore
		}
		if path == "" && kind == cfg.PolicyStore {
			path = cfg.PolicyPath
		}
		return policystore.Open(kind, path)
	}

	var versionID string
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "Print the value table of the latest (or a given) snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			return inspectPolicy(cmd.Context(), cmd.OutOrStdout(), store, versionID, config.LoadLax().RLActions)
		},
	}
	inspect.Flags().StringVar(&versionID, "version", "", "Snapshot version to inspect (sqlite store only)")

	var limit int
	versions := &cobra.Command{
		Use:   "versions",
		Short: "List saved snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			sqlite, err := requireSQLite(store)
			if err != nil {
				return err
			}
			return listVersions(cmd.Context(), cmd.OutOrStdout(), sqlite, limit)
		},
	}
	versions.Flags().IntVar(&limit, "limit", 20, "Maximum number of snapshots to list")

	rollback := &cobra.Command{
		Use:   "rollback <version>",
		Short: "Make an earlier snapshot the active policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			sqlite, err := requireSQLite(store)
			if err != nil {
				return err
			}
			if err := sqlite.Rollback(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active policy is now %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(inspect, versions, rollback)
	return cmd
}

func requireSQLite(store policystore.Store) (*policystore.SQLiteStore, error) {
	sqlite, ok := store.(*policystore.SQLiteStore)
	if !ok {
		return nil, errors.New("snapshot history requires the sqlite policy store (--store sqlite)")
	}
	return sqlite, nil
}

func inspectPolicy(ctx context.Context, out io.Writer, store policystore.Store, versionID string, actions []string) error {
	var (
		body []byte
		snap policystore.Snapshot
		err  error
	)
	if versionID != "" {
		sqlite, serr := requireSQLite(store)
		if serr != nil {
			return serr
		}
		body, snap, err = sqlite.Get(ctx, versionID)
	} else {
		body, snap, err = store.Latest(ctx)
	}
	if err != nil {
		return err
	}

	if len(actions) == 0 {
		actions = []string{"-"}
	}
	agent, err := rl.New[emotion.Label, string](actions, rl.DefaultConfig(), nil)
	if err != nil {
		return err
	}
	if err := agent.Load(bytes.NewReader(body)); err != nil {
		return err
	}

	fmt.Fprintf(out, "Snapshot %s (%d bytes, %s)\n\n", snap.Version, snap.Size, snap.CreatedAt.Format(time.RFC3339))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tACTION\tVALUE")
	for _, e := range agent.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%.6f\n", e.State, e.Action, e.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d entries\n", agent.Len())
	return nil
}

func listVersions(ctx context.Context, out io.Writer, store *policystore.SQLiteStore, limit int) error {
	snaps, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	active, err := store.Active(ctx)
	if err != nil && !errors.Is(err, policystore.ErrNoSnapshot) {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintln(out, "No snapshots saved")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tVERSION\tPARENT\tBYTES\tCREATED")
	for _, s := range snaps {
		marker := ""
		if s.Version == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", marker, s.Version, s.ParentID, s.Size, s.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
