package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zonecraft/macrotine/internal/config"
	"github.com/zonecraft/macrotine/internal/index"
	"github.com/zonecraft/macrotine/internal/macrotine"
	"github.com/zonecraft/macrotine/internal/provider"
	"github.com/zonecraft/macrotine/internal/provider/route53"
	"github.com/zonecraft/macrotine/internal/statestore"
	"github.com/zonecraft/macrotine/internal/statestore/local"
	"github.com/zonecraft/macrotine/internal/statestore/s3"
)

var (
	configPath   string
	adoptOrphans string
	log          = logrus.New()
)

func main() {
	root := &cobra.Command{
		Use:           "macrotine",
		Short:         "Reconcile tinydns zone files against a hosted DNS provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "macrotis.conf", "path to the configuration file")
	root.PersistentFlags().StringVar(&adoptOrphans, "adopt-orphans", "ignore", `policy for provider records absent from both state and local: "ignore" or "delete"`)

	root.AddCommand(
		lintCmd(),
		noopCmd(),
		executeCmd(),
	)

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// lintCmd parses the input and reports the record count without touching
// the provider or state.
func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint [input]",
		Short: "Parse input and report the record count, without reconciling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			eng := &macrotine.Engine{Config: cfg, Log: log}

			localRecs, warnings, err := eng.LoadLocal(args[0], isDir(args[0]))
			logWarnings(warnings)
			if err != nil {
				return err
			}
			fmt.Printf("No errors detected; processed %d records\n", len(localRecs))
			return nil
		},
	}
}

// noopCmd runs the full three-way diff and prints what would change,
// without calling Apply or saving state.
func noopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "noop [input]",
		Short: "Show what would change without submitting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			if check, ok := eng.Provider.(provider.CredentialPrecheck); ok {
				if err := check.PrecheckCredentials(); err != nil {
					return fmt.Errorf("credential precheck failed: %w", err)
				}
			}

			localRecs, state, remote, _, warnings, err := loadAll(eng, args[0])
			logWarnings(warnings)
			if err != nil {
				return err
			}

			newRes, updated, deleted, diffWarnings := eng.Diff(localRecs, state, remote)
			logWarnings(diffWarnings)

			fmt.Printf("new: %d, updated: %d, deleted: %d\n", len(newRes), len(updated), len(deleted))
			for k := range newRes {
				fmt.Printf("  + %s\n", k)
			}
			for k := range updated {
				fmt.Printf("  ~ %s\n", k)
			}
			for k := range deleted {
				fmt.Printf("  - %s\n", k)
			}
			return nil
		},
	}
}

// executeCmd runs the full reconciliation: diff, submit, save state.
func executeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [input]",
		Short: "Reconcile input against the provider and persist the new state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := buildEngine()
			if err != nil {
				return err
			}
			if check, ok := eng.Provider.(provider.CredentialPrecheck); ok {
				if err := check.PrecheckCredentials(); err != nil {
					return fmt.Errorf("credential precheck failed: %w", err)
				}
			}

			localRecs, state, remote, version, warnings, err := loadAll(eng, args[0])
			logWarnings(warnings)
			if err != nil {
				return err
			}

			results, err := eng.Execute(context.Background(), localRecs, state, remote, version)
			for _, r := range results {
				if r.Err != nil {
					log.Errorf("zone %s: %d records submitted before failure: %v", r.ZoneID, r.Submitted, r.Err)
				} else {
					log.Infof("zone %s: %d records submitted", r.ZoneID, r.Submitted)
				}
			}
			if err != nil {
				return err
			}

			fmt.Println("operation completed.")
			return nil
		},
	}
}

// buildEngine loads the config and wires the provider and state store
// adapters named in it into a *macrotine.Engine.
func buildEngine() (*macrotine.Engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()

	var prov provider.Client
	switch cfg.Provider.Name {
	case "route53":
		prov, err = route53.New(ctx, route53.Config{
			Region:      cfg.Provider.Region,
			AssumeRole:  cfg.Provider.AssumeRole,
			RoleARN:     cfg.Provider.RoleARN,
			SessionName: cfg.Provider.SessionName,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, &macrotine.ConfigError{Field: "provider.name", Reason: fmt.Sprintf("unsupported provider %q", cfg.Provider.Name)}
	}

	var store statestore.Store
	switch cfg.StateFile.Backend {
	case "local":
		store = local.New(cfg.StateFile.Filename)
	case "s3":
		store, err = s3.New(ctx, s3.Config{
			Bucket:      cfg.StateFile.Bucket,
			Key:         cfg.StateFile.Key,
			Region:      cfg.StateFile.Region,
			RoleARN:     cfg.StateFile.RoleARN,
			SessionName: cfg.StateFile.SessionName,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, &macrotine.ConfigError{Field: "statefile.backend", Reason: fmt.Sprintf("unsupported backend %q", cfg.StateFile.Backend)}
	}

	policy := macrotine.AdoptIgnore
	if adoptOrphans == "delete" {
		policy = macrotine.AdoptDelete
	}

	return &macrotine.Engine{
		Config:       cfg,
		Provider:     prov,
		StateStore:   store,
		AdoptOrphans: policy,
		Log:          log,
	}, nil
}

// loadAll parses input and fetches the state and remote record sets
// needed by noop and execute, along with the state store's version token.
func loadAll(eng *macrotine.Engine, input string) (localRecs, state, remote index.ResourceMap, version string, warnings []string, err error) {
	localRecs, warnings, err = eng.LoadLocal(input, isDir(input))
	if err != nil {
		return nil, nil, nil, "", warnings, err
	}

	st, ver, err := eng.StateStore.Load()
	if err != nil && !errors.Is(err, statestore.ErrNotFound) {
		return nil, nil, nil, "", warnings, err
	}
	state = st.Records
	version = ver

	remote, err = eng.LoadRemote(context.Background())
	if err != nil {
		return nil, nil, nil, "", warnings, err
	}

	return localRecs, state, remote, version, warnings, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func logWarnings(warnings []string) {
	for _, w := range warnings {
		log.Warn(w)
	}
}
