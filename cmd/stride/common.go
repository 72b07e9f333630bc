package main

import (
	"fmt"
	"os"

	"github.com/cuemby/stride/pkg/config"
	"github.com/cuemby/stride/pkg/instancestore"
	"github.com/cuemby/stride/pkg/metadatastore"
	"github.com/cuemby/stride/pkg/originclient"
	"github.com/cuemby/stride/pkg/rundir"
	"github.com/spf13/cobra"
)

// openDataDir resolves --data-dir, opens (creating if needed) the stride
// working directory, and loads config.json if present, falling back to
// built-in defaults and any --server-url override.
func openDataDir(cmd *cobra.Command) (*rundir.Directory, config.Settings, error) {
	dataDirFlag, _ := cmd.Flags().GetString("data-dir")
	dir, err := rundir.Open(dataDirFlag)
	if err != nil {
		return nil, config.Settings{}, err
	}

	settings := config.Default()
	if _, statErr := os.Stat(dir.ConfigPath()); statErr == nil {
		settings, err = config.LoadFromPath(dir.ConfigPath())
		if err != nil {
			return nil, config.Settings{}, err
		}
	}

	if serverURL, _ := cmd.Flags().GetString("server-url"); serverURL != "" {
		settings.ServerURL = serverURL
	}

	config.InitGlobal(settings)
	return dir, settings, nil
}

func openMetadataStore(dir *rundir.Directory) (*metadatastore.Store, error) {
	s, err := metadatastore.Open(dir.MetadataDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	return s, nil
}

func openInstanceStore(dir *rundir.Directory) (*instancestore.Store, error) {
	return openInstanceStoreAtPath(dir.InstancesDBPath())
}

func openInstanceStoreAtPath(path string) (*instancestore.Store, error) {
	s, err := instancestore.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening instance store: %w", err)
	}
	return s, nil
}

func newOriginClient(settings config.Settings) *originclient.Client {
	return originclient.New(settings.ServerURL)
}
