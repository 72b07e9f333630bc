package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the latest metadata and instance-body databases from the origin",
	Long: `update refreshes the local .stride databases from the origin server.
Metadata and instance bodies are downloaded concurrently. Use
--only-metadata to skip the (much larger) instance-body database.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().Bool("only-metadata", false, "skip downloading the instance-body database")
	updateCmd.Flags().Bool("replace-all", false, "replace local databases instead of merging")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	dir, settings, err := openDataDir(cmd)
	if err != nil {
		return err
	}
	onlyMetadata, _ := cmd.Flags().GetBool("only-metadata")
	replaceAll, _ := cmd.Flags().GetBool("replace-all")

	origin := newOriginClient(settings)
	ctx := context.Background()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		f, err := os.Create(dir.MetadataDBPath())
		if err != nil {
			errCh <- fmt.Errorf("creating metadata database: %w", err)
			return
		}
		defer f.Close()
		if err := origin.DownloadMetadataDB(ctx, f, nil); err != nil {
			errCh <- fmt.Errorf("downloading metadata database: %w", err)
		}
	}()

	if !onlyMetadata {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := dir.InstancesDBPath()
			if !replaceAll {
				path += ".download"
			}
			f, err := os.Create(path)
			if err != nil {
				errCh <- fmt.Errorf("creating instance database: %w", err)
				return
			}
			defer f.Close()
			if err := origin.DownloadInstancesDB(ctx, f, nil); err != nil {
				errCh <- fmt.Errorf("downloading instance database: %w", err)
				return
			}
			if !replaceAll {
				if err := mergeInstanceDownload(dir.InstancesDBPath(), path); err != nil {
					errCh <- err
				}
			}
		}()
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeInstanceDownload(existingPath, downloadedPath string) error {
	defer os.Remove(downloadedPath)

	if _, err := os.Stat(existingPath); os.IsNotExist(err) {
		return os.Rename(downloadedPath, existingPath)
	}

	store, err := openInstanceStoreAtPath(existingPath)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.MergeFromFile(downloadedPath)
	return err
}
