package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/cuemby/stride/pkg/pace"
	"github.com/spf13/cobra"
)

var exportInstanceCmd = &cobra.Command{
	Use:   "export-instance IID OUTPUT",
	Short: "Write an instance's PACE-format body to a file",
	Long: `export-instance fetches an instance's graph body (from the local
cache, downloading it from the origin on a miss) and writes it verbatim
to OUTPUT, the ".gr" format a solver expects on stdin.`,
	Args: cobra.ExactArgs(2),
	RunE: runExportInstance,
}

func init() {
	exportInstanceCmd.Flags().BoolP("force", "f", false, "overwrite OUTPUT if it already exists")
}

func runExportInstance(cmd *cobra.Command, args []string) error {
	iid, err := ids.ParseIID(args[0])
	if err != nil {
		return err
	}
	outPath := args[1]
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("%s already exists; pass --force to overwrite", outPath)
		}
	}

	dir, settings, err := openDataDir(cmd)
	if err != nil {
		return err
	}
	meta, err := openMetadataStore(dir)
	if err != nil {
		return err
	}
	defer meta.Close()
	bodies, err := openInstanceStore(dir)
	if err != nil {
		return err
	}
	defer bodies.Close()
	origin := newOriginClient(settings)

	ctx := context.Background()
	model, err := meta.FetchInstance(ctx, iid)
	if err != nil {
		return fmt.Errorf("instance %s: %w", iid, err)
	}

	body, err := bodies.FetchByDID(ctx, origin, iid, model.DataDID)
	if err != nil {
		return fmt.Errorf("fetching body for instance %s: %w", iid, err)
	}

	if err := os.WriteFile(outPath, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Printf("wrote %d bytes to %s\n", len(body), outPath)
	return nil
}

var exportSolutionCmd = &cobra.Command{
	Use:   "export-solution IID SOLUTION",
	Short: "Validate a local solution file against an instance",
	Long: `export-solution reads a solver-format solution file (a cardinality
line followed by that many node lines) and checks it against the
instance's graph, reporting whether it is a valid dominating set and how
its score compares to the best known score.`,
	Args: cobra.ExactArgs(2),
	RunE: runExportSolution,
}

func runExportSolution(cmd *cobra.Command, args []string) error {
	iid, err := ids.ParseIID(args[0])
	if err != nil {
		return err
	}
	solutionPath := args[1]

	dir, settings, err := openDataDir(cmd)
	if err != nil {
		return err
	}
	meta, err := openMetadataStore(dir)
	if err != nil {
		return err
	}
	defer meta.Close()
	bodies, err := openInstanceStore(dir)
	if err != nil {
		return err
	}
	defer bodies.Close()
	origin := newOriginClient(settings)

	ctx := context.Background()
	model, err := meta.FetchInstance(ctx, iid)
	if err != nil {
		return fmt.Errorf("instance %s: %w", iid, err)
	}
	body, err := bodies.FetchByDID(ctx, origin, iid, model.DataDID)
	if err != nil {
		return fmt.Errorf("fetching body for instance %s: %w", iid, err)
	}
	numNodes, edges, err := pace.ReadAll(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parsing instance %s: %w", iid, err)
	}

	f, err := os.Open(solutionPath)
	if err != nil {
		return err
	}
	defer f.Close()
	solution, outcome, err := pace.ReadSolution(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", solutionPath, err)
	}
	if outcome != pace.OutcomeOK {
		fmt.Printf("incomplete: %s did not contain a well-formed solution\n", solutionPath)
		return nil
	}

	score := uint32(len(solution.Nodes))
	valid, err := pace.ValidDominatingSet(solution, numNodes, edges)
	if err != nil {
		fmt.Printf("error: %s: %v\n", solutionPath, err)
		return nil
	}
	if !valid {
		fmt.Printf("infeasible: %s is not a dominating set for instance %s\n", solutionPath, iid)
		return nil
	}

	if model.BestScore != nil {
		fmt.Printf("valid: score %d (best known %d)\n", score, *model.BestScore)
	} else {
		fmt.Printf("valid: score %d (no best known score on record)\n", score)
	}
	return nil
}
