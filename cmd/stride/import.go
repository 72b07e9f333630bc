package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/cuemby/stride/pkg/log"
	"github.com/cuemby/stride/pkg/pace"
	"github.com/cuemby/stride/pkg/upload"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var importSolutionCmd = &cobra.Command{
	Use:   "import-solution IID SOLUTION",
	Short: "Validate and upload a previously computed solution",
	Long: `import-solution re-validates a solution file that was produced
outside of "run" (for instance, hand-written or from a different solver
invocation) and, unless --no-upload is given, reports it to the origin
under the registered solver UUID if it clears the upload-gating
threshold.`,
	Args: cobra.ExactArgs(2),
	RunE: runImportSolution,
}

func init() {
	importSolutionCmd.Flags().BoolP("no-upload", "n", false, "validate only, never upload")
}

func runImportSolution(cmd *cobra.Command, args []string) error {
	iid, err := ids.ParseIID(args[0])
	if err != nil {
		return err
	}
	solutionPath := args[1]
	noUpload, _ := cmd.Flags().GetBool("no-upload")

	dir, settings, err := openDataDir(cmd)
	if err != nil {
		return err
	}
	if !noUpload && settings.SolverUUID == nil {
		return fmt.Errorf("no solver UUID registered; run \"stride register\" first or pass --no-upload")
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
		return fmt.Errorf("%s did not contain a well-formed solution", solutionPath)
	}
	valid, err := pace.ValidDominatingSet(solution, numNodes, edges)
	if err != nil {
		return fmt.Errorf("%s: %w", solutionPath, err)
	}
	if !valid {
		return fmt.Errorf("%s is not a valid dominating set for instance %s", solutionPath, iid)
	}

	score := uint32(len(solution.Nodes))
	fmt.Printf("valid: score %d for instance %s\n", score, iid)

	if noUpload {
		return nil
	}
	if !upload.IsGoodEnough(score, model.BestScore) {
		fmt.Println("score does not clear the upload-gating threshold; not uploading")
		return nil
	}

	req := upload.BuildRequest(iid, uuid.New(), settings.SolverUUID, "best", &score, model.BestScore, 0)
	client := upload.NewClient(settings.ServerURL)
	if err := client.Upload(ctx, req); err != nil {
		return fmt.Errorf("uploading solution: %w", err)
	}
	log.Info(fmt.Sprintf("uploaded imported solution for instance %s, score %d", iid, score))
	return nil
}
