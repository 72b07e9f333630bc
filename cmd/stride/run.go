package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/stride/pkg/ids"
	"github.com/cuemby/stride/pkg/job"
	"github.com/cuemby/stride/pkg/log"
	"github.com/cuemby/stride/pkg/metadatastore"
	"github.com/cuemby/stride/pkg/progress"
	"github.com/cuemby/stride/pkg/scheduler"
	"github.com/cuemby/stride/pkg/summarylog"
	"github.com/cuemby/stride/pkg/upload"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run -b PATH [flags...] [-- solver-args...]",
	Short: "Run a solver binary against a batch of instances",
	Long: `run executes an external solver binary once per selected instance,
under a bounded-parallelism scheduler, verifying and optionally uploading
each result. Anything after "--" is passed through to the solver as
additional arguments.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringP("solver-bin", "b", "", "path to the solver binary (required)")
	runCmd.Flags().StringP("solver-uuid", "S", "", "solver UUID to report uploads under (overrides config.json)")
	runCmd.Flags().Uint64P("timeout", "T", 0, "per-instance timeout in seconds (overrides config.json default 300)")
	runCmd.Flags().Uint64P("grace", "G", 0, "grace period after SIGTERM before SIGKILL, in seconds (overrides config.json default 5)")
	runCmd.Flags().IntP("parallel-jobs", "j", 0, "maximum concurrent solver processes (overrides config.json, default numCPU)")
	runCmd.Flags().BoolP("suboptimal-is-error", "o", false, "treat a suboptimal (but feasible) solution as a failure")
	runCmd.Flags().Bool("sort-instances", false, "process instances in ascending IID order instead of shuffling")
	runCmd.Flags().StringP("instances", "i", "", "path to a file listing instance ids, one per line")
	runCmd.Flags().StringP("where", "w", "", "SQL WHERE-clause predicate selecting instances from the metadata store")
	runCmd.Flags().BoolP("export-iid-only", "e", false, "print the selected instance ids and exit without running anything")
	runCmd.Flags().BoolP("no-upload", "n", false, "never upload results to the origin")
	runCmd.Flags().BoolP("no-env", "E", false, "do not pass STRIDE_* environment variables to the solver")
	runCmd.Flags().BoolP("keep-logs-on-success", "k", false, "keep the solver's stdin/stdout/stderr files even on success")
	_ = runCmd.MarkFlagRequired("solver-bin")
}

func runRun(cmd *cobra.Command, args []string) error {
	dir, settings, err := openDataDir(cmd)
	if err != nil {
		return err
	}

	solverBin, _ := cmd.Flags().GetString("solver-bin")
	if _, err := os.Stat(solverBin); err != nil {
		return fmt.Errorf("solver binary %s is not accessible: %w", solverBin, err)
	}

	solverArgs := solverArgsAfterDashDash(cmd)

	timeoutFlag, _ := cmd.Flags().GetUint64("timeout")
	graceFlag, _ := cmd.Flags().GetUint64("grace")
	parallelFlag, _ := cmd.Flags().GetInt("parallel-jobs")
	timeout := settings.Timeout
	if timeoutFlag > 0 {
		timeout = timeoutFlag
	}
	grace := settings.Grace
	if graceFlag > 0 {
		grace = graceFlag
	}
	parallel := settings.ParallelJobs
	if parallelFlag > 0 {
		parallel = parallelFlag
	}

	var solverUUID *uuid.UUID
	if s, _ := cmd.Flags().GetString("solver-uuid"); s != "" {
		parsed, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid --solver-uuid: %w", err)
		}
		solverUUID = &parsed
	} else {
		solverUUID = settings.SolverUUID
	}

	meta, err := openMetadataStore(dir)
	if err != nil {
		return err
	}
	defer meta.Close()

	instancesFile, _ := cmd.Flags().GetString("instances")
	whereClause, _ := cmd.Flags().GetString("where")
	queue, err := buildInstanceList(cmd.Context(), meta, instancesFile, whereClause)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		return fmt.Errorf("no instances selected: pass --instances and/or --where")
	}

	sortInstances, _ := cmd.Flags().GetBool("sort-instances")
	if !sortInstances {
		rand.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
	}

	if exportOnly, _ := cmd.Flags().GetBool("export-iid-only"); exportOnly {
		for _, iid := range queue {
			fmt.Println(iid)
		}
		return nil
	}

	bodies, err := openInstanceStore(dir)
	if err != nil {
		return err
	}
	defer bodies.Close()

	origin := newOriginClient(settings)
	runUUID := uuid.New()
	workDir, err := dir.RunLogDir(settings.RunLogDir, runUUID.String())
	if err != nil {
		return err
	}

	var summary *summarylog.Logger
	summaryPath := workDir + "/summary.csv"
	summary, err = summarylog.Open(summaryPath)
	if err != nil {
		return err
	}
	defer summary.Close()

	noUpload, _ := cmd.Flags().GetBool("no-upload")
	noEnv, _ := cmd.Flags().GetBool("no-env")
	keepLogs, _ := cmd.Flags().GetBool("keep-logs-on-success")
	suboptError, _ := cmd.Flags().GetBool("suboptimal-is-error")

	// The solver always inherits the parent's environment (PATH and
	// friends); --no-env only omits the STRIDE_* instance/run variables
	// that would otherwise be layered on top of it (see pkg/job).
	baseEnv := os.Environ()

	deps := job.Deps{
		Meta:        meta,
		Bodies:      bodies,
		Origin:      origin,
		SolverPath:  solverBin,
		SolverArgs:  solverArgs,
		WorkingDir:  workDir,
		BaseEnv:     baseEnv,
		Timeout:     time.Duration(timeout) * time.Second,
		Grace:       time.Duration(grace) * time.Second,
		RunUUID:     runUUID,
		SolverUUID:  solverUUID,
		NoUpload:    noUpload,
		NoEnv:       noEnv,
		Uploader:    upload.NewClient(settings.ServerURL),
		KeepLogs:    keepLogs,
		SuboptError: suboptError,
		Logger:      log.Logger,
	}

	broker := progress.NewBroker()
	sched := scheduler.New(deps, parallel, summary, broker)

	log.Info(fmt.Sprintf("running %d instances with %d parallel jobs, run %s", len(queue), parallel, runUUID))
	failed, err := sched.Run(cmd.Context(), queue)
	if err != nil {
		return err
	}
	if failed {
		return fmt.Errorf("one or more jobs did not pass (see %s)", summaryPath)
	}
	return nil
}

// solverArgsAfterDashDash returns everything after a literal "--" on the
// command line, the way structopt's remainder-capture works in the
// original implementation.
func solverArgsAfterDashDash(cmd *cobra.Command) []string {
	idx := cmd.ArgsLenAtDash()
	raw := cmd.Flags().Args()
	if idx < 0 || idx >= len(raw) {
		return nil
	}
	return raw[idx:]
}

// maxReportedUnknownIIDs bounds how many offending ids a validation failure
// includes in its error message.
const maxReportedUnknownIIDs = 20

// buildInstanceList computes the instance queue: the set intersection of
// the --instances file and the --where predicate if both are given, else
// whichever one was given. File-sourced ids are always validated against
// the metadata store before scheduling.
func buildInstanceList(ctx context.Context, meta *metadatastore.Store, instancesFile, whereClause string) ([]ids.IID, error) {
	var fromFile, fromDB []ids.IID
	var haveFile, haveDB bool

	if instancesFile != "" {
		list, err := readInstanceListFile(instancesFile)
		if err != nil {
			return nil, err
		}
		if err := validateKnownInstances(ctx, meta, list); err != nil {
			return nil, err
		}
		fromFile = list
		haveFile = true
	}
	if whereClause != "" || !haveFile {
		list, err := meta.FetchIIDsByFilter(ctx, metadatastore.RawFilter(whereClause))
		if err != nil {
			return nil, err
		}
		fromDB = list
		haveDB = true
	}

	switch {
	case haveFile && haveDB:
		set := make(map[ids.IID]bool, len(fromDB))
		for _, iid := range fromDB {
			set[iid] = true
		}
		var out []ids.IID
		for _, iid := range fromFile {
			if set[iid] {
				out = append(out, iid)
			}
		}
		return out, nil
	case haveFile:
		return fromFile, nil
	default:
		return fromDB, nil
	}
}

// validateKnownInstances fails hard if any id in list is absent from the
// metadata store, reporting up to maxReportedUnknownIIDs offending values.
func validateKnownInstances(ctx context.Context, meta *metadatastore.Store, list []ids.IID) error {
	if len(list) == 0 {
		return nil
	}

	var clauseParts []string
	for _, iid := range list {
		clauseParts = append(clauseParts, iid.String())
	}
	filter := metadatastore.RawFilter("iid IN (" + strings.Join(clauseParts, ",") + ")")
	known, err := meta.FetchIIDsByFilter(ctx, filter)
	if err != nil {
		return fmt.Errorf("validating instance list: %w", err)
	}

	knownSet := make(map[ids.IID]bool, len(known))
	for _, iid := range known {
		knownSet[iid] = true
	}

	var unknown []string
	for _, iid := range list {
		if !knownSet[iid] {
			unknown = append(unknown, iid.String())
			if len(unknown) == maxReportedUnknownIIDs {
				break
			}
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("instance list contains unknown instance ids: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// readInstanceListFile parses one instance id per line, trimming
// whitespace and skipping blank lines and "c"-prefixed comment lines.
func readInstanceListFile(path string) ([]ids.IID, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening instance list %s: %w", path, err)
	}
	defer f.Close()

	var out []ids.IID
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		v, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid instance id %q in %s: %w", line, path, err)
		}
		out = append(out, ids.IID(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading instance list %s: %w", path, err)
	}
	return out, nil
}

// writeInstanceList writes a header comment followed by one instance id
// per line, the format readInstanceListFile accepts.
func writeInstanceList(path string, list []ids.IID) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating instance list %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "c %d Instances for stride runner\n", len(list))
	for _, iid := range list {
		fmt.Fprintln(w, iid)
	}
	return w.Flush()
}
