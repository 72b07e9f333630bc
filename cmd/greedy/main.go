// Command greedy is the bundled reference solver: reads a PACE instance on
// stdin, writes a dominating set to stdout. Its flags intentionally let a
// test harness simulate a misbehaving solver (wrong cardinality, infeasible
// output, sleeping, ignoring SIGTERM) to exercise the executor's timeout
// and verification paths.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/stride/internal/greedy"
	"github.com/cuemby/stride/pkg/pace"
)

func main() {
	addComment := flag.Bool("c", false, "emit a comment line before the result")
	wrongCardinality := flag.Int("w", 0, "lie about the reported cardinality by this delta")
	infeasible := flag.Bool("i", false, "truncate the dominating set so it is no longer feasible")
	sleepSeconds := flag.Int("s", 0, "sleep this many seconds before computing")
	waitSigterm := flag.Bool("t", false, "on SIGTERM, exit cleanly instead of running to completion")
	neverTerminate := flag.Bool("n", false, "ignore SIGTERM and never exit on its own")
	emptyLines := flag.Bool("e", false, "interleave blank lines into the output")
	flag.Parse()

	if *neverTerminate {
		signal.Ignore(syscall.SIGTERM)
	} else if *waitSigterm {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM)
		go func() {
			<-sigCh
			os.Exit(0)
		}()
	}

	if *sleepSeconds > 0 {
		time.Sleep(time.Duration(*sleepSeconds) * time.Second)
	}

	numNodes, edges, err := pace.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		fmt.Fprintln(os.Stderr, "greedy: reading instance:", err)
		os.Exit(1)
	}

	greedyEdges := make([][2]uint32, len(edges))
	for i, e := range edges {
		greedyEdges[i] = [2]uint32{e.U, e.V}
	}
	result := greedy.Solve(numNodes, greedyEdges)

	if *infeasible && len(result) > 0 {
		result = result[:len(result)-1]
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	if *addComment {
		fmt.Fprintln(w, "c greedy reference solver")
	}

	reportedCardinality := len(result) + *wrongCardinality
	fmt.Fprintln(w, reportedCardinality)
	if *emptyLines {
		fmt.Fprintln(w)
	}
	for _, n := range result {
		fmt.Fprintln(w, n)
		if *emptyLines {
			fmt.Fprintln(w)
		}
	}

	if *neverTerminate {
		w.Flush()
		for {
			time.Sleep(time.Hour)
		}
	}
}
