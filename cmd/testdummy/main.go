// Command testdummy is a minimal controllable process for exercising the
// executor's normal-exit, clean-shutdown-on-SIGTERM, and SIGKILL-required
// code paths without depending on a real solver binary.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	sleepSeconds := flag.Int("s", 0, "sleep this many seconds before exiting")
	waitSigterm := flag.Bool("t", false, "exit 0 as soon as SIGTERM is received")
	neverTerminate := flag.Bool("n", false, "ignore SIGTERM and spin forever")
	flag.Parse()

	if *neverTerminate {
		signal.Ignore(syscall.SIGTERM)
		for {
			time.Sleep(time.Hour)
		}
	}
	if *waitSigterm {
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
	fmt.Println("1")
	fmt.Println("1")
}
