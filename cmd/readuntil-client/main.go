// Command readuntil-client is the CLI host program for the read-until
// session façade: it dials the sequencer, drives one Run for the
// configured run_time, and feeds retrieved chunks to a placeholder
// analysis worker pool. The real decision engine is out of scope per
// spec.md §1; the workers here just demonstrate the UnblockRead/
// StopReceivingRead call sites a real engine would use.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	readuntil "readuntil-client"
	"readuntil-client/coordinator"
	"readuntil-client/logger"
	"readuntil-client/rerrors"
)

func main() {
	os.Exit(run())
}

func run() int {
	host := flag.String("host", "127.0.0.1", "sequencer host")
	port := flag.Int("port", 8000, "sequencer port")
	workers := flag.Int("workers", 4, "number of analysis worker goroutines")
	analysisDelay := flag.Duration("analysis_delay", 10*time.Millisecond, "simulated per-chunk analysis latency")
	runTime := flag.Duration("run_time", 30*time.Second, "total session duration")
	unblockDuration := flag.Duration("unblock_duration", 0, "unblock hold duration (accepted but not sent; the Action message has no field for it)")
	oneChunk := flag.Bool("one_chunk", false, "stop further data after the first chunk per read")
	minChunkSize := flag.Int("min_chunk_size", int(readuntil.DefaultMinChunkSize), "minimum chunk size requested from the sequencer")
	debug := flag.Bool("debug", false, "enable debug logging")
	verbose := flag.Bool("verbose", false, "also log each interval report with its unique-read count (the coordinator logs every report regardless)")
	flag.Parse()

	if *debug {
		os.Setenv("DEBUG", "true")
	}
	log := logger.Default

	_ = unblockDuration // accepted for CLI compatibility only; rpc.Action has no field for it, so it is not sent.

	target := fmt.Sprintf("%s:%d", *host, *port)
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Errorf("readuntil-client: dial %s: %v", target, err)
		return 1
	}
	defer conn.Close()

	onReport := func(coordinator.IntervalReport) {}
	if *verbose {
		onReport = func(r coordinator.IntervalReport) {
			log.Logf("readuntil-client: unique_reads=%d avg_samples_behind=%.1f raw_mb=%.2f cache_len=%d missed=%d replaced=%d",
				r.UniqueReads, r.AvgSamplesBehind, r.RawBytesMB, r.CacheLen, r.Missed, r.Replaced)
		}
	}

	client, err := readuntil.New(
		newDial(conn),
		&grpcClassificationSource{conn: conn},
		&grpcAcquisitionSource{conn: conn},
		readuntil.WithLogger(log),
		readuntil.WithOneChunk(*oneChunk),
		readuntil.WithOnIntervalReport(onReport),
	)
	if err != nil {
		log.Errorf("readuntil-client: %v", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	stopWorkers := make(chan struct{})
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go analysisWorker(&wg, client, stopWorkers, *analysisDelay)
	}

	err = client.Run(ctx, readuntil.RunParams{
		RunTime:      *runTime,
		MinChunkSize: int32(*minChunkSize),
	})
	close(stopWorkers)
	wg.Wait()

	if err != nil && !rerrors.Is(err, rerrors.Deadline) {
		log.Errorf("readuntil-client: session ended: %v", err)
		return 1
	}
	log.Logf("readuntil-client: session complete, missed=%d replaced=%d", client.MissedReads(), client.MissedChunks())
	return 0
}

// analysisWorker stands in for the external decision engine: it pops one
// chunk at a time, waits analysisDelay to simulate inference latency,
// then always unblocks the read. A real engine would classify the
// chunk's raw signal instead.
func analysisWorker(wg *sync.WaitGroup, client *readuntil.Client, stop <-chan struct{}, analysisDelay time.Duration) {
	defer wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		entries := client.GetReadChunks(1, false)
		if len(entries) == 0 {
			time.Sleep(time.Millisecond)
			continue
		}

		for _, entry := range entries {
			readNumber := entry.Chunk.ReadNumber
			entry.Chunk.Release()

			select {
			case <-time.After(analysisDelay):
			case <-stop:
				return
			}

			_ = client.UnblockRead(entry.Channel, readNumber)
		}
	}
}
