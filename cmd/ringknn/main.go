// Command ringknn is the per-rank driver for the ring-pipelined
// distributed k-NN classifier: it loads this rank's chunk of the data and
// labels matrices, runs the k-NN search and labeling pipelines over a
// ring transport, classifies by majority vote, optionally checks the
// result against oracle files, and optionally serves the admin surface
// for the duration of the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/classify"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/matrixio"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/pipeline"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/ring"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/verify"
	"github.com/therealutkarshpriyadarshi/ringknn/pkg/adminapi"
	"github.com/therealutkarshpriyadarshi/ringknn/pkg/config"
	"github.com/therealutkarshpriyadarshi/ringknn/pkg/observability"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ringknn v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}
	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 3 {
		showUsage()
		os.Exit(1)
	}

	cfg := config.LoadFromEnv()
	cfg.Paths.DataFile = args[0]
	cfg.Paths.LabelsFile = args[1]
	if k, err := parseK(args[2]); err == nil {
		cfg.KNN.K = k
	} else {
		log.Fatalf("invalid k %q: %v", args[2], err)
	}
	if len(args) > 3 {
		cfg.Paths.ExpectedAccuracyFile = args[3]
	}
	if len(args) > 4 {
		cfg.Paths.ExpectedIndexesFile = args[4]
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := observability.NewRankLogger(cfg.Cluster.Rank, observability.INFO, os.Stdout)
	metrics := observability.NewPipelineMetrics()
	status := adminapi.NewStatus(cfg.Cluster.Rank, cfg.Cluster.WorldSize)

	var adminRESTServer *adminapi.Server
	var adminGRPCServer *adminapi.GRPCServer
	if cfg.Admin.Enabled {
		adminRESTServer = adminapi.NewServer(cfg.Admin, status, logger)
		if err := adminRESTServer.Start(); err != nil {
			log.Fatalf("failed to start admin REST server: %v", err)
		}
		adminGRPCServer = adminapi.NewGRPCServer(cfg.Admin, status, logger)
		if err := adminGRPCServer.Start(); err != nil {
			log.Fatalf("failed to start admin gRPC server: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("received shutdown signal, requesting cooperative abort")
		status.RequestAbort()
		cancel()
	}()

	if err := run(ctx, cfg, status, metrics, logger); err != nil {
		logger.Errorf("run failed: %v", err)
		stopAdmin(adminRESTServer, adminGRPCServer)
		os.Exit(1)
	}

	stopAdmin(adminRESTServer, adminGRPCServer)
}

func run(ctx context.Context, cfg *config.Config, status *adminapi.Status, metrics *observability.PipelineMetrics, logger *observability.Logger) error {
	rank := int32(cfg.Cluster.Rank)
	world := int32(cfg.Cluster.WorldSize)

	status.SetPhase("loading")
	localData, err := matrixio.LoadChunk(cfg.Paths.DataFile, world, rank)
	if err != nil {
		return fmt.Errorf("loading data chunk: %w", err)
	}
	localLabels, err := matrixio.LoadChunk(cfg.Paths.LabelsFile, world, rank)
	if err != nil {
		return fmt.Errorf("loading labels chunk: %w", err)
	}

	t, err := buildTransport(ctx, cfg)
	if err != nil {
		return fmt.Errorf("building ring transport: %w", err)
	}
	defer t.Close()

	knnStart := time.Now()
	knns, err := pipeline.KNNSearch(ctx, t, localData, cfg.KNN.K, cfg.Cluster.WorldSize, status)
	if err != nil {
		return fmt.Errorf("knn search: %w", err)
	}
	metrics.RecordIteration("knn", time.Since(knnStart))
	logger.Infof("knn search took %v", time.Since(knnStart))

	labelStart := time.Now()
	labeled, err := pipeline.Label(ctx, t, knns, localLabels, cfg.Cluster.WorldSize, status)
	if err != nil {
		return fmt.Errorf("labeling: %w", err)
	}
	metrics.RecordIteration("labeling", time.Since(labelStart))
	logger.Infof("labeling took %v", time.Since(labelStart))

	status.SetPhase("classify")
	classifyStart := time.Now()
	predicted, err := classify.Predict(labeled)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	metrics.RecordClassify(time.Since(classifyStart), int(predicted.Rows))

	correct, total, err := verify.ComputeAccuracy(predicted, localLabels)
	if err != nil {
		return fmt.Errorf("computing accuracy: %w", err)
	}
	accuracyPct := 100 * float64(correct) / float64(total)
	logger.Infof("k=%d classification accuracy: %.1f%% (%d/%d)", cfg.KNN.K, accuracyPct, correct, total)

	accResult := verify.CheckAccuracy(accuracyPct, cfg.Paths.ExpectedAccuracyFile, 1.0)
	logger.Infof("accuracy check: %s (%s)", accResult.Status, accResult.Detail)

	idxResult := verify.CheckIndexes(knns, cfg.Paths.ExpectedIndexesFile, world, rank)
	logger.Infof("index check: %s (%s)", idxResult.Status, idxResult.Detail)

	status.SetPhase("done")

	if accResult.Status == verify.Fail || idxResult.Status == verify.Fail {
		return fmt.Errorf("oracle verification failed")
	}
	return nil
}

func buildTransport(ctx context.Context, cfg *config.Config) (ring.Transport, error) {
	if cfg.Cluster.WorldSize == 1 {
		return ring.NewChanRing(1)[0], nil
	}
	return ring.DialTCP(ctx, ring.TCPConfig{
		Rank:           cfg.Cluster.Rank,
		WorldSize:      cfg.Cluster.WorldSize,
		ListenAddr:     cfg.Cluster.ListenAddr,
		PeerAddrs:      cfg.Cluster.PeerAddrs,
		DialTimeout:    cfg.Cluster.DialTimeout,
		AcceptTimeout:  cfg.Cluster.AcceptTimeout,
		SendRatePerSec: cfg.Cluster.SendRatePerSec,
		SendBurst:      cfg.Cluster.SendBurst,
	})
}

func stopAdmin(rest *adminapi.Server, grpc *adminapi.GRPCServer) {
	if rest != nil {
		if err := rest.Stop(); err != nil {
			log.Printf("error stopping admin REST server: %v", err)
		}
	}
	if grpc != nil {
		if err := grpc.Stop(); err != nil {
			log.Printf("error stopping admin gRPC server: %v", err)
		}
	}
}

func parseK(s string) (int, error) {
	var k int
	_, err := fmt.Sscanf(s, "%d", &k)
	return k, err
}

func showUsage() {
	fmt.Println("ringknn - distributed ring-pipelined k-nearest-neighbors classifier")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ringknn <data_file> <labels_file> <k> [expected_accuracy_file [expected_indexes_file]]")
	fmt.Println()
	fmt.Println("Cluster position is taken from the environment, not flags, since every")
	fmt.Println("rank in a deployment runs the identical command line:")
	fmt.Println("  RINGKNN_RANK, RINGKNN_WORLD_SIZE, RINGKNN_LISTEN_ADDR, RINGKNN_PEERS")
	fmt.Println()
	fmt.Println("Admin surface (optional, off by default):")
	fmt.Println("  RINGKNN_ADMIN_ENABLED, RINGKNN_ADMIN_HOST, RINGKNN_ADMIN_PORT,")
	fmt.Println("  RINGKNN_ADMIN_GRPC_PORT, RINGKNN_ADMIN_JWT_SECRET")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ringknn data.bin labels.bin 5")
	fmt.Println("  RINGKNN_WORLD_SIZE=4 RINGKNN_RANK=0 RINGKNN_PEERS=h0:7001,h1:7001,h2:7001,h3:7001 \\")
	fmt.Println("    ringknn data.bin labels.bin 5 expected_accuracy.txt expected_indexes.bin")
}
