// Command admissiond wires a transaction admission processor against its
// reference collaborators (all in memory except the LevelDB chain database)
// and serves its Prometheus metrics over HTTP. It exists to demonstrate the wiring; production nodes embed
// pkg/core/admission directly alongside their own mempool, wallet and chain
// implementations.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/relaychain/txadmission/pkg/core/admission"
	"github.com/relaychain/txadmission/pkg/core/broadcast"
	"github.com/relaychain/txadmission/pkg/core/chain"
	"github.com/relaychain/txadmission/pkg/core/data/transactions"
	"github.com/relaychain/txadmission/pkg/core/feepolicy"
	"github.com/relaychain/txadmission/pkg/core/handlers"
	"github.com/relaychain/txadmission/pkg/core/mempool"
	"github.com/relaychain/txadmission/pkg/core/wallet"
)

var (
	configPath = flag.String("config", "", "path to an admission.toml settings file")
	listenAddr = flag.String("listen", "0.0.0.0:9090", "address to serve /metrics on")
	chainDBDir = flag.String("chaindb", "", "directory for the forged-transaction-id database (default: temp dir)")
)

func main() {
	defer handlePanic()
	flag.Parse()

	cfg, err := admission.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("loading admission config")
	}

	dbDir := *chainDBDir
	if dbDir == "" {
		dir, err := os.MkdirTemp("", "admissiond-chain")
		if err != nil {
			log.WithError(err).Fatal("creating chain database directory")
		}
		dbDir = dir
	}

	chainDB, err := chain.NewDatabase(dbDir)
	if err != nil {
		log.WithError(err).Fatal("opening chain database")
	}
	defer chainDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registerer := prometheus.NewRegistry()

	proc := admission.New(ctx, cfg, admission.Collaborators{
		Mempool:    mempool.New(50000, 256),
		Wallets:    wallet.New(),
		Chain:      chainDB,
		Handlers:   handlers.NewRegistry(),
		Fees:       feepolicy.New(1, 1),
		Peers:      broadcast.NewMonitor(),
		Decoder:    transactions.NewCodec(),
		Verifier:   transactions.SignatureVerifier{},
		Limiter:    admission.NewSenderCountLimiter(64),
		Registerer: registerer,
	})
	defer proc.Shutdown()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registerer, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: *listenAddr, Handler: mux}
	go func() {
		log.WithField("addr", *listenAddr).Info("serving metrics")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("metrics server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	_ = server.Close()
}

func handlePanic() {
	if r := recover(); r != nil {
		_, _ = fmt.Fprintln(os.Stderr, fmt.Errorf("%+v", r), "admissiond panic")
	}
}
