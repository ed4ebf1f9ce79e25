package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mshaverdo/assert"
	"github.com/mshaverdo/keelhaul/internal/aof"
	"github.com/mshaverdo/keelhaul/internal/logutil"
	"github.com/mshaverdo/keelhaul/internal/metrics"
	"github.com/mshaverdo/keelhaul/internal/persistence"
	"github.com/mshaverdo/keelhaul/internal/replication"
	"github.com/mshaverdo/keelhaul/internal/server"
	"github.com/mshaverdo/keelhaul/internal/store"
)

var assertionEnabled = "1"

func init() {
	assert.Enabled = assertionEnabled == "1"
}

func main() {
	var (
		host, dataDir     string
		port, replPort    int
		aofEnabled        bool
		aofFile           string
		aofFsync          string
		rdbEnabled        bool
		rdbFile           string
		saveRules         string
		requirePass       string
		replicaOf         string
		maxMemory         int64
		maxClients        int
		vectorDim         int
		sweepInterval     int
		saveCheckInterval int
		quiet, verbose    bool
		veryVerbose       bool
	)

	flag.StringVar(&host, "h", "", "The listening host.")
	flag.IntVar(&port, "p", 6380, "The listening port for client connections.")
	flag.IntVar(&replPort, "replication-port", 6381, "The listening port for replica handshakes (primary role only).")
	flag.StringVar(&dataDir, "d", "./", "Data dir.")
	flag.BoolVar(&aofEnabled, "aof-enabled", true, "Enable the append-only file.")
	flag.StringVar(&aofFile, "aof-file", "keelhaul.aof", "AOF file name, relative to the data dir.")
	flag.StringVar(&aofFsync, "aof-fsync", "everysec", "AOF fsync policy: always, everysec, no.")
	flag.BoolVar(&rdbEnabled, "rdb-enabled", true, "Enable RDB snapshotting.")
	flag.StringVar(&rdbFile, "rdb-file", "keelhaul.rdb", "RDB file name, relative to the data dir.")
	flag.StringVar(&saveRules, "save-rules", "1000,60;10000,300", "Semicolon-separated changes,seconds RDB save triggers.")
	flag.StringVar(&requirePass, "requirepass", "", "Password required of clients; empty disables auth.")
	flag.StringVar(&replicaOf, "replicaof", "", "host:port of a primary to follow; empty means run as primary.")
	flag.Int64Var(&maxMemory, "max-memory", 0, "Heap bytes above which mutators are rejected; 0 disables the cap.")
	flag.IntVar(&maxClients, "max-clients", 0, "Maximum concurrent client connections; 0 means unlimited.")
	flag.IntVar(&vectorDim, "vector-dim", 0, "Fixed vector dimension for VECADD; 0 means unconstrained.")
	flag.IntVar(&sweepInterval, "expire-interval", 1, "Active expiration sweep interval in seconds.")
	flag.IntVar(&saveCheckInterval, "save-check-interval", 5, "How often to check RDB save rules, in seconds.")
	flag.BoolVar(&verbose, "v", false, "Enable verbose logging.")
	flag.BoolVar(&veryVerbose, "vv", false, "Enable very verbose logging.")
	flag.BoolVar(&quiet, "q", false, "Quiet logging. Totally silent.")
	flag.Parse()

	switch {
	case veryVerbose:
		logutil.SetLevel(logutil.DEBUG)
	case verbose:
		logutil.SetLevel(logutil.INFO)
	case quiet:
		logutil.SetLevel(-1)
	default:
		logutil.SetLevel(logutil.NOTICE)
	}

	fsyncPolicy, err := parseFsyncPolicy(aofFsync)
	if err != nil {
		logutil.Criticalf("%s", err)
		os.Exit(1)
	}
	rules, err := parseSaveRules(saveRules)
	if err != nil {
		logutil.Criticalf("%s", err)
		os.Exit(1)
	}

	st := store.New(vectorDim)
	coll := metrics.New()

	persistCfg := persistence.Config{
		AOFEnabled: aofEnabled,
		AOFPath:    dataDir + "/" + aofFile,
		AOFFsync:   fsyncPolicy,
		RDBEnabled: rdbEnabled,
		RDBPath:    dataDir + "/" + rdbFile,
		SaveRules:  rules,
	}
	persist := persistence.New(persistCfg, st)

	dispatcher := &server.Dispatcher{
		Store:       st,
		Metrics:     coll,
		Persist:     persist,
		RequirePass: requirePass,
		MaxMemory:   maxMemory,
	}

	if err := persist.Recover(dispatcher); err != nil {
		logutil.Criticalf("recovering persisted state: %s", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var primary *replication.Primary
	var isReplica bool
	if replicaOf == "" {
		primary = replication.NewPrimary(st)
		dispatcher.Replicate = primary.Propagate
		go func() {
			addr := fmt.Sprintf("%s:%d", host, replPort)
			if err := primary.ListenAndServe(addr); err != nil {
				logutil.Errorf("replication: listener on %s stopped: %s", addr, err)
			}
		}()
	} else {
		isReplica = true
		follower := replication.NewFollower(replicaOf, port, st, dispatcher)
		go follower.Run(ctx)
	}
	dispatcher.IsReplica = func() bool { return isReplica }

	go st.RunSweeper(ctx, time.Duration(sweepInterval)*time.Second, func(sampled, expired int) {
		if expired > 0 {
			coll.RecordExpired(expired)
		}
	})
	go persist.RunSaveLoop(ctx, time.Duration(saveCheckInterval)*time.Second)

	resp := server.New(host, port, dispatcher)
	resp.MaxClients = maxClients

	go handleSignals(cancel, resp, persist)

	logutil.Noticef("keelhaul listening on %s:%d", host, port)
	if err := resp.ListenAndServe(); err != nil {
		logutil.Criticalf("%s", err)
		os.Exit(1)
	}
}

func handleSignals(cancel context.CancelFunc, resp *server.RespServer, persist *persistence.Manager) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs
	logutil.Noticef("shutting down")
	cancel()
	resp.Shutdown()
	if err := persist.Close(); err != nil {
		logutil.Errorf("closing persistence: %s", err)
	}
}

func parseFsyncPolicy(s string) (aof.FsyncPolicy, error) {
	switch strings.ToLower(s) {
	case "always":
		return aof.FsyncAlways, nil
	case "everysec":
		return aof.FsyncEverysec, nil
	case "no", "never":
		return aof.FsyncNever, nil
	default:
		return 0, fmt.Errorf("unknown aof-fsync policy %q", s)
	}
}

// parseSaveRules parses the "changes,seconds;changes,seconds" CLI format
// into persistence.SaveRule values.
func parseSaveRules(s string) ([]persistence.SaveRule, error) {
	if s == "" {
		return nil, nil
	}
	var rules []persistence.SaveRule
	for _, tok := range strings.Split(s, ";") {
		parts := strings.Split(tok, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed save rule %q", tok)
		}
		changes, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed save rule %q: %w", tok, err)
		}
		seconds, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed save rule %q: %w", tok, err)
		}
		rules = append(rules, persistence.SaveRule{Changes: changes, Seconds: time.Duration(seconds) * time.Second})
	}
	return rules, nil
}
