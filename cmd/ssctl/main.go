// Package main is the entrypoint for ssctl, a command-line client for a
// standalone MVCC state store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/apache/distributedlog-statestore/pkg/config"
	"github.com/apache/distributedlog-statestore/pkg/revision"
	"github.com/apache/distributedlog-statestore/pkg/statestore"
	"github.com/apache/distributedlog-statestore/pkg/statestore/kv"
	"github.com/apache/distributedlog-statestore/pkg/util/logutil"
	"github.com/apache/distributedlog-statestore/pkg/util/randutil"
	"github.com/apache/distributedlog-statestore/pkg/util/traceutil"
	"github.com/apache/distributedlog-statestore/pkg/util/typeutil"
)

const (
	_revisionKey = "__ssctl_revision"
	_instanceKey = "__ssctl_instance_id"
)

func main() {
	cfg, err := config.NewConfig(os.Args[1:])
	if errors.Cause(err) == pflag.ErrHelp {
		os.Exit(0)
	}

	logger := cfg.Logger()
	if logger == nil {
		var zapErr error
		logger, zapErr = zap.NewProduction()
		if zapErr != nil {
			fmt.Printf("error creating zap logger %v", zapErr)
			os.Exit(1)
		}
	}
	if err != nil {
		logger.Error("failed to parse config", zap.Error(err))
		os.Exit(1)
	}

	syncLogger := func() { _ = logger.Sync() }

	if err := cfg.Adjust(); err != nil {
		logger.Error("failed to adjust config", zap.Error(err))
		exit(1, syncLogger)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("failed to validate config", zap.Error(err))
		exit(1, syncLogger)
	}

	args := cfg.Args()
	if len(args) == 0 {
		fmt.Println("usage: ssctl [flags] <put|get|range|delete> ...")
		exit(1, syncLogger)
	}

	store, err := statestore.NewStore[string, string](kv.NewBoltWithTimeout(cfg.EngineOpenTimeout.Duration), statestore.Spec[string, string]{
		Name:               cfg.Name,
		KeyCoder:           statestore.StringCoder{},
		ValCoder:           statestore.StringCoder{},
		LocalStateStoreDir: cfg.DataDir,
		Stream:             cfg.Stream,
		Logger:             logger,
		MetricsEnabled:     cfg.MetricsEnabled,
	})
	if err != nil {
		logger.Error("failed to build store", zap.Error(err))
		exit(1, syncLogger)
	}
	if err := store.Init(); err != nil {
		logger.Error("failed to open store", zap.Error(err))
		exit(1, syncLogger)
	}

	revEngine := kv.NewBoltWithTimeout(cfg.EngineOpenTimeout.Duration)
	if err := revEngine.Open(cfg.DataDir + ".rev"); err != nil {
		logger.Error("failed to open revision allocator engine", zap.Error(err))
		store.Close()
		exit(1, syncLogger)
	}
	instanceID, err := initOrGetInstanceID(revEngine)
	if err != nil {
		logger.Error("failed to init instance ID", zap.Error(err))
		_ = revEngine.Close()
		store.Close()
		exit(1, syncLogger)
	}
	logger = logger.With(zap.Uint64("instance-id", instanceID))

	allocator := revision.Logger{LogAble: revision.NewBoltAllocator(&revision.BoltAllocatorParam{
		Engine: revEngine,
		Key:    _revisionKey,
	}, logger)}

	ctx, cancel := context.WithCancel(context.Background())
	ctx = traceutil.SetTraceID(ctx, traceutil.NewTraceID())
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sc
		cancel()
	}()

	cmdErr := run(ctx, store, allocator, args)

	_ = revEngine.Close()
	closeErr := store.Close()

	if cmdErr != nil {
		logger.Error("command failed", zap.Error(cmdErr))
		exit(1, syncLogger)
	}
	if closeErr != nil {
		logger.Error("failed to close store", zap.Error(closeErr))
		exit(1, syncLogger)
	}
	exit(0, syncLogger)
}

// initOrGetInstanceID reads the persisted instance ID from eng, generating
// and persisting a fresh random one on first run.
func initOrGetInstanceID(eng kv.Engine) (uint64, error) {
	raw, found, err := eng.Get([]byte(_instanceKey))
	if err != nil {
		return 0, errors.Wrap(err, "get instance ID")
	}
	if found {
		return typeutil.BytesToUint64(raw)
	}

	id, err := randutil.Uint64()
	if err != nil {
		return 0, errors.Wrap(err, "generate random instance ID")
	}
	batch := kv.NewBatch()
	batch.Put([]byte(_instanceKey), typeutil.Uint64ToBytes(id))
	if err := eng.Write(batch); err != nil {
		return 0, errors.Wrap(err, "persist instance ID")
	}
	return id, nil
}

func run(ctx context.Context, store *statestore.Store[string, string], allocator revision.Logger, args []string) error {
	defer logutil.LogPanic(allocator.Logger())

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "put":
		return runPut(ctx, store, allocator, rest)
	case "get":
		return runGet(store, rest)
	case "range":
		return runRange(store, rest)
	case "delete":
		return runDelete(ctx, store, allocator, rest)
	default:
		return errors.Errorf("unknown command %q", cmd)
	}
}

func runPut(ctx context.Context, store *statestore.Store[string, string], allocator revision.Logger, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: put <key> <value>")
	}
	rev, err := allocator.Alloc(ctx)
	if err != nil {
		return errors.Wrap(err, "allocate revision")
	}
	op, err := store.OpFactory().NewPutOp().Key(args[0]).Value(args[1]).Revision(int64(rev)).PrevKV(true).Build()
	if err != nil {
		return err
	}
	result, err := store.Put(op)
	if err != nil {
		return err
	}
	defer result.Recycle()
	fmt.Printf("code=%s revision=%d\n", result.Code(), result.Revision)
	return nil
}

func runGet(store *statestore.Store[string, string], args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get <key>")
	}
	op, err := store.OpFactory().NewRangeOp().NullableKey(args[0], true).Build()
	if err != nil {
		return err
	}
	result, err := store.Range(op)
	if err != nil {
		return err
	}
	defer result.Recycle()
	if result.Count == 0 {
		fmt.Println("not found")
		return nil
	}
	rec := result.KVs[0]
	fmt.Printf("%s=%s create_rev=%d mod_rev=%d version=%d\n", rec.Key, rec.Value, rec.CreateRev, rec.ModRev, rec.Version)
	return nil
}

func runRange(store *statestore.Store[string, string], args []string) error {
	if len(args) != 2 {
		return errors.New("usage: range <start-key> <end-key>")
	}
	op, err := store.OpFactory().NewRangeOp().
		NullableKey(args[0], true).
		NullableEndKey(args[1], true).
		IsRangeOp(true).
		Build()
	if err != nil {
		return err
	}
	result, err := store.Range(op)
	if err != nil {
		return err
	}
	defer result.Recycle()
	for _, rec := range result.KVs {
		fmt.Printf("%s=%s create_rev=%d mod_rev=%d version=%d\n", rec.Key, rec.Value, rec.CreateRev, rec.ModRev, rec.Version)
	}
	fmt.Printf("count=%d has_more=%t\n", result.Count, result.HasMore)
	return nil
}

func runDelete(ctx context.Context, store *statestore.Store[string, string], allocator revision.Logger, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete <key>")
	}
	rev, err := allocator.Alloc(ctx)
	if err != nil {
		return errors.Wrap(err, "allocate revision")
	}
	op, err := store.OpFactory().NewDeleteOp().NullableKey(args[0], true).Revision(int64(rev)).PrevKV(true).Build()
	if err != nil {
		return err
	}
	result, err := store.Delete(op)
	if err != nil {
		return err
	}
	defer result.Recycle()
	fmt.Printf("code=%s num_deleted=%d\n", result.Code(), result.NumDeleted)
	return nil
}

func exit(code int, deferred func()) {
	deferred()
	os.Exit(code)
}
