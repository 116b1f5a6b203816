package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/citadel-abi/abi"
	"github.com/wippyai/citadel-abi/config"
	"github.com/wippyai/citadel-abi/inspect"
	"github.com/wippyai/citadel-abi/logging"
	"github.com/wippyai/citadel-abi/wasmhost"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to a TOML or YAML config file")
		inspectStr  = flag.String("inspect", "", "Bech32 string to inspect")
		serve       = flag.Bool("serve", false, "Run the relay gRPC server and the metrics endpoint")
		grpcAddr    = flag.String("grpc", "", "Relay listen address (overrides serve.grpc_addr)")
		httpAddr    = flag.String("http", "", "Metrics listen address (overrides serve.http_addr)")
		wasmFile    = flag.String("wasm", "", "Guest module linked against the citadel host module")
		funcName    = flag.String("func", "run", "Guest function to call with -wasm")
		interactive = flag.Bool("i", false, "Interactive bech32 inspector")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail(err)
	}
	if *grpcAddr != "" {
		cfg.Serve.GRPCAddr = *grpcAddr
	}
	if *httpAddr != "" {
		cfg.Serve.HTTPAddr = *httpAddr
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fail(err)
	}
	defer func() { _ = log.Sync() }()
	abi.SetLogger(log)

	switch {
	case *interactive:
		err = runInteractive()
	case *inspectStr != "":
		err = printInspect(*inspectStr)
	case *serve:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err = runServer(ctx, cfg, log)
	case *wasmFile != "":
		err = runGuest(cfg, log, *wasmFile, *funcName)
	default:
		fmt.Fprintln(os.Stderr, "Usage: citadel [-config file] -inspect <bech32>")
		fmt.Fprintln(os.Stderr, "       citadel [-config file] -serve [-grpc addr] [-http addr]")
		fmt.Fprintln(os.Stderr, "       citadel [-config file] -wasm <guest.wasm> [-func name]")
		fmt.Fprintln(os.Stderr, "       citadel -i  (interactive mode)")
		os.Exit(1)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printInspect(s string) error {
	info := inspect.Inspect(s)
	out, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	fmt.Println(string(out))
	if info.Status != inspect.StatusOK {
		return fmt.Errorf("inspect: %s", info.Status)
	}
	return nil
}

// runGuest instantiates a guest module against a fresh boundary and calls
// one of its exports with no arguments.
func runGuest(cfg config.Config, log *zap.Logger, path, fn string) error {
	ctx := context.Background()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	b, err := abi.New(cfg, abi.WithLogger(log))
	if err != nil {
		return err
	}
	defer b.Close()

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	if _, err := wasmhost.New(b, wasmhost.WithLogger(log)).Instantiate(ctx, r); err != nil {
		return err
	}
	mod, err := r.Instantiate(ctx, data)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	f := mod.ExportedFunction(fn)
	if f == nil {
		return fmt.Errorf("guest does not export %q", fn)
	}
	if n := len(f.Definition().ParamTypes()); n != 0 {
		return fmt.Errorf("%s takes %d parameters; only nullary functions can be called", fn, n)
	}

	fmt.Printf("Calling %s()...\n", fn)
	results, err := f.Call(ctx)
	if err != nil {
		return fmt.Errorf("call %s: %w", fn, err)
	}
	fmt.Printf("Result: %v\n", results)
	fmt.Printf("Live handles: %d\n", b.Registry().Len())
	return nil
}
