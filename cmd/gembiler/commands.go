package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakubdabek/gembiler/pkg/asm"
	"github.com/jakubdabek/gembiler/pkg/cache"
	"github.com/jakubdabek/gembiler/pkg/config"
	"github.com/jakubdabek/gembiler/pkg/debugger"
	gerrors "github.com/jakubdabek/gembiler/pkg/errors"
	"github.com/jakubdabek/gembiler/pkg/formatter"
	"github.com/jakubdabek/gembiler/pkg/hotreload"
	"github.com/jakubdabek/gembiler/pkg/logging"
	"github.com/jakubdabek/gembiler/pkg/metrics"
	"github.com/jakubdabek/gembiler/pkg/pipeline"
	"github.com/jakubdabek/gembiler/pkg/server"
	"github.com/jakubdabek/gembiler/pkg/tracing"
	"github.com/jakubdabek/gembiler/pkg/vm"
)

func newCompileCmd() *cobra.Command {
	var output string
	var pretty bool
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a source file to VM assembler text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			result, diags, err := compileSource(cfg, string(source))
			if err != nil {
				if diags != nil {
					fmt.Fprint(os.Stderr, diags.FormatAll())
				}
				return err
			}

			text := result.Assembly
			if pretty {
				text = formatter.Pretty(result.Instructions)
			}

			if output == "" {
				fmt.Print(text)
				return nil
			}
			return os.WriteFile(output, []byte(text), 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print with instruction indices and jump targets")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML configuration file")
	return cmd
}

func newRunCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and execute a source file against stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			result, diags, err := compileSource(cfg, string(source))
			if err != nil {
				if diags != nil {
					fmt.Fprint(os.Stderr, diags.FormatAll())
				}
				return err
			}

			machine := vm.New(result.Instructions, os.Stdin)
			runResult, err := machine.Run()
			if err != nil {
				return err
			}
			for _, v := range runResult.Output {
				fmt.Println(v)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML configuration file")
	return cmd
}

func newDisasmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm <file>",
		Short: "Pretty-print a compiled assembler file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			program, err := asm.Load(string(text))
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			fmt.Print(formatter.Pretty(program))
			return nil
		},
	}
	return cmd
}

func newWatchCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Recompile a source file on every save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			path := args[0]

			recompile := func(p string) {
				source, err := os.ReadFile(p)
				if err != nil {
					printError(err)
					return
				}
				result, diags, err := compileSource(cfg, string(source))
				if err != nil {
					if diags != nil {
						fmt.Fprint(os.Stderr, diags.FormatAll())
					}
					printError(err)
					return
				}
				fmt.Printf("recompiled %s: %d instructions\n", p, len(result.Instructions))
			}

			recompile(path)

			w, err := hotreload.New(path, 200*time.Millisecond, recompile)
			if err != nil {
				return err
			}
			defer w.Close()

			fmt.Printf("watching %s for changes (ctrl-c to stop)\n", path)
			w.Run()
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML configuration file")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a compile-cache daemon exposing /healthz and /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			c, err := cache.New(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			m := metrics.New(metrics.DefaultConfig())

			hm := server.NewHealthManager()
			hm.Register(server.NewCheckerFunc("cache", func(ctx context.Context) server.CheckResult {
				return server.CheckResult{Status: server.StatusHealthy}
			}))

			srv := server.New(addr, hm, m.Handler())
			fmt.Printf("gembiler serve listening on %s\n", addr)
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML configuration file")
	return cmd
}

func newDebugCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Step through a compiled program interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			result, diags, err := compileSource(cfg, string(source))
			if err != nil {
				if diags != nil {
					fmt.Fprint(os.Stderr, diags.FormatAll())
				}
				return err
			}

			machine := vm.New(result.Instructions, os.Stdin)
			d := debugger.New(machine)
			repl := debugger.NewREPL(d, os.Stdin, os.Stdout)
			repl.Start()
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML configuration file")
	return cmd
}

// compileSource drives pkg/pipeline.CompileContext for one CLI invocation,
// wiring up the default logger and the config's tracing toggle.
func compileSource(cfg *config.Config, source string) (*pipeline.Result, *gerrors.Diagnostics, error) {
	logLevel := logging.INFO
	if cfg.LogLevel == "debug" {
		logLevel = logging.DEBUG
	}
	format := logging.TextFormat
	if cfg.LogFormat == "json" {
		format = logging.JSONFormat
	}
	log, err := logging.New(logging.Config{MinLevel: logLevel, Format: format})
	if err != nil {
		return nil, nil, err
	}
	defer log.Close()

	provider, err := tracing.Init(tracing.Config{ServiceName: "gembiler", Enabled: cfg.TracingStage})
	if err != nil {
		return nil, nil, err
	}
	defer provider.Shutdown(context.Background())

	cc := pipeline.New(context.Background(), log, nil, provider.Tracer("gembiler"))
	result, diags, err := cc.Compile(source)
	if err != nil {
		return nil, diags, err
	}
	return result, nil, nil
}
