package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"evalgo.org/maestro/internal/api"
	"evalgo.org/maestro/internal/appfile"
	"evalgo.org/maestro/internal/launcher"
)

var runDetach bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the application locally",
	Long: `Run the application graph on the local machine: containers through
Docker, executables and projects as local processes. Endpoints are
allocated on the configured host, and resources start in dependency
order. The session stops on Ctrl-C unless --detach is given.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDetach, "detach", false, "leave resources running after launch")
}

func runRun(cmd *cobra.Command, args []string) error {
	builder, err := appfile.LoadFile(appFile)
	if err != nil {
		return err
	}

	docker, err := launcher.NewDockerClient(cfg.Launcher.DockerSocket)
	if err != nil {
		return err
	}

	l := launcher.New(docker, launcher.NewOSProcessRunner())
	opts := launcher.Options{
		Application:     builder.Name(),
		Host:            cfg.Launcher.Host,
		BasePort:        cfg.Launcher.BasePort,
		Network:         cfg.Launcher.Network,
		PullImages:      true,
		StartTimeout:    cfg.Launcher.StartTimeout,
		StopTimeout:     cfg.Launcher.StopTimeout,
		RollbackOnError: cfg.Launcher.RollbackOnError,
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	var server *api.Server
	if cfg.API.Enabled {
		server = api.New(cfg, builder.Name(), builder.Resources())
		l.Notifier = server.Notify

		go func() {
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			}
		}()
		fmt.Printf("Inspection API on http://%s:%d\n", cfg.API.Host, cfg.API.Port)
	}

	state, err := l.Launch(ctx, builder.Resources(), cfg.ParameterValues(), opts)
	if server != nil {
		server.SetState(state)
	}
	if err != nil {
		return fmt.Errorf("launch failed: %w", err)
	}

	fmt.Printf("Application %s is running (%d resource(s))\n", builder.Name(), len(state.Placements))
	for name, placement := range state.Placements {
		for endpoint, url := range placement.Endpoints {
			fmt.Printf("  %s/%s: %s\n", name, endpoint, url)
		}
	}

	if runDetach {
		return nil
	}

	<-ctx.Done()
	fmt.Println("\nShutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Launcher.StopTimeout)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(stopCtx); err != nil {
			fmt.Fprintf(os.Stderr, "API shutdown error: %v\n", err)
		}
	}
	return l.Stop(stopCtx, state, opts)
}
