package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"evalgo.org/maestro/internal/launchprofile"
	"evalgo.org/maestro/internal/resolve"
	"evalgo.org/maestro/models"
)

// ProcessSpec describes a local process to start.
type ProcessSpec struct {
	// Command is the program to run.
	Command string

	// Args are the program arguments.
	Args []string

	// WorkingDirectory is the process working directory. Empty inherits
	// the launcher's.
	WorkingDirectory string

	// Env is the extra environment in KEY=value form, appended to the
	// launcher's own environment.
	Env []string
}

// ProcessRunner starts and stops local processes.
type ProcessRunner interface {
	// Start launches the process and returns its PID.
	Start(ctx context.Context, spec ProcessSpec) (int, error)

	// Stop terminates a process previously started by this runner.
	Stop(pid int) error
}

// OSProcessRunner runs processes on the local machine.
type OSProcessRunner struct {
	mu    sync.Mutex
	procs map[int]*exec.Cmd
}

// NewOSProcessRunner creates a runner for local processes.
func NewOSProcessRunner() *OSProcessRunner {
	return &OSProcessRunner{procs: make(map[int]*exec.Cmd)}
}

// Start launches the process detached from the launch context: a launch
// timeout must not kill resources that already started.
func (r *OSProcessRunner) Start(ctx context.Context, spec ProcessSpec) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.WorkingDirectory
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid := cmd.Process.Pid
	r.mu.Lock()
	r.procs[pid] = cmd
	r.mu.Unlock()

	// Reap the process when it exits.
	go func() {
		_ = cmd.Wait()
		r.mu.Lock()
		delete(r.procs, pid)
		r.mu.Unlock()
	}()

	return pid, nil
}

// Stop sends SIGTERM to a tracked process. Stopping an already-exited
// process is not an error.
func (r *OSProcessRunner) Stop(pid int) error {
	r.mu.Lock()
	cmd, ok := r.procs[pid]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if err == os.ErrProcessDone {
			return nil
		}
		return fmt.Errorf("failed to signal process %d: %w", pid, err)
	}
	return nil
}

// processSpec builds the process invocation for an executable or project
// resource.
func processSpec(r *models.Resource, env []resolve.EnvVar, args []string) (ProcessSpec, error) {
	switch r.Kind {
	case models.KindExecutable:
		ann, ok := models.LastAnnotation[*models.ExecutableAnnotation](r)
		if !ok {
			return ProcessSpec{}, fmt.Errorf("resource %s has no executable command", r.Name)
		}
		return ProcessSpec{
			Command:          ann.Command,
			Args:             args,
			WorkingDirectory: ann.WorkingDirectory,
			Env:              envStrings(env),
		}, nil

	case models.KindProject:
		ann, ok := models.LastAnnotation[*models.ProjectAnnotation](r)
		if !ok {
			return ProcessSpec{}, fmt.Errorf("resource %s has no project path", r.Name)
		}
		return projectSpec(r, ann.Path, env, args)
	}
	return ProcessSpec{}, fmt.Errorf("resource kind %s is not a process", r.Kind)
}

// projectSpec runs a project through its runtime host. Launch profile
// environment applies first so resolved values win on conflict, and the
// server listens on the resource's allocated http(s) endpoints.
func projectSpec(r *models.Resource, projectPath string, env []resolve.EnvVar, args []string) (ProcessSpec, error) {
	var processEnv []string

	settings, err := launchprofile.Load(r.Name, projectPath)
	if err != nil {
		return ProcessSpec{}, err
	}
	if settings != nil {
		if _, profile, ok := settings.DefaultProfile(); ok {
			for k, v := range profile.EnvironmentVariables {
				processEnv = append(processEnv, fmt.Sprintf("%s=%s", k, v))
			}
		}
	}

	if urls := serverURLs(r); urls != "" {
		processEnv = append(processEnv, "ASPNETCORE_URLS="+urls)
	}
	processEnv = append(processEnv, envStrings(env)...)

	runArgs := append([]string{"run", "--project", projectPath, "--no-launch-profile"}, args...)
	return ProcessSpec{
		Command: "dotnet",
		Args:    runArgs,
		Env:     processEnv,
	}, nil
}

// serverURLs renders the listen addresses for a project's allocated http and
// https endpoints, semicolon separated.
func serverURLs(r *models.Resource) string {
	var urls string
	for _, ep := range r.Endpoints() {
		if ep.Scheme != "http" && ep.Scheme != "https" {
			continue
		}
		alloc, ok := ep.Allocated()
		if !ok {
			continue
		}
		host := alloc.Host
		if ep.TargetHostWildcard {
			host = "*"
		}
		url := fmt.Sprintf("%s://%s:%d", ep.Scheme, host, alloc.Port)
		if urls == "" {
			urls = url
		} else {
			urls += ";" + url
		}
	}
	return urls
}

func envStrings(env []resolve.EnvVar) []string {
	out := make([]string, 0, len(env))
	for _, e := range env {
		out = append(out, fmt.Sprintf("%s=%s", e.Name, e.Value))
	}
	return out
}
