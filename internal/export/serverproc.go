package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
	"git.home.luguber.info/inful/scholarsite/internal/retry"
)

var errServerExited = errors.New("server process exited before becoming ready")

var pingClient = &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

// ServerProcess owns the site server used during an export. If a server is
// already answering at the base URL it is reused and never stopped.
type ServerProcess struct {
	BaseURL string
	Command []string
	Policy  retry.Policy
	// Output receives the child's stdout and stderr; nil means os.Stderr.
	Output io.Writer
	// StartupTimeout bounds the whole readiness wait; zero leaves it to Policy.
	StartupTimeout time.Duration
	// PingTimeout bounds each readiness probe.
	PingTimeout time.Duration
	// StopTimeout bounds the wait after the interrupt before the child is killed.
	StopTimeout time.Duration
	Logger      *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	owned   bool
	stopped bool
}

const defaultPingTimeout = time.Second

// NewServerProcess returns a process manager whose readiness wait, probes
// included, ends within startup.
func NewServerProcess(baseURL string, command []string, startup time.Duration, logger *slog.Logger) *ServerProcess {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerProcess{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		Command:        command,
		Policy:         retry.WithinBudget(200*time.Millisecond, defaultPingTimeout, startup),
		StartupTimeout: startup,
		PingTimeout:    defaultPingTimeout,
		StopTimeout:    5 * time.Second,
		Logger:         logger,
	}
}

// Owned reports whether Start launched the process.
func (p *ServerProcess) Owned() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.owned
}

// Start reuses a running server or launches one and waits for it to answer.
// Callers must defer Stop even when Start fails.
func (p *ServerProcess) Start(ctx context.Context) error {
	if p.ping(ctx) == nil {
		p.Logger.Info("Reusing running server", "url", p.BaseURL)
		return nil
	}
	if len(p.Command) == 0 {
		return ferrors.RuntimeError("no server command configured").Build()
	}
	if err := p.Policy.Validate(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid server readiness policy").Build()
	}

	// #nosec G204 -- the server command comes from configuration
	cmd := exec.Command(p.Command[0], p.Command[1:]...)
	out := p.Output
	if out == nil {
		out = os.Stderr
	}
	cmd.Stdout = out
	cmd.Stderr = out

	p.mu.Lock()
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to launch server").
			WithContext("command", strings.Join(p.Command, " ")).Fatal().Build()
	}
	p.cmd = cmd
	p.owned = true
	p.done = make(chan struct{})
	done := p.done
	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(done)
	}()
	p.mu.Unlock()

	p.Logger.Info("Launched server", "pid", cmd.Process.Pid, "command", strings.Join(p.Command, " "))

	waitCtx := ctx
	if p.StartupTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.StartupTimeout)
		defer cancel()
	}
	err := p.Policy.Do(waitCtx, func(ctx context.Context) error {
		select {
		case <-done:
			return retry.Permanent(errServerExited)
		default:
		}
		return p.ping(ctx)
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "server did not become ready").
			WithContext("url", p.BaseURL).Fatal().Build()
	}
	p.Logger.Info("Server ready", "url", p.BaseURL)
	return nil
}

func (p *ServerProcess) ping(ctx context.Context) error {
	timeout := p.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := pingClient.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// Stop interrupts an owned server and waits for it to exit, killing it after
// StopTimeout. Stop is idempotent and a no-op for reused servers.
func (p *ServerProcess) Stop() error {
	p.mu.Lock()
	if p.stopped || !p.owned || p.cmd == nil {
		p.stopped = true
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	proc := p.cmd.Process
	done := p.done
	p.mu.Unlock()

	select {
	case <-done:
		return nil
	default:
	}

	if runtime.GOOS == "windows" {
		_ = proc.Kill()
	} else if err := proc.Signal(os.Interrupt); err != nil {
		_ = proc.Kill()
	}

	timeout := p.StopTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		p.Logger.Warn("Server did not exit after interrupt, killing", "pid", proc.Pid)
		if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("kill server: %w", err)
		}
		<-done
	}
	p.mu.Lock()
	exitErr := p.waitErr
	p.mu.Unlock()
	p.Logger.Info("Server stopped", "pid", proc.Pid, "exit", fmt.Sprint(exitErr))
	return nil
}
