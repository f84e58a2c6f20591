package connection

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

const processLogPrefix = "connection:process"

// proxyProcess is a proxy launched by this library.
type proxyProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// startProxy launches binary and waits until proxyURL accepts TCP
// connections, the process exits, or ctx ends.
func startProxy(ctx context.Context, binary string, args []string, proxyURL string) (*proxyProcess, error) {
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%s - invalid proxy URL %q", processLogPrefix, proxyURL)
	}

	cmd := exec.Command(binary, args...)
	cmd.Stdout = &logWriter{level: slog.LevelDebug}
	cmd.Stderr = &logWriter{level: slog.LevelWarn}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s - failed to start %s: %w", processLogPrefix, binary, err)
	}
	slog.Info(fmt.Sprintf("%s - started proxy %s (pid %d)", processLogPrefix, binary, cmd.Process.Pid))

	p := &proxyProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		slog.Info(fmt.Sprintf("%s - proxy pid %d exited: %v", processLogPrefix, cmd.Process.Pid, p.err))
		close(p.done)
	}()

	if err := p.waitReady(ctx, u.Host); err != nil {
		p.stop()
		return nil, err
	}
	return p, nil
}

func (p *proxyProcess) waitReady(ctx context.Context, host string) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		conn, err := net.DialTimeout("tcp", host, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		select {
		case <-p.done:
			return fmt.Errorf("%s - proxy exited before accepting connections: %v", processLogPrefix, p.err)
		case <-ctx.Done():
			return fmt.Errorf("%s - proxy not ready at %s: %w", processLogPrefix, host, ctx.Err())
		case <-ticker.C:
		}
	}
}

// stop kills the process if it is still running and waits for it to exit.
func (p *proxyProcess) stop() {
	select {
	case <-p.done:
		return
	default:
	}
	if err := p.cmd.Process.Kill(); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to kill proxy pid %d: %v", processLogPrefix, p.cmd.Process.Pid, err))
	}
	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
		slog.Warn(fmt.Sprintf("%s - proxy pid %d did not exit after kill", processLogPrefix, p.cmd.Process.Pid))
	}
}

// logWriter forwards the proxy's output to slog one line at a time.
type logWriter struct {
	level slog.Level
	buf   []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(w.buf[:i]), "\r")
		w.buf = w.buf[i+1:]
		if line != "" {
			slog.Log(context.Background(), w.level, fmt.Sprintf("%s - proxy: %s", processLogPrefix, line))
		}
	}
	return len(p), nil
}
