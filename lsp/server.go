// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/jsonrpc2"
)

// Server manages a single language server process over stdio, speaking
// JSON-RPC 2.0 via sourcegraph/jsonrpc2. One Server exists per
// (language, workspace root) pair; Manager owns the registry.
//
// Thread Safety: safe for concurrent use.
type Server struct {
	config   LanguageConfig
	rootPath string

	mu    sync.RWMutex
	state ServerState
	cmd   *exec.Cmd
	conn  *jsonrpc2.Conn
	caps  ServerCapabilities

	lastUsed atomic.Int64 // unix nanos
}

// NewServer creates a Server in the uninitialized state. Start must be
// called before any Request/Notify.
func NewServer(config LanguageConfig, rootPath string) *Server {
	s := &Server{
		config:   config,
		rootPath: rootPath,
		state:    ServerStateUninitialized,
	}
	s.touch()
	return s
}

func (s *Server) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// Language returns the server's language identifier.
func (s *Server) Language() string { return s.config.Language }

// RootPath returns the workspace root this server was started against.
func (s *Server) RootPath() string { return s.rootPath }

// State returns the current lifecycle state.
func (s *Server) State() ServerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastUsed returns the time of the most recent Request/Notify/Start.
func (s *Server) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Capabilities returns the capabilities advertised by the server during
// initialize. Zero value until the server reaches ServerStateReady.
func (s *Server) Capabilities() ServerCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

func (s *Server) setState(st ServerState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Start launches the server process, establishes the JSON-RPC stream and
// performs the initialize/initialized handshake. Start may only be
// attempted once per Server; a second call always fails, whether or not
// the first attempt succeeded.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("lsp: Start requires a non-nil context")
	}

	s.mu.Lock()
	if s.state != ServerStateUninitialized {
		s.mu.Unlock()
		return ErrServerAlreadyStarted
	}
	s.state = ServerStateStarting
	s.mu.Unlock()

	cmd := exec.CommandContext(context.Background(), s.config.Command, s.config.Args...)
	cmd.Dir = s.rootPath
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.setState(ServerStateStopped)
		return fmt.Errorf("lsp: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.setState(ServerStateStopped)
		return fmt.Errorf("lsp: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		s.setState(ServerStateStopped)
		return fmt.Errorf("%w: %s: %v", ErrLspUnavailable, s.config.Command, err)
	}

	stream := &stdioStream{in: stdout, out: stdin}
	conn := jsonrpc2.NewConn(context.Background(), jsonrpc2.NewBufferedStream(stream, jsonrpc2.VSCodeObjectCodec{}), noopHandler{})

	s.mu.Lock()
	s.cmd = cmd
	s.conn = conn
	s.mu.Unlock()

	params := InitializeParams{
		ProcessID: os.Getpid(),
		RootURI:   pathToURI(s.rootPath),
		Capabilities: ClientCapabilities{
			TextDocument: TextDocumentClientCapabilities{
				Definition: &DefinitionCapabilities{LinkSupport: true},
				Hover:      &HoverCapabilities{ContentFormat: []string{"markdown", "plaintext"}},
			},
		},
		InitializationOptions: s.config.InitializationOptions,
	}

	var result InitializeResult
	if err := conn.Call(ctx, "initialize", params, &result); err != nil {
		_ = conn.Close()
		_ = cmd.Process.Kill()
		s.setState(ServerStateStopped)
		return fmt.Errorf("lsp: initialize: %w", err)
	}
	if err := conn.Notify(ctx, "initialized", struct{}{}); err != nil {
		_ = conn.Close()
		_ = cmd.Process.Kill()
		s.setState(ServerStateStopped)
		return fmt.Errorf("lsp: initialized notification: %w", err)
	}

	s.mu.Lock()
	s.caps = result.Capabilities
	s.state = ServerStateReady
	s.mu.Unlock()
	s.touch()

	return nil
}

// Shutdown sends the shutdown/exit sequence and terminates the process.
// Safe to call multiple times and safe to call before Start.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == ServerStateStopped || s.state == ServerStateUninitialized {
		s.state = ServerStateStopped
		s.mu.Unlock()
		return nil
	}
	s.state = ServerStateStopping
	conn := s.conn
	cmd := s.cmd
	s.mu.Unlock()

	var shutdownErr error
	if conn != nil {
		if err := conn.Call(ctx, "shutdown", nil, nil); err != nil {
			shutdownErr = err
		}
		_ = conn.Notify(ctx, "exit", nil)
		_ = conn.Close()
	}
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}

	s.setState(ServerStateStopped)
	return shutdownErr
}

// Request sends a JSON-RPC call and decodes the raw result, returning it
// as json.RawMessage for the caller to unmarshal into a typed response.
func (s *Server) Request(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if ctx == nil {
		return nil, fmt.Errorf("lsp: Request requires a non-nil context")
	}
	s.mu.RLock()
	conn := s.conn
	ready := s.state == ServerStateReady
	s.mu.RUnlock()
	if !ready || conn == nil {
		return nil, ErrServerNotRunning
	}
	s.touch()

	var raw json.RawMessage
	if err := conn.Call(ctx, method, params, &raw); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s", ErrLspTimeout, method)
		}
		return nil, fmt.Errorf("lsp: %s: %w", method, err)
	}
	return raw, nil
}

// Notify sends a JSON-RPC notification (no response expected).
func (s *Server) Notify(method string, params interface{}) error {
	s.mu.RLock()
	conn := s.conn
	ready := s.state == ServerStateReady
	s.mu.RUnlock()
	if !ready || conn == nil {
		return ErrServerNotRunning
	}
	s.touch()
	return conn.Notify(context.Background(), method, params)
}

// noopHandler discards server-to-client requests and notifications
// (e.g. workspace/configuration, window/logMessage) CodeCanvas doesn't
// need to act on.
type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {}

// stdioStream adapts the two halves of a process's stdio pipes into a
// single io.ReadWriteCloser for jsonrpc2.NewBufferedStream.
type stdioStream struct {
	in  readCloser
	out writeCloser
}

type readCloser interface {
	Read([]byte) (int, error)
	Close() error
}

type writeCloser interface {
	Write([]byte) (int, error)
	Close() error
}

func (s *stdioStream) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *stdioStream) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *stdioStream) Close() error {
	_ = s.in.Close()
	return s.out.Close()
}
