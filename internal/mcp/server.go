package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dstanton/mailsearch-mcp/internal/ranking"
	"github.com/dstanton/mailsearch-mcp/internal/searcher"
	"github.com/dstanton/mailsearch-mcp/internal/snippet"
	"github.com/dstanton/mailsearch-mcp/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "mailsearch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the vault database
	DefaultDBPath = "~/.mailsearch"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    store.Store
	searcher *searcher.Searcher
}

// NewServer creates a new MCP server instance backed by the vault at dbPath.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".mailsearch")
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "vault.db")

	st, err := store.NewSQLite(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	srch := searcher.New(st, ranking.DefaultConfig(), snippet.DefaultConfig())

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		store:    st,
		searcher: srch,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchItemsTool(), s.handleSearchItems)
	s.mcp.AddTool(listFoldersTool(), s.handleListFolders)
	s.mcp.AddTool(readItemTool(), s.handleReadItem)
	s.mcp.AddTool(importItemsTool(), s.handleImportItems)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
