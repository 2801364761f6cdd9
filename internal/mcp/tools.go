package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/dstanton/mailsearch-mcp/internal/searcher"
	"github.com/dstanton/mailsearch-mcp/internal/snippet"
	"github.com/dstanton/mailsearch-mcp/internal/store"
	"github.com/dstanton/mailsearch-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeFolderNotFound = -32001 // Search path does not resolve to a folder
	ErrorCodeItemNotFound   = -32002 // Entry ID does not resolve to an item
	ErrorCodeImportFailed   = -32003 // Item import could not complete
)

// handleSearchItems handles the search_items tool invocation
func (s *Server) handleSearchItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	pattern := cast.ToString(args["pattern"])
	if pattern == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "pattern parameter is required", map[string]interface{}{
			"param":  "pattern",
			"reason": "missing or empty",
		})
	}

	path := cast.ToString(args["path"])
	if path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	mode := searcher.Mode(cast.ToString(args["output_mode"]))
	if mode == "" {
		mode = searcher.ModeList
	}
	if mode != searcher.ModeList && mode != searcher.ModeContent {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid output_mode", map[string]interface{}{
			"param":   "output_mode",
			"value":   string(mode),
			"allowed": []string{"list", "content"},
		})
	}

	since, err := parseDateArg(args, "since")
	if err != nil {
		return nil, err
	}
	until, err := parseDateArg(args, "until")
	if err != nil {
		return nil, err
	}

	offset := cast.ToInt(args["offset"])
	if offset < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "offset must be >= 0", map[string]interface{}{
			"param": "offset",
			"value": offset,
		})
	}

	resp, err := s.searcher.Search(ctx, searcher.Request{
		Pattern:  pattern,
		Path:     path,
		Mode:     mode,
		Since:    since,
		Until:    until,
		Offset:   offset,
		UseCache: true,
	})
	if err != nil {
		return nil, searchError(path, err)
	}

	out := map[string]interface{}{
		"pagination": resp.Page.Pagination,
		"results":    resp.Page.Results,
	}
	if resp.Diagnostic != "" {
		out["diagnostic"] = resp.Diagnostic
	}
	if resp.Page.Pagination.HasMore {
		out["next_offset"] = resp.Page.Pagination.Offset + resp.Page.Pagination.Limit
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

// searchError maps pipeline errors onto MCP error codes with actionable
// hints, mirroring the guidance the original CLI printed.
func searchError(path string, err error) error {
	switch {
	case errors.Is(err, types.ErrFolderRequired):
		account, _, _ := strings.Cut(path, "/")
		return newMCPError(ErrorCodeInvalidParams, "must specify a folder, not just an account", map[string]interface{}{
			"path": path,
			"hint": fmt.Sprintf("use list_folders with path %q, then search e.g. %q", account, account+"/Inbox"),
		})
	case errors.Is(err, types.ErrEmptyPath):
		return newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param": "path",
		})
	case errors.Is(err, store.ErrNotFound):
		return newMCPError(ErrorCodeFolderNotFound, "folder not found", map[string]interface{}{
			"path": path,
			"hint": "use list_folders to discover available folders",
		})
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// handleListFolders handles the list_folders tool invocation
func (s *Server) handleListFolders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	path := cast.ToString(args["path"])

	if path == "" {
		accounts, err := s.store.Accounts(ctx)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to list accounts", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return mcp.NewToolResultText(formatJSON(map[string]interface{}{
			"accounts": accounts,
		})), nil
	}

	account, prefix, _ := strings.Cut(path, "/")
	folders, err := s.store.ListFolders(ctx, account, prefix)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list folders", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if len(folders) == 0 {
		return nil, newMCPError(ErrorCodeFolderNotFound, "no folders found", map[string]interface{}{
			"path": path,
		})
	}

	entries := make([]map[string]interface{}, 0, len(folders))
	for i := range folders {
		entries = append(entries, map[string]interface{}{
			"path":       folders[i].FullPath(),
			"kind":       folders[i].Kind,
			"item_count": folders[i].ItemCount,
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"folders": entries,
	})), nil
}

// handleReadItem handles the read_item tool invocation
func (s *Server) handleReadItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	encoded := cast.ToString(args["entry_id"])
	if encoded == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "entry_id parameter is required", map[string]interface{}{
			"param":  "entry_id",
			"reason": "missing or empty",
		})
	}
	entryID, err := types.DecodeEntryID(encoded)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid entry_id", map[string]interface{}{
			"param":  "entry_id",
			"reason": err.Error(),
		})
	}

	includeBody := true
	if v, present := args["include_body"]; present {
		includeBody = cast.ToBool(v)
	}

	item, err := s.store.GetItem(ctx, entryID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newMCPError(ErrorCodeItemNotFound, "item not found", map[string]interface{}{
			"entry_id": encoded,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read item", map[string]interface{}{
			"error": err.Error(),
		})
	}

	out := map[string]interface{}{
		"entry_id": encoded,
		"subject":  item.Subject,
		"sender":   item.Sender,
		"is_read":  !item.Unread,
	}
	if !item.Timestamp.IsZero() {
		out["date"] = item.Timestamp.Format(time.RFC3339)
	}
	if len(item.Attachments) > 0 {
		out["attachments"] = item.Attachments
	}
	if includeBody {
		body := item.Body
		if body == "" && item.HTMLBody != "" {
			body = snippet.StripHTML(item.HTMLBody)
		}
		out["body"] = body
	}

	return mcp.NewToolResultText(formatJSON(out)), nil
}

// handleImportItems handles the import_items tool invocation
func (s *Server) handleImportItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	filePath := cast.ToString(args["path"])
	if filePath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	folderPath := cast.ToString(args["folder"])
	account, sub, err := searcher.SplitPath(folderPath)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "folder must be account/path", map[string]interface{}{
			"param": "folder",
			"value": folderPath,
		})
	}

	folder, err := s.store.LookupFolder(ctx, account, sub)
	if errors.Is(err, store.ErrNotFound) {
		if !cast.ToBool(args["create_missing"]) {
			return nil, newMCPError(ErrorCodeFolderNotFound, "folder not found", map[string]interface{}{
				"path": folderPath,
				"hint": "pass create_missing=true to create it",
			})
		}
		kind := types.FolderKind(cast.ToString(args["kind"]))
		if kind == "" {
			kind = types.FolderMail
		}
		folder = &types.Folder{Account: account, Path: sub, Kind: kind}
		if err := s.store.UpsertFolder(ctx, folder); err != nil {
			return nil, newMCPError(ErrorCodeImportFailed, "failed to create folder", map[string]interface{}{
				"error": err.Error(),
			})
		}
	} else if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to lookup folder", map[string]interface{}{
			"error": err.Error(),
		})
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "cannot open import file", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	defer func() { _ = f.Close() }()

	imported, err := s.store.ImportItems(ctx, folder, f)
	if err != nil {
		return nil, newMCPError(ErrorCodeImportFailed, "import failed", map[string]interface{}{
			"imported": imported,
			"error":    err.Error(),
		})
	}

	// Cached pages may no longer reflect vault contents
	s.searcher.InvalidateCache()

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"imported": imported,
		"folder":   folder.FullPath(),
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read stats", map[string]interface{}{
			"error": err.Error(),
		})
	}

	capability := "substring"
	if stats.FTSEnabled {
		capability = "indexed"
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"accounts":   stats.Accounts,
		"folders":    stats.Folders,
		"items":      stats.Items,
		"capability": capability,
		"driver":     stats.Driver,
		"build_mode": stats.BuildMode,
	})), nil
}

// Helper functions

// parseDateArg reads an optional YYYY-MM-DD argument.
func parseDateArg(args map[string]interface{}, key string) (*time.Time, error) {
	raw := cast.ToString(args[key])
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid date", map[string]interface{}{
			"param":  key,
			"value":  raw,
			"reason": "expected YYYY-MM-DD",
		})
	}
	return &t, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}
