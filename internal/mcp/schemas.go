package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchItemsTool returns the tool definition for search_items
func searchItemsTool() mcp.Tool {
	return mcp.Tool{
		Name: "search_items",
		Description: "Search a vault folder by pattern, ranked by relevance and recency. " +
			"Syntax: space = OR (\"United ZRH\" matches either term), ampersand = AND " +
			"(\"United&ZRH\" matches both), combined \"ZRH EWR&United\" means " +
			"(ZRH OR EWR) AND United. Legacy pipe \"ZRH|EWR\" equals \"ZRH EWR\".",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"pattern": map[string]interface{}{
					"type":        "string",
					"description": "Search pattern (quote multiple terms)",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Folder to search, e.g. \"work/Inbox\" (use list_folders to discover paths)",
				},
				"output_mode": map[string]interface{}{
					"type":        "string",
					"description": "list (fast, metadata only) or content (with body snippets)",
					"enum":        []string{"list", "content"},
					"default":     "list",
				},
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Only items on or after this date (YYYY-MM-DD)",
				},
				"until": map[string]interface{}{
					"type":        "string",
					"description": "Only items on or before this date (YYYY-MM-DD)",
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Pagination offset",
					"default":     0,
					"minimum":     0,
				},
			},
			Required: []string{"pattern", "path"},
		},
	}
}

// listFoldersTool returns the tool definition for list_folders
func listFoldersTool() mcp.Tool {
	return mcp.Tool{
		Name: "list_folders",
		Description: "List vault accounts, or the folders of an account with item counts. " +
			"Call with no path for accounts, \"account\" for its folders, " +
			"\"account/folder\" for subfolders.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Empty for accounts, or account[/folder] to narrow",
				},
			},
		},
	}
}

// readItemTool returns the tool definition for read_item
func readItemTool() mcp.Tool {
	return mcp.Tool{
		Name:        "read_item",
		Description: "Read a single item by the entry_id returned from search_items",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"entry_id": map[string]interface{}{
					"type":        "string",
					"description": "Encoded entry ID from a search result",
				},
				"include_body": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include the full body text",
					"default":     true,
				},
			},
			Required: []string{"entry_id"},
		},
	}
}

// importItemsTool returns the tool definition for import_items
func importItemsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "import_items",
		Description: "Import a JSON item export file into a vault folder",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the JSON export file",
				},
				"folder": map[string]interface{}{
					"type":        "string",
					"description": "Destination folder, e.g. \"work/Inbox\"",
				},
				"create_missing": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, create the folder when it does not exist",
					"default":     false,
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Folder kind when creating (mail, calendar, contacts, tasks)",
					"enum":        []string{"mail", "calendar", "contacts", "tasks"},
					"default":     "mail",
				},
			},
			Required: []string{"path", "folder"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report vault statistics and search capability",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
