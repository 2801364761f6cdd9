// Package mcp exposes the vault search pipeline as MCP tools over stdio:
// search_items, list_folders, read_item, import_items, and get_status.
package mcp
