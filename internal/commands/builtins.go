// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

// Command categories used in help.
const (
	CategoryGeneral   = "General"
	CategoryDocuments = "Documents"
	CategoryStore     = "Store"
	CategorySettings  = "Settings"
	CategoryServers   = "Servers"
)

// RegisterBuiltins adds the built-in commands to r. Any name clash is
// returned as ErrDuplicateCommand and must abort startup.
func RegisterBuiltins(r *Registry) error {
	for _, cmd := range Builtins() {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Builtins returns fresh definitions of the built-in commands.
func Builtins() []*Command {
	return []*Command{
		// General
		{
			Name:        "help",
			Aliases:     []string{"?"},
			Description: "Show available commands or the usage of one",
			Usage:       "help [command]",
			Category:    CategoryGeneral,
			Arity:       Between(0, 1),
			Output:      OutputMarkdown,
			Handler:     handleHelp,
		},
		{
			Name:        "exit",
			Aliases:     []string{"quit"},
			Description: "End the session",
			Usage:       "exit",
			Category:    CategoryGeneral,
			Arity:       None(),
			Handler:     handleExit,
		},
		{
			Name:        "say",
			Aliases:     []string{"echo"},
			Description: "Print the arguments joined by spaces",
			Usage:       "say <words...>",
			Category:    CategoryGeneral,
			Arity:       AtLeast(1),
			Handler:     handleSay,
		},
		{
			Name:        "session",
			Description: "Show session information",
			Usage:       "session",
			Category:    CategoryGeneral,
			Arity:       None(),
			Output:      OutputJSON,
			Handler:     handleSession,
		},
		{
			Name:        "history",
			Description: "Show recent input lines",
			Usage:       "history [count]",
			Category:    CategoryGeneral,
			Arity:       Between(0, 1),
			Output:      OutputJSON,
			Handler:     handleHistory,
		},
		{
			Name:        "distance",
			Description: "Edit distance between two words",
			Usage:       "distance <a> <b>",
			Category:    CategoryGeneral,
			Arity:       Exactly(2),
			Output:      OutputJSON,
			Handler:     handleDistance,
		},

		// Documents
		{
			Name:        "parse",
			Description: "Parse a JSON document",
			Usage:       "parse <json>",
			Category:    CategoryDocuments,
			Arity:       Exactly(1),
			Output:      OutputJSON,
			Handler:     handleParse,
		},
		{
			Name:        "set",
			Description: "Store a JSON document in a session variable",
			Usage:       "set <name> <json>",
			Category:    CategoryDocuments,
			Arity:       Exactly(2),
			Handler:     handleSet,
		},
		{
			Name:        "get",
			Description: "Show a session variable",
			Usage:       "get <name>",
			Category:    CategoryDocuments,
			Arity:       Exactly(1),
			Output:      OutputJSON,
			Handler:     handleGet,
		},
		{
			Name:        "unset",
			Description: "Remove a session variable",
			Usage:       "unset <name>",
			Category:    CategoryDocuments,
			Arity:       Exactly(1),
			Handler:     handleUnset,
		},
		{
			Name:        "vars",
			Description: "Show all session variables",
			Usage:       "vars",
			Category:    CategoryDocuments,
			Arity:       None(),
			Output:      OutputJSON,
			Handler:     handleVars,
		},
		{
			Name:        "last",
			Description: "Show the last result",
			Usage:       "last",
			Category:    CategoryDocuments,
			Arity:       None(),
			Output:      OutputJSON,
			Handler:     handleLast,
		},
		{
			Name:        "query",
			Description: "Look up a dotted path inside a variable",
			Usage:       "query <name> <path>",
			Category:    CategoryDocuments,
			Arity:       Exactly(2),
			Output:      OutputJSON,
			Handler:     handleQuery,
		},
		{
			Name:        "yaml",
			Description: "Show a variable as YAML",
			Usage:       "yaml <name>",
			Category:    CategoryDocuments,
			Arity:       Exactly(1),
			Handler:     handleYAML,
		},

		// Store
		{
			Name:        "save",
			Description: "Save a variable (default: the last result) to the store",
			Usage:       "save <doc> [name]",
			Category:    CategoryStore,
			Arity:       Between(1, 2),
			Handler:     handleSave,
		},
		{
			Name:        "load",
			Description: "Load a stored document into a variable",
			Usage:       "load <doc> [name]",
			Category:    CategoryStore,
			Arity:       Between(1, 2),
			Output:      OutputJSON,
			Handler:     handleLoad,
		},
		{
			Name:        "docs",
			Description: "List stored documents",
			Usage:       "docs",
			Category:    CategoryStore,
			Arity:       None(),
			Output:      OutputJSON,
			Handler:     handleDocs,
		},
		{
			Name:        "drop",
			Description: "Delete a stored document",
			Usage:       "drop <doc>",
			Category:    CategoryStore,
			Arity:       Exactly(1),
			Handler:     handleDrop,
		},

		// Settings
		{
			Name:        "config",
			Description: "Show or change settings for this session",
			Usage:       "config [key [value]]",
			Category:    CategorySettings,
			Arity:       Between(0, 2),
			Output:      OutputJSON,
			Handler:     handleConfig,
		},
		{
			Name:        "schema",
			Description: "Show the JSON schema of the settings",
			Usage:       "schema",
			Category:    CategorySettings,
			Arity:       None(),
			Output:      OutputJSON,
			Handler:     handleSchema,
		},

		// Servers
		{
			Name:        "paper",
			Description: "Query Paper versions and builds",
			Usage:       "paper versions | paper builds <version> | paper latest [version]",
			Category:    CategoryServers,
			Arity:       Between(1, 2),
			Output:      OutputJSON,
			Handler:     handlePaper,
		},
		{
			Name:        "github",
			Description: "Search plugins and their releases on GitHub",
			Usage:       "github search <name> | releases <owner/repo> | latest <owner/repo> | tag <owner/repo> <tag> | assets <owner/repo> <release-id|tag>",
			Category:    CategoryServers,
			Arity:       Between(2, 3),
			Output:      OutputJSON,
			Handler:     handleGitHub,
		},
		{
			Name:        "setup",
			Description: "Create a Paper server folder with Skript and addons installed",
			Usage:       "setup <name> [paper-version|latest] [skript-tag|latest] [owner/repo[@tag]...]",
			Category:    CategoryServers,
			Arity:       AtLeast(1),
			Output:      OutputJSON,
			Handler:     handleSetup,
		},
	}
}

// categoryOrder is the display order of categories in help.
var categoryOrder = []string{
	CategoryGeneral, CategoryDocuments, CategoryStore, CategorySettings, CategoryServers,
}
