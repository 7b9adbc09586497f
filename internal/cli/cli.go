package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve  *ServeCommand
	List   *ListCommand
	Search *SearchCommand
	Open   *OpenCommand
	Add    *AddCommand
	Mark   *MarkCommand
	Remove *RemoveCommand
	Prune  *PruneCommand
	Purge  *PurgeCommand
	Status *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "readlater"
	parser.LongDescription = "Save articles, read them later, organized by when you saved them."

	cmds := &commands{
		Serve:  &ServeCommand{globals: &globals, version: version},
		List:   &ListCommand{globals: &globals, version: version},
		Search: &SearchCommand{globals: &globals, version: version},
		Open:   &OpenCommand{globals: &globals, version: version},
		Add:    &AddCommand{globals: &globals, version: version},
		Mark:   &MarkCommand{globals: &globals, version: version},
		Remove: &RemoveCommand{globals: &globals, version: version},
		Prune:  &PruneCommand{globals: &globals, version: version},
		Purge:  &PurgeCommand{globals: &globals, version: version},
		Status: &StatusCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Start the web reader", "Serve the library list, article reader, JSON API, health and metrics over HTTP.", cmds.Serve)
	parser.AddCommand("list", "List saved articles by recency", "List saved articles grouped into Today, Yesterday, Earlier this Week and Earlier.", cmds.List)
	parser.AddCommand("search", "Search saved articles", "Search saved articles by keyword in title or URL, with optional filters.", cmds.Search)
	parser.AddCommand("open", "Print a saved article", "Print the stored content of a saved article.", cmds.Open)
	parser.AddCommand("add", "Save a URL", "Save a URL with a title and optional body, or download it with --fetch.", cmds.Add)
	parser.AddCommand("mark", "Mark an article read or unread", "Mark an article read, or unread with --unread.", cmds.Mark)
	parser.AddCommand("remove", "Delete one article", "Delete one article and its stored content.", cmds.Remove)
	parser.AddCommand("prune", "Apply retention pruning", "Delete articles older than the retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete the whole library", "Delete ALL saved articles. Destructive operation with safety prompt.", cmds.Purge)
	parser.AddCommand("status", "Show library statistics", "Show library statistics, configuration summary and whether the web reader answers.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point for the readlater CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// --version is valid without a subcommand, which go-flags would reject.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("readlater %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
