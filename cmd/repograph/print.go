package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/kvisser/repograph/internal/gitcore"
	"github.com/kvisser/repograph/internal/graph"
)

func importOptions(defaultBranch string) []gitcore.Option {
	if defaultBranch == "" {
		return nil
	}
	return []gitcore.Option{gitcore.WithDefaultBranch(defaultBranch)}
}

func printSummary(g *graph.Graph) {
	bold := color.New(color.Bold)
	label := color.New(color.FgCyan)

	maxLane := 0
	for _, lane := range g.Lanes {
		if lane > maxLane {
			maxLane = lane
		}
	}

	bold.Println("repograph summary")
	label.Print("  default head  ")
	fmt.Println(g.DefaultHead.Short())
	label.Print("  commits       ")
	fmt.Println(g.Metrics.CommitCount)
	label.Print("  merges        ")
	fmt.Println(g.Metrics.MergeCount)
	label.Print("  authors       ")
	fmt.Println(g.Metrics.AuthorCount)
	label.Print("  lanes         ")
	fmt.Println(maxLane + 1)
	label.Print("  time span     ")
	fmt.Println(time.Duration(g.Metrics.TimeSpan) * time.Second)

	if len(g.Heads) > 0 {
		names := make([]string, 0, len(g.Heads))
		for name := range g.Heads {
			names = append(names, name)
		}
		sort.Strings(names)

		label.Println("  branches")
		for _, name := range names {
			fmt.Printf("    %s %s\n", g.Heads[name].Short(), name)
		}
	}
}

// printCommits lists the topological order newest-first, one line per
// commit, with subjects truncated to the terminal width.
func printCommits(g *graph.Graph) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}

	hashColor := color.New(color.FgYellow)
	branchColor := color.New(color.FgGreen)

	for i := len(g.TopoOrder) - 1; i >= 0; i-- {
		commit := g.Commits[g.TopoOrder[i]]

		line := fmt.Sprintf("[%d] %s", g.Lanes[commit.ID], commit.Subject)
		// 8 columns for the short hash and its space.
		if limit := width - 8; len(line) > limit && limit > 3 {
			line = line[:limit-3] + "..."
		}

		hashColor.Print(commit.ID.Short() + " ")
		fmt.Print(line)
		if len(commit.Branches) > 0 {
			branchColor.Printf(" (%v)", commit.Branches)
		}
		fmt.Println()
	}
}
