package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kvisser/repograph/internal/graph"
	"github.com/kvisser/repograph/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "repograph",
	Short: "Reconstructs a repository's commit graph from its on-disk objects",
}

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve the live commit graph over HTTP and WebSocket",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath := "."
		if len(args) == 1 {
			repoPath = args[0]
		}
		addr, _ := cmd.Flags().GetString("addr")
		pollPeriod, _ := cmd.Flags().GetDuration("poll")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("repograph serving at http://localhost%s\n", addr)
		return server.New(repoPath, addr, pollPeriod).Start(ctx)
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump [dir]",
	Short: "Import the repository once and print a graph summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath := "."
		if len(args) == 1 {
			repoPath = args[0]
		}
		defaultBranch, _ := cmd.Flags().GetString("default-branch")
		showCommits, _ := cmd.Flags().GetBool("commits")

		g, err := graph.Import(repoPath, importOptions(defaultBranch)...)
		if err != nil {
			return err
		}

		printSummary(g)
		if showCommits {
			printCommits(g)
		}
		return nil
	},
}

func main() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Duration("poll", 5*time.Second, "repository poll period")
	dumpCmd.Flags().String("default-branch", "", "override default branch detection")
	dumpCmd.Flags().Bool("commits", false, "also list commits in topological order")
	rootCmd.AddCommand(serveCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
