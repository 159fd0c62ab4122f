package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/clintrovert/depdash/internal/dashboard"
	"github.com/clintrovert/depdash/internal/watch"
)

type ensureFlags struct {
	title       string
	reuseTitle  string
	body        string
	bodyFile    string
	reportFile  string
	watch       time.Duration
	failOnError bool
	stdin       io.Reader
}

func newEnsureCommand(rt *runtime) *cobra.Command {
	var f ensureFlags

	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Create or update the dashboard issue",
		Long: `Create the dashboard issue, or update it when its title or body differ.

The body comes from --body, --body-file, or --report (a TOML report
rendered to markdown). With --reuse-title an issue still carrying an older
title is adopted and renamed. With --watch the issue is reconciled on that
interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.stdin = cmd.InOrStdin()
			if f.watch > 0 && f.bodyFile == "-" {
				return errors.New("--watch cannot read the body from stdin")
			}
			source := f.source()
			in, err := source()
			if err != nil {
				return err
			}

			svc, err := rt.service()
			if err != nil {
				return err
			}

			if f.watch > 0 {
				w := watch.NewWatcher(svc, source, f.watch, rt.logger)
				w.OnResult(func(res dashboard.EnsureResult) {
					printEnsureResult(cmd.OutOrStdout(), res)
				})
				w.Start(cmd.Context())
				return nil
			}

			res := svc.EnsureIssue(cmd.Context(), in)
			printEnsureResult(cmd.OutOrStdout(), res)
			if res.Err != nil && f.failOnError {
				return fmt.Errorf("ensure issue: %w", res.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.title, "title", "", "dashboard issue title")
	cmd.Flags().StringVar(&f.reuseTitle, "reuse-title", "", "older title to adopt when no issue has --title")
	cmd.Flags().StringVar(&f.body, "body", "", "issue body")
	cmd.Flags().StringVar(&f.bodyFile, "body-file", "", "read the issue body from a file ('-' for stdin)")
	cmd.Flags().StringVar(&f.reportFile, "report", "", "render the issue body from a TOML report file")
	cmd.Flags().DurationVar(&f.watch, "watch", 0, "reconcile repeatedly on this interval")
	cmd.Flags().BoolVar(&f.failOnError, "fail-on-error", false, "exit non-zero when the tracker call fails")
	_ = cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file", "report")

	return cmd
}

func (f *ensureFlags) source() watch.Source {
	return func() (dashboard.EnsureIssueInput, error) {
		in := dashboard.EnsureIssueInput{Title: f.title, ReuseTitle: f.reuseTitle, Body: f.body}

		switch {
		case f.bodyFile != "":
			var data []byte
			var err error
			if f.bodyFile == "-" {
				data, err = io.ReadAll(f.stdin)
			} else {
				data, err = os.ReadFile(f.bodyFile)
			}
			if err != nil {
				return in, fmt.Errorf("failed to read body file: %w", err)
			}
			in.Body = string(data)
		case f.reportFile != "":
			data, err := os.ReadFile(f.reportFile)
			if err != nil {
				return in, fmt.Errorf("failed to read report file: %w", err)
			}
			var report dashboard.Report
			if err := toml.Unmarshal(data, &report); err != nil {
				return in, fmt.Errorf("failed to parse report file: %w", err)
			}
			in.Body = dashboard.RenderBody(report)
		}
		return in, nil
	}
}

func printEnsureResult(w io.Writer, res dashboard.EnsureResult) {
	if res.Err != nil {
		_, _ = fmt.Fprintf(w, "no change: %v\n", res.Err)
		return
	}
	_, _ = fmt.Fprintln(w, res.Outcome.String())
}

func newCloseCommand(rt *runtime) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close every open issue with the given title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service()
			if err != nil {
				return err
			}
			return svc.EnsureIssueClosed(cmd.Context(), title)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title of the issues to close")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newFindCommand(rt *runtime) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print the first open issue with the given title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service()
			if err != nil {
				return err
			}
			return printIssue(cmd.OutOrStdout(), svc.FindIssue(cmd.Context(), title))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "issue title to look up")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newGetCommand(rt *runtime) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "get NUMBER",
		Short: "Print an issue by number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil || number <= 0 {
				return errors.New("issue number must be a positive integer")
			}

			svc, err := rt.service()
			if err != nil {
				return err
			}
			return printIssue(cmd.OutOrStdout(), svc.GetIssue(cmd.Context(), number, !noCache))
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response cache")
	return cmd
}

type issueOutput struct {
	Number int    `json:"number"`
	Body   string `json:"body"`
}

// printIssue writes the issue as JSON, or null when there is none. Lookup
// failures are returned so the exit status reflects them.
func printIssue(w io.Writer, res dashboard.IssueResult) error {
	if res.Err != nil {
		return res.Err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if !res.Found() {
		return enc.Encode(nil)
	}
	return enc.Encode(issueOutput{Number: res.Issue.Number, Body: res.Issue.Body})
}
