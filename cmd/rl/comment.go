package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/redline/internal/ui"
	"github.com/steveyegge/redline/internal/validation"
)

func (a *app) newCommentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comment",
		Aliases: []string{"comments"},
		GroupID: "tracking",
		Short:   "Manage the comments on an issue",
	}
	cmd.AddCommand(a.newCommentAddCmd(), a.newCommentEditCmd(), a.newCommentDeleteCmd(), a.newCommentListCmd())
	return cmd
}

func (a *app) newCommentAddCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "add <issue-id> [text]",
		Short: "Add a comment as the acting user",
		Long: `Add a comment as the acting user.

Examples:
  rl comment add c1a2 "Fixed in the latest build"
  rl comment add c1a2 -f notes.txt`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			content, err := commentText(args, file)
			if err != nil {
				return err
			}
			author, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			issue, err := a.resolveIssue(ctx, args[0])
			if err != nil {
				return err
			}
			form := validation.CommentForm{Content: content}
			if err := checkForm("comment", validation.ValidateCommentForm(form)); err != nil {
				return err
			}
			comment := validation.NewCommentFromForm(form, issue.ID, author.ID, a.ids, a.clock)
			if err := a.store.CreateComment(ctx, &comment); err != nil {
				return fmt.Errorf("add comment: %w", err)
			}
			if a.jsonOutput {
				a.outputJSON(comment)
				return nil
			}
			a.printf("%s Comment added to %s\n", ui.RenderPassIcon(), issue.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the comment from a file")
	return cmd
}

func (a *app) newCommentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <issue-id>",
		Short: "List the comments on an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			issue, err := a.resolveIssue(ctx, args[0])
			if err != nil {
				return err
			}
			comments, err := a.store.ListCommentsByIssue(ctx, issue.ID)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				a.outputJSON(nonNil(comments))
				return nil
			}
			if len(comments) == 0 {
				a.printf("No comments on %s\n", issue.ID)
				return nil
			}
			n, err := a.loadNames(ctx)
			if err != nil {
				return err
			}
			var b strings.Builder
			fmt.Fprintf(&b, "Comments on %s:\n\n", issue.ID)
			for _, c := range comments {
				fmt.Fprintf(&b, "[%s] at %s\n", n.user(c.AuthorID), formatTime(c.CreatedAt))
				for _, line := range strings.Split(ui.WrapText(c.Content, ui.TerminalWidth(80)-2), "\n") {
					fmt.Fprintf(&b, "  %s\n", line)
				}
				b.WriteString("\n")
			}
			return a.page(b.String())
		},
	}
}

// commentText takes the comment from the second argument or from file.
func commentText(args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) == 2:
		return "", fmt.Errorf("give the comment as an argument or with --file, not both")
	case file != "":
		data, err := os.ReadFile(file) // #nosec G304 -- user-supplied path
		if err != nil {
			return "", fmt.Errorf("read comment file: %w", err)
		}
		return string(data), nil
	case len(args) == 2:
		return args[1], nil
	}
	return "", nil
}

func (a *app) newCommentEditCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "edit <comment-id> [text]",
		Short: "Replace the text of a comment",
		Long: `Replace the text of a comment. The author and creation time are kept.

Examples:
  rl comment edit c1 "Fixed in 2.4.1, not 2.4.0"
  rl comment edit c1 -f notes.txt`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			content, err := commentText(args, file)
			if err != nil {
				return err
			}
			existing, err := a.store.GetComment(ctx, args[0])
			if err != nil {
				return err
			}
			form := validation.CommentForm{Content: content}
			if err := checkForm("comment", validation.ValidateCommentForm(form)); err != nil {
				return err
			}
			comment := validation.UpdateCommentFromForm(*existing, form, a.clock)
			if err := a.store.UpdateComment(ctx, &comment); err != nil {
				return fmt.Errorf("edit comment: %w", err)
			}
			if a.jsonOutput {
				a.outputJSON(comment)
				return nil
			}
			a.printf("%s Comment %s on %s updated\n", ui.RenderPassIcon(), comment.ID, comment.IssueID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the comment from a file")
	return cmd
}

func (a *app) newCommentDeleteCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			comment, err := a.store.GetComment(ctx, args[0])
			if err != nil {
				return err
			}
			if !force {
				fmt.Fprintf(a.stderr, "%s Would delete comment %s on %s: %s\n", ui.RenderWarnIcon(),
					comment.ID, comment.IssueID, ui.Truncate(comment.Content, 50))
				fmt.Fprintf(a.stderr, "Use --force to delete.\n")
				return &silentError{code: exitFailure}
			}
			if err := a.store.DeleteComment(ctx, comment.ID); err != nil {
				return fmt.Errorf("delete comment %s: %w", comment.ID, err)
			}
			if a.jsonOutput {
				a.outputJSON(map[string]string{"deleted": comment.ID})
				return nil
			}
			a.printf("%s Deleted comment %s\n", ui.RenderPassIcon(), comment.ID)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without the preview")
	return cmd
}
