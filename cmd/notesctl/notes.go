package main

import (
	"context"

	"github.com/spf13/cobra"

	"notekeeper/internal/identity"
	"notekeeper/internal/model"
	"notekeeper/internal/notes"
)

func (a *app) noteCommands() []*cobra.Command {
	cmds := []*cobra.Command{
		a.listCmd(),
		a.getCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.tagCmd(),
		a.searchCmd(),
		a.byTagCmd(),
	}

	single := []struct {
		use, short string
		op         func(*notes.Service, context.Context, identity.Principal, string) (model.Note, error)
	}{
		{"delete [id]", "Delete a note and print it", (*notes.Service).Delete},
		{"archive [id]", "Mark a note as archived", (*notes.Service).Archive},
		{"unarchive [id]", "Clear the archived mark on a note", (*notes.Service).Unarchive},
		{"favorite [id]", "Mark a note as favorite", (*notes.Service).Favorite},
		{"unfavorite [id]", "Clear the favorite mark on a note", (*notes.Service).Unfavorite},
	}
	for _, s := range single {
		op := s.op
		cmds = append(cmds, &cobra.Command{
			Use:   s.use,
			Short: s.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withService(cmd, func(ctx context.Context, svc *notes.Service, caller identity.Principal) error {
					note, err := op(svc, ctx, caller, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd, note)
				})
			},
		})
	}
	return cmds
}

func (a *app) listCmd() *cobra.Command {
	var offset, limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your notes in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *notes.Service, caller identity.Principal) error {
				list, err := svc.List(ctx, caller, offset, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, list)
			})
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of notes to skip")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of notes to print")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Print one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *notes.Service, caller identity.Principal) error {
				note, err := svc.Get(ctx, caller, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, note)
			})
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var input model.NoteInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *notes.Service, caller identity.Principal) error {
				note, err := svc.Create(ctx, caller, input)
				if err != nil {
					return err
				}
				return printJSON(cmd, note)
			})
		},
	}
	cmd.Flags().StringVar(&input.Title, "title", "", "Note title")
	cmd.Flags().StringVar(&input.Content, "content", "", "Note body, markdown")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var input model.NoteInput
	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Replace the title and content of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *notes.Service, caller identity.Principal) error {
				note, err := svc.Update(ctx, caller, args[0], input)
				if err != nil {
					return err
				}
				return printJSON(cmd, note)
			})
		},
	}
	cmd.Flags().StringVar(&input.Title, "title", "", "New title")
	cmd.Flags().StringVar(&input.Content, "content", "", "New body, markdown")
	return cmd
}

func (a *app) tagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag [id] [tag...]",
		Short: "Append tags to a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *notes.Service, caller identity.Principal) error {
				note, err := svc.AddTags(ctx, caller, args[0], args[1:])
				if err != nil {
					return err
				}
				return printJSON(cmd, note)
			})
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Find notes whose title or content contains query, ignoring case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *notes.Service, caller identity.Principal) error {
				list, err := svc.Search(ctx, caller, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, list)
			})
		},
	}
}

func (a *app) byTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "by-tag [tag]",
		Short: "List notes carrying a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *notes.Service, caller identity.Principal) error {
				list, err := svc.ListByTag(ctx, caller, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, list)
			})
		},
	}
}
