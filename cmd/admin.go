package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/KAsare1/Postly-server/cmd/config"
	"github.com/KAsare1/Postly-server/cmd/models"
	"github.com/KAsare1/Postly-server/service/cache"
	"github.com/KAsare1/Postly-server/service/forms"
	"github.com/KAsare1/Postly-server/service/store"
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

// errMemoryFlush is returned by cache flush when the pages live in the
// server's own memory, out of reach of a separate process.
var errMemoryFlush = errors.New("the memory page cache lives inside the server process; send it SIGHUP to flush it")

const (
	titleFlag       = "title"
	slugFlag        = "slug"
	descriptionFlag = "description"
	usernameFlag    = "username"
)

var groupCreateFlags = map[string]cobraflags.Flag{
	titleFlag: &cobraflags.StringFlag{
		Name:  titleFlag,
		Value: "",
		Usage: "Group title (required)",
	},
	slugFlag: &cobraflags.StringFlag{
		Name:  slugFlag,
		Value: "",
		Usage: "URL slug; derived from the title when empty",
	},
	descriptionFlag: &cobraflags.StringFlag{
		Name:  descriptionFlag,
		Value: "",
		Usage: "Short description shown on the group page",
	},
}

var groupDeleteFlags = map[string]cobraflags.Flag{
	slugFlag: &cobraflags.StringFlag{
		Name:  slugFlag,
		Value: "",
		Usage: "Slug of the group to delete (required)",
	},
}

var userDeleteFlags = map[string]cobraflags.Flag{
	usernameFlag: &cobraflags.StringFlag{
		Name:  usernameFlag,
		Value: "",
		Usage: "Username of the account to delete (required)",
	},
}

func newGroupCommand() *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Manage post groups",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE:  groupCreateCommand,
	}
	cobraflags.RegisterMap(createCmd, groupCreateFlags)

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a group; its posts are kept without a group",
		RunE:  groupDeleteCommand,
	}
	cobraflags.RegisterMap(deleteCmd, groupDeleteFlags)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE:  groupListCommand,
	}

	groupCmd.AddCommand(createCmd, deleteCmd, listCmd)
	return groupCmd
}

func groupCreateCommand(cmd *cobra.Command, _ []string) error {
	title := groupCreateFlags[titleFlag].GetString()
	slug := groupCreateFlags[slugFlag].GetString()
	if title == "" {
		return fmt.Errorf("--%s is required", titleFlag)
	}
	if slug == "" {
		slug = forms.Slugify(title)
	}
	if slug == "" {
		return fmt.Errorf("cannot derive a slug from %q; pass --%s", title, slugFlag)
	}
	if f := forms.Slug(slug); !f.OK() {
		return fmt.Errorf("--%s %q: %s", slugFlag, slug, f.Reason())
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	g := &models.Group{
		Title:       title,
		Slug:        slug,
		Description: groupCreateFlags[descriptionFlag].GetString(),
	}
	if err := store.New(e.db).CreateGroup(cmd.Context(), g); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created group %q at /group/%s/\n", g.Title, g.Slug)
	return nil
}

func groupDeleteCommand(cmd *cobra.Command, _ []string) error {
	slug := groupDeleteFlags[slugFlag].GetString()
	if slug == "" {
		return fmt.Errorf("--%s is required", slugFlag)
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	st := store.New(e.db)
	g, err := st.GroupBySlug(cmd.Context(), slug)
	if err != nil {
		return err
	}
	if err := st.DeleteGroup(cmd.Context(), g.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted group %q\n", g.Slug)
	return nil
}

func groupListCommand(cmd *cobra.Command, _ []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	groups, err := store.New(e.db).ListGroups(cmd.Context())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tTITLE")
	for _, g := range groups {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
	}
	return tw.Flush()
}

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an account with its posts, comments and follows",
		RunE:  userDeleteCommand,
	}
	cobraflags.RegisterMap(deleteCmd, userDeleteFlags)
	userCmd.AddCommand(deleteCmd)
	return userCmd
}

func userDeleteCommand(cmd *cobra.Command, _ []string) error {
	username := userDeleteFlags[usernameFlag].GetString()
	if username == "" {
		return fmt.Errorf("--%s is required", usernameFlag)
	}
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	st := store.New(e.db)
	u, err := st.UserByUsername(cmd.Context(), username)
	if err != nil {
		return err
	}
	if err := st.DeleteUser(cmd.Context(), u.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %q\n", u.Username)
	return nil
}

func newCacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the page cache",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Drop every cached page in the shared Redis backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("configuration: %w", err)
			}
			if cfg.CacheBackend != "redis" {
				return errMemoryFlush
			}

			pages, err := cache.Open(cmd.Context(), cfg, cfg.NewLogger())
			if err != nil {
				return err
			}
			if c, ok := pages.(io.Closer); ok {
				defer c.Close()
			}
			if err := pages.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Page cache flushed")
			return nil
		},
	})
	return cacheCmd
}
