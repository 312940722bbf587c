package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/mikepea/yatube/pkg/yatube/auth"
	"github.com/mikepea/yatube/pkg/yatube/cache"
	"github.com/mikepea/yatube/pkg/yatube/config"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"github.com/urfave/cli/v2"
)

func groupCommand(st func() *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "group",
		Usage: "manage post groups",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "create a group",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "slug", Required: true},
					&cli.StringFlag{Name: "description"},
				},
				Action: func(c *cli.Context) error {
					slug := c.String("slug")
					if len(slug) > 50 {
						return fmt.Errorf("slug %q is longer than 50 characters", slug)
					}
					group := &models.Group{
						Title:       c.String("title"),
						Slug:        slug,
						Description: c.String("description"),
					}
					if err := st().CreateGroup(c.Context, group); err != nil {
						if errors.Is(err, store.ErrDuplicate) {
							return fmt.Errorf("group %q already exists", slug)
						}
						return err
					}
					fmt.Fprintf(c.App.Writer, "created group %s (id %d)\n", group.Slug, group.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list groups",
				Action: func(c *cli.Context) error {
					groups, err := st().ListGroups(c.Context)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tSLUG\tTITLE")
					for _, g := range groups {
						fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
					}
					return w.Flush()
				},
			},
			{
				Name:  "delete",
				Usage: "delete a group, keeping its posts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Required: true},
				},
				Action: func(c *cli.Context) error {
					group, err := st().GroupBySlug(c.Context, c.String("slug"))
					if err != nil {
						return fmt.Errorf("group %q: %w", c.String("slug"), err)
					}
					if err := st().DeleteGroup(c.Context, group.ID); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "deleted group %s\n", group.Slug)
					return nil
				},
			},
		},
	}
}

func userCommand(st func() *store.Store) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "manage users",
		Subcommands: []*cli.Command{
			{
				Name:  "create-admin",
				Usage: "create an admin user, or promote an existing one",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password"},
					&cli.StringFlag{Name: "email"},
				},
				Action: func(c *cli.Context) error {
					username := c.String("username")
					existing, err := st().UserByUsername(c.Context, username)
					switch {
					case err == nil:
						existing.SystemRole = models.SystemRoleAdmin
						if err := st().UpdateUser(c.Context, existing); err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "promoted %s to admin\n", username)
						return nil
					case !errors.Is(err, store.ErrNotFound):
						return err
					}

					if c.String("password") == "" {
						return errors.New("--password is required for a new user")
					}
					hash, err := auth.HashPassword(c.String("password"))
					if err != nil {
						return err
					}
					user := &models.User{
						Username:     username,
						Email:        c.String("email"),
						PasswordHash: hash,
						SystemRole:   models.SystemRoleAdmin,
					}
					if err := st().CreateUser(c.Context, user); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "created admin %s (id %d)\n", user.Username, user.ID)
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "delete a user with their posts, comments and follows",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
				},
				Action: func(c *cli.Context) error {
					user, err := st().UserByUsername(c.Context, c.String("username"))
					if err != nil {
						return fmt.Errorf("user %q: %w", c.String("username"), err)
					}
					if err := st().DeleteUser(c.Context, user.ID); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "deleted user %s\n", user.Username)
					return nil
				},
			},
		},
	}
}

func cacheCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "manage the shared page cache",
		Subcommands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "drop every cached page from redis",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "redis-addr", Value: cfg.RedisAddr, EnvVars: []string{"YATUBE_REDIS_ADDR"}},
				},
				Action: func(c *cli.Context) error {
					addr := c.String("redis-addr")
					if addr == "" {
						return errors.New("no redis configured; in-memory caches expire on their own")
					}
					client, err := cache.NewRedisClient(addr, cfg.RedisPassword, cfg.RedisDB)
					if err != nil {
						return err
					}
					pages := cache.NewRedisCache(client, "")
					defer pages.Close()
					if err := pages.Clear(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "page cache cleared")
					return nil
				},
			},
		},
	}
}
