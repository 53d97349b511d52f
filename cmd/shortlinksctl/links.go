package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atinyakov/go-shortlinks/internal/app/handler"
	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/listing"
	"github.com/atinyakov/go-shortlinks/internal/models"
	"github.com/atinyakov/go-shortlinks/internal/storage"
)

func newCreateCmd(c *cli) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "create <url> [--code code]",
		Short: "Create a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := c.linkStore(cmd.Context())
			if err != nil {
				return err
			}

			link, err := links.Create(cmd.Context(), args[0], code)
			if err != nil {
				return err
			}

			resp := models.NewLinkResponse(*link, c.options.ResultHostname)
			fmt.Fprintf(cmd.OutOrStdout(), "Code: %s\nShort URL: %s\n", resp.ShortCode, resp.ShortURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "custom short code, generated when empty")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	var req listing.Request

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List short links page by page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := c.linkStore(cmd.Context())
			if err != nil {
				return err
			}

			table, err := listing.Build(cmd.Context(), handler.LinkColumns, req, links.List)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tURL\tCLICKS\tCREATED")
			for _, l := range table.Rows {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.ID, l.ShortCode, l.OriginalURL, l.ClickCount, l.CreatedAt.Format("2006-01-02 15:04"))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			p := table.Pagination
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d, %d links\n", p.CurrentPage, p.TotalPages, p.TotalItems)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&req.Page, "page", 1, "page number")
	f.IntVar(&req.PerPage, "per-page", listing.DefaultPerPage, "links per page")
	f.StringVar(&req.OrderBy, "orderby", string(storage.SortCreatedAt), "sort column: short_code, original_url, click_count, created_at")
	f.StringVar(&req.Order, "order", string(storage.Desc), "sort direction: asc or desc")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|code>...",
		Short: "Delete short links by id or short code",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			links, err := c.linkStore(cmd.Context())
			if err != nil {
				return err
			}

			ids := make([]int64, 0, len(args))
			for _, ref := range args {
				if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
					ids = append(ids, id)
					continue
				}

				link, err := links.FindByCode(cmd.Context(), strings.TrimSpace(ref))
				if errors.Is(err, storage.ErrNotFound) {
					fmt.Fprintf(cmd.ErrOrStderr(), "No short link %q\n", ref)
					continue
				}
				if err != nil {
					return err
				}
				ids = append(ids, link.ID)
			}

			n, err := links.Delete(cmd.Context(), ids)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", n)
			return nil
		},
	}
}

func newTokenCmd(c *cli) *cobra.Command {
	var (
		subject string
		caps    []string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin console token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := service.NewAdminAuth(c.options.AdminSecret)
			if err != nil {
				return err
			}

			token, err := auth.IssueToken(subject, caps, service.TokenExp)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().StringSliceVar(&caps, "cap", []string{service.CapManageOptions}, "capabilities granted by the token")
	return cmd
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the shortlinks table if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.linkStore(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
