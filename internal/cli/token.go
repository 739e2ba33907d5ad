package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"quill/internal/repository/postgres"
	"quill/internal/service"

	"github.com/spf13/cobra"
)

func newTokenCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API bearer tokens",
	}

	// withTokens 打开数据库并把 TokenService 交给 fn。
	withTokens := func(ctx context.Context, fn func(*service.TokenService) error) error {
		db, err := e.openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(service.NewTokenService(postgres.NewTokenRepository(db)))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Create a new token and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokens(cmd.Context(), func(s *service.TokenService) error {
				tok, err := s.Generate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", tok.ID, tok.Token)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokens(cmd.Context(), func(s *service.TokenService) error {
				tokens, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tROLE\tCREATED\tTOKEN")
				for _, t := range tokens {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Role, t.CreateTime.Format("2006-01-02 15:04"), maskToken(t.Token))
				}
				return tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <id>",
		Short: "Delete a token by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTokens(cmd.Context(), func(s *service.TokenService) error {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("revoke %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

// maskToken 只显示前后四位。
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "…" + token[len(token)-4:]
}
