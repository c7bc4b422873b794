package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/config"
	"github.com/andreisalomia/mini-jira/internal/types"
)

func (c *cli) tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:     "token <user-id>",
		GroupID: "setup",
		Short:   "Mint a bearer token for a directory user",
		Long: `Mint an HS256 bearer token for a user listed in the directory file,
signed with auth.secret. Intended for local use and scripting.

Example:
  export MJ_TOKEN=$(mj token olga)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.loadDirectory()
			if err != nil {
				return err
			}
			user, ok := dir.User(cmd.Context(), args[0])
			if !ok {
				return types.Errorf(types.ReasonNotFound, "user %s is not in the directory", args[0])
			}
			tp, err := c.tokenProvider()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = config.GetDuration(config.KeyTokenTTL)
			}
			token, err := tp.Issue(user, ttl)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return outputJSON(c.out, map[string]string{
					"token":      token,
					"user_id":    user.ID,
					"expires_at": time.Now().Add(ttl).UTC().Format(time.RFC3339),
				})
			}
			c.printf("%s\n", token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.token-ttl, 24h)")
	return cmd
}
