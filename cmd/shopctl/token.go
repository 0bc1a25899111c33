package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"batteryshop/internal/domain/auth"
)

var (
	tokenUser  string
	tokenEmail string
	tokenPerms []string
	tokenAdmin bool
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development access token",
	Example: `  shopctl token --user counter-1 --perm sales:create --perm sales:read
  shopctl token --user owner --admin --ttl 1h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc := auth.NewJWTService(auth.JWTConfig{
			Secret:         cfg.JWTSecret,
			Issuer:         auth.DefaultJWTConfig("").Issuer,
			AccessTokenTTL: cfg.JWTTTL,
		})

		token, expires, err := svc.GenerateAccessToken(auth.TokenRequest{
			UserID:      tokenUser,
			Email:       tokenEmail,
			Roles:       []string{auth.RoleCashier},
			Permissions: tokenPerms,
			IsAdmin:     tokenAdmin,
			TTL:         tokenTTL,
		})
		if err != nil {
			return err
		}

		log.Infow("token issued", "user", tokenUser, "expires_at", expires.Format(time.RFC3339))
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id carried by the token")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().StringSliceVar(&tokenPerms, "perm", []string{auth.PermSalesCreate, auth.PermSalesRead}, "Granted permission (repeatable)")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant every permission")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (defaults to JWT_TTL)")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
