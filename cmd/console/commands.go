package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/maheshrc27/postflow-sync/internal/calendar"
	"github.com/maheshrc27/postflow-sync/internal/models"
	"github.com/maheshrc27/postflow-sync/internal/service"
	"github.com/maheshrc27/postflow-sync/internal/transfer"
	"github.com/maheshrc27/postflow-sync/pkg/utils"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print the 30-day posting calendar in the business timezone",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		posts, err := a.Posts.List(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(calendar.Build(time.Now(), a.Location, posts))
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <post-id>...",
	Short: "Approve posts for publishing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		results := make([]*service.ApprovalResult, 0, len(args))
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid post id %q", arg)
			}
			res, err := a.Posts.Approve(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("approving post %d: %w", id, err)
			}
			results = append(results, res)
		}
		return printJSON(results)
	},
}

var (
	generateTotal     int
	generatePlatforms []string
	generateReset     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a strategic content plan from the brand purpose",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		platforms := make([]models.Platform, 0, len(generatePlatforms))
		for _, p := range generatePlatforms {
			platform := models.Platform(p)
			if !platform.Valid() {
				return fmt.Errorf("%w: %q", service.ErrUnknownPlatform, p)
			}
			platforms = append(platforms, platform)
		}

		res, err := a.Generation.Generate(cmd.Context(), service.GenerateOptions{
			TotalPosts: generateTotal,
			Platforms:  platforms,
			ResetQuota: generateReset,
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var connectionsRefresh bool

var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Show platform connection status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if connectionsRefresh {
			if err := a.Connections.Load(cmd.Context()); err != nil {
				return err
			}
		}
		return printJSON(a.Connections.Statuses(cmd.Context()))
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect <platform>",
	Short: "Disconnect a social platform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		platform := models.Platform(args[0])
		if err := a.Connections.Disconnect(cmd.Context(), platform); err != nil {
			return err
		}
		fmt.Printf("%s disconnected\n", platform)
		return nil
	},
}

var redeem transfer.GiftCertificateRedemption

var redeemCmd = &cobra.Command{
	Use:   "redeem",
	Short: "Redeem a gift certificate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := a.Subscriptions.RedeemGiftCertificate(cmd.Context(), redeem)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload custom media to object storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		if a.Media == nil {
			return fmt.Errorf("media storage is not configured: set R2_ACCOUNT_ID and R2_BUCKET_NAME")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		asset, err := a.Media.Upload(cmd.Context(), data)
		if err != nil {
			return err
		}
		return printJSON(asset)
	},
}

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a console access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, cleanup, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		token, err := utils.GenerateToken(a.Config.SecretKey, tokenUser, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&generateTotal, "total", 0, "number of posts to generate (defaults to the plan allocation)")
	generateCmd.Flags().StringSliceVar(&generatePlatforms, "platform", nil, "platforms to include (defaults to all)")
	generateCmd.Flags().BoolVar(&generateReset, "reset-quota", false, "reallocate the subscription post budget")

	connectionsCmd.Flags().BoolVar(&connectionsRefresh, "refresh", true, "probe live status before printing")

	redeemCmd.Flags().StringVar(&redeem.Code, "code", "", "certificate code")
	redeemCmd.Flags().StringVar(&redeem.Email, "email", "", "account email")
	redeemCmd.Flags().StringVar(&redeem.Password, "password", "", "account password")
	redeemCmd.Flags().StringVar(&redeem.Phone, "phone", "", "phone number in E.164 form")

	tokenCmd.Flags().StringVar(&tokenUser, "user", "1", "user id carried by the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(calendarCmd, approveCmd, generateCmd, connectionsCmd, disconnectCmd, redeemCmd, uploadCmd, tokenCmd)
}
