package cmd

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-pos-auth/app/notifier"
	"github.com/vibast-solutions/ms-go-pos-auth/app/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var otpCmd = &cobra.Command{
	Use:   "otp",
	Short: "Maintain password reset OTPs",
}

var otpCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired password reset OTPs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, db, err := loadRuntime(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		tokens, err := service.NewTokenService(cfg.JWT)
		if err != nil {
			return err
		}
		resetService := service.NewPasswordResetService(db, tokens, notifier.NewLogSender(), cfg)

		deleted, err := resetService.CleanupExpiredOtps(ctx)
		if err != nil {
			return err
		}

		logrus.WithField("deleted", deleted).Info("Expired OTPs cleaned up")
		fmt.Printf("deleted: %d\n", deleted)
		return nil
	},
}

func init() {
	otpCmd.AddCommand(otpCleanupCmd)
	rootCmd.AddCommand(otpCmd)
}
