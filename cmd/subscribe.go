package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/bird-tagger/internal/notify"
	"github.com/spf13/cobra"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe",
	Short: "Subscribe an e-mail address to alerts for a species",
	RunE:  runSubscribe,
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Manage alert topics",
}

var topicsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create one alert topic per catalog species",
	RunE:  runTopicsCreate,
}

func init() {
	rootCmd.AddCommand(subscribeCmd, topicsCmd)
	topicsCmd.AddCommand(topicsCreateCmd)

	subscribeCmd.Flags().String("email", "", "E-mail address to notify")
	subscribeCmd.Flags().String("species", "", "Species to subscribe to")
	_ = subscribeCmd.MarkFlagRequired("email")
	_ = subscribeCmd.MarkFlagRequired("species")
}

func newCLINotifier(cmd *cobra.Command) (*notify.SNSNotifier, *app, error) {
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		return nil, nil, err
	}
	notifier, err := notify.NewSNSNotifier(cmd.Context(), a.cfg.Notify.Region)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return notifier, a, nil
}

func runSubscribe(cmd *cobra.Command, args []string) error {
	email := mustGetString(cmd, "email")
	if err := notify.ValidateEmail(email); err != nil {
		return err
	}

	notifier, a, err := newCLINotifier(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sub, err := notifier.Subscribe(cmd.Context(), mustGetString(cmd, "species"), email)
	if err != nil {
		return err
	}
	fmt.Printf("Subscribed %s to %s alerts\n", sub.Email, sub.Species)
	fmt.Printf("  Topic:        %s\n", sub.TopicARN)
	fmt.Printf("  Subscription: %s\n", sub.SubscriptionARN)
	fmt.Println("Check the inbox to confirm the subscription.")
	return nil
}

func runTopicsCreate(cmd *cobra.Command, args []string) error {
	notifier, a, err := newCLINotifier(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var errs []error
	for _, species := range a.cfg.Catalog.Names() {
		arn, err := notifier.EnsureTopic(cmd.Context(), species)
		if err != nil {
			fmt.Printf("  %-12s failed: %v\n", species, err)
			errs = append(errs, err)
			continue
		}
		fmt.Printf("  %-12s %s (%s)\n", species, arn, notify.DisplayName(species))
	}
	return errors.Join(errs...)
}
