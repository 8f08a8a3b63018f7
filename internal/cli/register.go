package cli

import (
	"github.com/spf13/cobra"
)

func newRegisterCmd(o *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account on the inventory API",
		Long: `Create an account on the inventory API.

Registering does not sign in: the credential file is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			msg, err := c.Register(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			return renderMessage(cmd.OutOrStdout(), o.output, msg)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
